package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/example/badstu-booker/internal/auth"
	"github.com/example/badstu-booker/internal/interfaces/web"
)

const shutdownTimeout = 10 * time.Second

func newServerCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}
			if err := cfg.RequireCookieKeys(); err != nil {
				return err
			}

			orders, gate, err := newOrders(cfg, logger)
			if err != nil {
				return err
			}

			ws, err := web.NewServer(web.ServerConfig{
				Orders:   orders,
				Secret:   gate,
				Cookies:  auth.NewPersonCookie(cfg.CookieHashKey, cfg.CookieBlockKey),
				BaseURL:  cfg.BaseURL,
				Location: cfg.Location,
				Logger:   logger,
				Debug:    cfg.Debug,
			})
			if err != nil {
				return fmt.Errorf("could not create web server: %w", err)
			}

			// Cancelling the base context ends every open order stream, and with it its attempt.
			baseCtx, cancelRequests := context.WithCancel(context.Background())
			defer cancelRequests()
			srv := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           ws.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return baseCtx },
			}

			var g run.Group

			// HTTP server.
			{
				g.Add(
					func() error {
						logger.Infof("listening on %s", cfg.ListenAddr)
						if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
							return err
						}
						return nil
					},
					func(_ error) {
						cancelRequests()
						ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
						defer cancel()
						if err := srv.Shutdown(ctx); err != nil {
							logger.Errorf("could not shut down http server: %s", err)
						}
						logger.Infof("waiting for running orders")
						orders.Wait()
					},
				)
			}

			// Signals.
			g.Add(run.SignalHandler(cmd.Context(), os.Interrupt, syscall.SIGTERM))

			err = g.Run()
			var sigErr run.SignalError
			if errors.As(err, &sigErr) {
				logger.Infof("signal %s received, stopped", sigErr.Signal)
				return nil
			}
			return err
		},
	}
}
