package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/badstu-booker/internal/application/usecases"
	"github.com/example/badstu-booker/internal/auth"
	"github.com/example/badstu-booker/internal/config"
	"github.com/example/badstu-booker/internal/infrastructure/mock"
	"github.com/example/badstu-booker/internal/infrastructure/planyo"
	"github.com/example/badstu-booker/internal/log"
	logruslog "github.com/example/badstu-booker/internal/log/logrus"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootFlags struct {
	configPath string
}

func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "badstu",
		Short:         "Books sauna sessions at Oslo Badstuforening and streams the progress to a small web UI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "optional YAML config file, environment variables take precedence")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newServerCmd(flags))
	root.AddCommand(newOrderCmd(flags))
	root.AddCommand(newPingCmd(flags))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (f *rootFlags) load() (config.Config, log.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logruslog.New(logruslog.Options{Debug: cfg.Debug, JSON: cfg.LogFormat == "json"}).
		WithValues(log.Kv{"app": "badstu", "version": Version})
	return cfg, logger, nil
}

// newOrders wires the secret gate and both drivers into the order use case.
func newOrders(cfg config.Config, logger log.Logger) (*usecases.PlaceOrder, *auth.Gate, error) {
	gate, err := auth.NewGate(cfg.Password, cfg.BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create password gate: %w", err)
	}

	planyoDrv, err := planyo.NewDriver(planyo.DriverConfig{
		Secret:      gate,
		BaseURL:     cfg.PlanyoURL,
		StepTimeout: cfg.StepTimeout,
		ChromePath:  cfg.ChromePath,
		RemoteURL:   cfg.ChromeRemoteURL,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create planyo driver: %w", err)
	}

	mck, err := mock.NewDriver(mock.DriverConfig{
		Secret:  gate,
		BaseURL: cfg.PlanyoURL,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create mock driver: %w", err)
	}

	orders, err := usecases.NewPlaceOrder(usecases.PlaceOrderConfig{
		Secret: gate,
		Real:   planyoDrv,
		Mock:   mck,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create order use case: %w", err)
	}
	return orders, gate, nil
}
