package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/badstu-booker/internal/domain/booking"
	"github.com/example/badstu-booker/internal/internaltypes"
)

func newOrderCmd(flags *rootFlags) *cobra.Command {
	var in booking.OrderInput

	c := &cobra.Command{
		Use:   "order",
		Short: "Place one order from the command line and print its progress",
		Example: `  badstu order --sted sukkerbiten --date neste-onsdag --time 8.5 --antall 2 --member \
    --fornavn Ola --etternavn Nordmann --epost ola@example.com --mobil 99999999 --mock`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}
			if in.Secret == "" {
				in.Secret = cfg.Password
			}

			req, err := booking.NewOrderRequest(in, time.Now().In(cfg.Location))
			if err != nil {
				return fmt.Errorf("invalid order: %v", booking.FieldErrors(err))
			}

			orders, _, err := newOrders(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			attempt := orders.Start(ctx, req)
			out := cmd.OutOrStdout()
			for ev := range attempt.Events() {
				fmt.Fprintf(out, "[%s] %s: %s\n", ev.Time.Format(time.RFC3339), ev.Kind, ev.Data)
			}

			err = attempt.Wait()
			if err != nil && ctx.Err() != nil {
				return fmt.Errorf("%w: interrupted", internaltypes.ErrAborted)
			}
			return err
		},
	}

	c.Flags().StringVar(&in.Place, "sted", "", "sukkerbiten or langkaia")
	c.Flags().StringVar(&in.Date, "date", "", "YYYY-MM-DD or neste-<ukedag>")
	c.Flags().StringVar(&in.Time, "time", "", "start time token, e.g. 07, 8.5, 10")
	c.Flags().IntVar(&in.PartySize, "antall", 1, "party size (1-4)")
	c.Flags().BoolVar(&in.IsMember, "member", false, "book at member price")
	c.Flags().StringVar(&in.FirstName, "fornavn", "", "first name")
	c.Flags().StringVar(&in.LastName, "etternavn", "", "last name")
	c.Flags().StringVar(&in.Email, "epost", "", "email")
	c.Flags().StringVar(&in.Mobile, "mobil", "", "mobile number, also used for Vipps")
	c.Flags().BoolVar(&in.UseMock, "mock", false, "replay the mock script instead of booking")
	c.Flags().BoolVar(&in.Debug, "debug", false, "show the browser and leave it open")
	c.Flags().StringVar(&in.Secret, "password", "", "shared password (defaults to PASSWORD)")

	_ = c.MarkFlagRequired("sted")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("time")
	return c
}
