package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/badstu-booker/internal/application/usecases"
	"github.com/example/badstu-booker/internal/infrastructure/planyo"
)

func newPingCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the booking site is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}
			drv, err := planyo.NewDriver(planyo.DriverConfig{
				Secret:  secretNotUsed{},
				BaseURL: cfg.PlanyoURL,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			if err := (usecases.PingSite{Site: drv}).Execute(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", drv.Name())
			return nil
		},
	}
}

// secretNotUsed rejects everything, ping never places an order.
type secretNotUsed struct{}

func (secretNotUsed) Check(string) bool { return false }
