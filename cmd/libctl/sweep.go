package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"library-lite/pkg/container"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the overdue loan and reservation expiry sweeps once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container.NewContainer()
		if err != nil {
			return err
		}
		defer c.Cleanup()

		ctx := cmd.Context()
		overdue, err := c.LoanService.SweepOverdue(ctx)
		if err != nil {
			return fmt.Errorf("overdue sweep: %w", err)
		}
		expired, err := c.ReservationService.SweepExpired(ctx)
		if err != nil {
			return fmt.Errorf("reservation sweep: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Loans marked overdue: %d\nReservations expired: %d\n", overdue, expired)
		return nil
	},
}
