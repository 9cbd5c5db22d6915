package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"library-lite/internal/config"
	"library-lite/internal/domains/fine"
	"library-lite/internal/shared"
)

const dateLayout = "2006-01-02"

var (
	fineDue      string
	fineReturned string
)

var fineCmd = &cobra.Command{
	Use:   "fine",
	Short: "Preview the fine for a due date under the configured policy",
	Example: `  libctl fine --due 2026-03-01
  libctl fine --due 2026-03-01 --returned 2026-03-07`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		due, err := parseDate(fineDue)
		if err != nil {
			return fmt.Errorf("invalid --due: %w", err)
		}
		var returned *time.Time
		if fineReturned != "" {
			r, err := parseDate(fineReturned)
			if err != nil {
				return fmt.Errorf("invalid --returned: %w", err)
			}
			returned = &r
		}

		p := previewFine(fine.PolicyFromConfig(cfg.Fine), shared.SystemClock(), due, returned)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Policy:       $%s/day, grace %d day(s), cap %s\n",
			p.Policy.DailyRate.StringFixed(2), p.Policy.GracePeriodDays, capLabel(p.Policy))
		fmt.Fprintf(out, "Status:       %s\n", p.Status)
		fmt.Fprintf(out, "Days overdue: %d\n", p.DaysOverdue)
		fmt.Fprintf(out, "Fine:         $%s\n", p.Amount.StringFixed(2))
		return nil
	},
}

func init() {
	fineCmd.Flags().StringVar(&fineDue, "due", "", "due date (YYYY-MM-DD or RFC3339)")
	fineCmd.Flags().StringVar(&fineReturned, "returned", "", "return date, defaults to now")
	_ = fineCmd.MarkFlagRequired("due")
}

type finePreview struct {
	Policy      fine.Policy
	Status      string
	DaysOverdue int
	Amount      decimal.Decimal
}

func previewFine(policy fine.Policy, clock shared.Clock, due time.Time, returned *time.Time) finePreview {
	calc := fine.NewCalculator(policy, clock)
	return finePreview{
		Policy:      policy,
		Status:      calc.Status(due, returned),
		DaysOverdue: calc.DaysOverdue(due, returned),
		Amount:      calc.Fine(due, returned),
	}
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(dateLayout, raw)
}

func capLabel(p fine.Policy) string {
	if !p.Capped() {
		return "none"
	}
	return "$" + p.MaxFine.StringFixed(2)
}
