package fine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"library-lite/internal/config"
)

// Policy là canonical fine policy, dùng chung cho return transaction, overdue listing,
// dashboard và payment validation.
type Policy struct {
	DailyRate       decimal.Decimal `json:"dailyRate"`
	MaxFine         decimal.Decimal `json:"maxFine"` // zero = không giới hạn
	GracePeriodDays int             `json:"gracePeriodDays"`
}

// DefaultPolicy: $5/day, không cap, không grace period
func DefaultPolicy() Policy {
	return Policy{
		DailyRate: decimal.NewFromInt(5),
		MaxFine:   decimal.Zero,
	}
}

func PolicyFromConfig(cfg config.FineConfig) Policy {
	return Policy{
		DailyRate:       cfg.DailyRate,
		MaxFine:         cfg.MaxFine,
		GracePeriodDays: cfg.GracePeriodDays,
	}
}

func (p Policy) Validate() error {
	if p.DailyRate.IsNegative() {
		return fmt.Errorf("daily rate must not be negative")
	}
	if p.MaxFine.IsNegative() {
		return fmt.Errorf("max fine must not be negative")
	}
	if p.GracePeriodDays < 0 {
		return fmt.Errorf("grace period must not be negative")
	}
	return nil
}

func (p Policy) Capped() bool {
	return p.MaxFine.IsPositive()
}

func (p Policy) String() string {
	limit := "uncapped"
	if p.Capped() {
		limit = "cap " + p.MaxFine.StringFixed(2)
	}
	return fmt.Sprintf("%s/day, %s, %d grace day(s)", p.DailyRate.StringFixed(2), limit, p.GracePeriodDays)
}
