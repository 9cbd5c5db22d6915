package fine

import (
	"time"

	"github.com/shopspring/decimal"

	"library-lite/internal/shared"
)

const day = 24 * time.Hour

const (
	StatusBorrowed = "borrowed"
	StatusOverdue  = "overdue"
	StatusReturned = "returned"
)

// Calculator áp dụng Policy lên due date / return date của loan.
// Pure: không đọc store, "now" lấy từ Clock được inject.
type Calculator struct {
	policy Policy
	clock  shared.Clock
}

func NewCalculator(policy Policy, clock shared.Clock) *Calculator {
	if clock == nil {
		clock = shared.SystemClock()
	}
	return &Calculator{policy: policy, clock: clock}
}

func (c *Calculator) Policy() Policy { return c.policy }

func (c *Calculator) Now() time.Time { return c.clock.Now() }

// IsOverdue: true khi loan còn mở (returnDate == nil) và now > dueDate
func (c *Calculator) IsOverdue(dueDate time.Time, returnDate *time.Time) bool {
	if returnDate != nil {
		return false
	}
	return c.clock.Now().After(dueDate)
}

// DaysOverdue = ceil((ref - due) / 1 day), floored at 0
func DaysOverdue(dueDate, referenceDate time.Time) int {
	diff := referenceDate.Sub(dueDate)
	if diff <= 0 {
		return 0
	}
	return int((diff + day - 1) / day)
}

// DaysOverdue tính tới returnDate nếu đã trả, ngược lại tới now
func (c *Calculator) DaysOverdue(dueDate time.Time, returnDate *time.Time) int {
	return DaysOverdue(dueDate, c.reference(returnDate))
}

// Fine = (daysOverdue - grace) * dailyRate, capped at MaxFine nếu có.
// returnDate == nil cho ra live fine (chưa persist).
func (c *Calculator) Fine(dueDate time.Time, returnDate *time.Time) decimal.Decimal {
	return c.policy.Amount(DaysOverdue(dueDate, c.reference(returnDate)))
}

// Amount quy đổi số ngày quá hạn thành tiền phạt theo policy
func (p Policy) Amount(daysOverdue int) decimal.Decimal {
	billable := daysOverdue - p.GracePeriodDays
	if billable <= 0 {
		return decimal.Zero
	}

	amount := p.DailyRate.Mul(decimal.NewFromInt(int64(billable)))
	if p.Capped() && amount.GreaterThan(p.MaxFine) {
		amount = p.MaxFine
	}
	return amount.Round(2)
}

// Status suy ra trạng thái hiển thị: returned / overdue / borrowed
func (c *Calculator) Status(dueDate time.Time, returnDate *time.Time) string {
	switch {
	case returnDate != nil:
		return StatusReturned
	case c.IsOverdue(dueDate, nil):
		return StatusOverdue
	default:
		return StatusBorrowed
	}
}

// DaysRemaining = ceil((due - now) / 1 day); âm khi đã quá hạn
func (c *Calculator) DaysRemaining(dueDate time.Time) int {
	diff := dueDate.Sub(c.clock.Now())
	if diff >= 0 {
		return int((diff + day - 1) / day)
	}
	return -DaysOverdue(dueDate, c.clock.Now())
}

func (c *Calculator) reference(returnDate *time.Time) time.Time {
	if returnDate != nil {
		return *returnDate
	}
	return c.clock.Now()
}
