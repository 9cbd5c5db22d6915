package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-lite/internal/shared"
)

// =====================================================
// PAYMENT METHODS & STATUS
// =====================================================
const (
	MethodCash   = "cash"
	MethodCard   = "card"
	MethodOnline = "online"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

// Payment - ghi nhận khi member trả fine. Tối đa một payment completed cho mỗi loan.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	LoanID        *uuid.UUID      `json:"loanId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status"`
	TransactionID *string         `json:"transactionId,omitempty"`
	PaymentDate   time.Time       `json:"paymentDate"`
	CreatedAt     time.Time       `json:"createdAt"`

	User *shared.UserRef `json:"user,omitempty"`
	Book *shared.BookRef `json:"book,omitempty"`
}

type ListFilter struct {
	UserID *uuid.UUID
	LoanID *uuid.UUID
	Status string
	Page   int
	Limit  int
}

// UserHistory - lịch sử thanh toán của một user
type UserHistory struct {
	Payments  []Payment       `json:"payments"`
	TotalPaid decimal.Decimal `json:"totalPaid"`
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}
