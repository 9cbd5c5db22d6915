package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-lite/internal/domains/fine"
	"library-lite/internal/shared"
)

const (
	StatusBorrowed = fine.StatusBorrowed
	StatusOverdue  = fine.StatusOverdue
	StatusReturned = fine.StatusReturned
)

// Loan. Invariant: Status == returned <=> ReturnDate != nil; Fine chỉ được persist lúc return.
type Loan struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	BookID     uuid.UUID       `json:"bookId"`
	BorrowDate time.Time       `json:"borrowDate"`
	DueDate    time.Time       `json:"dueDate"`
	ReturnDate *time.Time      `json:"returnDate"`
	Status     string          `json:"status"`
	Fine       decimal.Decimal `json:"fine"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`

	User *shared.UserRef `json:"user,omitempty"`
	Book *shared.BookRef `json:"book,omitempty"`

	// Live values, tính lại mỗi lần đọc cho loan chưa trả, không persist
	DaysOverdue    *int             `json:"daysOverdue,omitempty"`
	CalculatedFine *decimal.Decimal `json:"calculatedFine,omitempty"`
}

func (l *Loan) IsOpen() bool {
	return l.Status != StatusReturned
}

// ApplyLiveFine gắn daysOverdue/calculatedFine cho loan chưa trả
func (l *Loan) ApplyLiveFine(calc *fine.Calculator) {
	if !l.IsOpen() {
		return
	}
	days := calc.DaysOverdue(l.DueDate, nil)
	amount := calc.Fine(l.DueDate, nil)
	l.DaysOverdue = &days
	l.CalculatedFine = &amount
}

type ReturnResult struct {
	Loan *Loan           `json:"loan"`
	Fine decimal.Decimal `json:"fine"`
}

type ListFilter struct {
	UserID *uuid.UUID
	BookID *uuid.UUID
	Status string
	SortBy string
	Order  string
	Page   int
	Limit  int
}

// SortColumns whitelist cho ?sortBy=
var SortColumns = map[string]string{
	"borrowDate": "l.borrow_date",
	"dueDate":    "l.due_date",
	"returnDate": "l.return_date",
	"status":     "l.status",
}

func ValidStatus(status string) bool {
	switch status {
	case StatusBorrowed, StatusOverdue, StatusReturned:
		return true
	}
	return false
}
