package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-lite/internal/shared"
)

const (
	TypeBasic   = "basic"
	TypePremium = "premium"
	TypeStudent = "student"

	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusExpired   = "expired"
)

type Member struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"userId"`
	MembershipType string          `json:"membershipType"`
	Status         string          `json:"status"`
	StartDate      time.Time       `json:"startDate"`
	ExpiryDate     *time.Time      `json:"expiryDate,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	User           *shared.UserRef `json:"user,omitempty"`
	Phone          *string         `json:"phone,omitempty"`
	RecentLoans    []LoanSummary   `json:"recentLoans,omitempty"`
}

// NewBasic tạo membership basic/active bắt đầu từ start, hết hạn sau termDays
func NewBasic(userID uuid.UUID, start time.Time, termDays int) *Member {
	expiry := start.AddDate(0, 0, termDays)
	return &Member{
		ID:             uuid.New(),
		UserID:         userID,
		MembershipType: TypeBasic,
		Status:         StatusActive,
		StartDate:      start,
		ExpiryDate:     &expiry,
	}
}

// LoanSummary là loan gần đây hiển thị trong member detail
type LoanSummary struct {
	ID         uuid.UUID       `json:"id"`
	BookID     uuid.UUID       `json:"bookId"`
	BookTitle  string          `json:"bookTitle"`
	BorrowDate time.Time       `json:"borrowDate"`
	DueDate    time.Time       `json:"dueDate"`
	ReturnDate *time.Time      `json:"returnDate,omitempty"`
	Status     string          `json:"status"`
	Fine       decimal.Decimal `json:"fine"`
}

type ListFilter struct {
	Search         string
	Status         string
	MembershipType string
	Page           int
	Limit          int
}
