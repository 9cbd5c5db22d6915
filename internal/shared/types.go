package shared

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// ROLES & ACTOR
// =====================================================

const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleMember    = "member"
)

// Actor là user đã được xác thực đang thực hiện request
type Actor struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsStaff: librarian hoặc admin
func (a Actor) IsStaff() bool { return a.Role == RoleAdmin || a.Role == RoleLibrarian }

// CanActFor: staff được thao tác cho bất kỳ user nào, member chỉ cho chính mình
func (a Actor) CanActFor(userID uuid.UUID) bool {
	return a.IsStaff() || (a.UserID != uuid.Nil && a.UserID == userID)
}

// =====================================================
// ACTIVITY ACTIONS
// =====================================================

const (
	ActionBorrowBook        = "BORROW_BOOK"
	ActionReturnBook        = "RETURN_BOOK"
	ActionReserveBook       = "RESERVE_BOOK"
	ActionCancelReservation = "CANCEL_RESERVATION"
	ActionPayFine           = "PAY_FINE"
)

// =====================================================
// BACKGROUND TASKS
// =====================================================

const (
	QueueHigh    = "high"
	QueueDefault = "default"
	QueueLow     = "low"

	TypeSendEmail              = "notification:email"
	TypeOverdueSweep           = "loan:overdue_sweep"
	TypeDueReminders           = "loan:due_reminders"
	TypeReservationExpirySweep = "reservation:expiry_sweep"
	TypeMembershipReminders    = "member:expiry_reminders"
)

// EmailTemplate identifies one of the notification templates
type EmailTemplate string

const (
	TemplateBookDue            EmailTemplate = "book_due"
	TemplateBookOverdue        EmailTemplate = "book_overdue"
	TemplateBookReserved       EmailTemplate = "book_reserved"
	TemplateBookAvailable      EmailTemplate = "book_available"
	TemplateMembershipExpiring EmailTemplate = "membership_expiring"
	TemplateFinePaid           EmailTemplate = "fine_paid"
)

// EmailPayload là payload của TypeSendEmail task
type EmailPayload struct {
	Template  EmailTemplate `json:"template"`
	To        string        `json:"to"`
	Name      string        `json:"name"`
	BookTitle string        `json:"bookTitle,omitempty"`
	Date      *time.Time    `json:"date,omitempty"`
	Days      int           `json:"days,omitempty"`
	Amount    string        `json:"amount,omitempty"`
}

// SweepPayload là payload rỗng cho scheduled sweeps
type SweepPayload struct{}

// =====================================================
// CROSS-DOMAIN REFERENCES
// =====================================================

// UserRef là thông tin tóm tắt của user, embed trong loan/reservation/payment responses
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
}

// BookRef là thông tin tóm tắt của book
type BookRef struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	ISBN   string    `json:"isbn"`
	Author string    `json:"author,omitempty"`
}
