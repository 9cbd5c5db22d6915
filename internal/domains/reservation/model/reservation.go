package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"library-lite/internal/shared"
	"library-lite/internal/shared/apperror"
	"library-lite/internal/shared/utils"
)

const (
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
	StatusFulfilled = "fulfilled"
	StatusExpired   = "expired"
)

// Reservation là yêu cầu "báo khi có sách"; không giữ chỗ và không đổi availability
type Reservation struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	BookID     uuid.UUID       `json:"bookId"`
	Status     string          `json:"status"`
	ReservedAt time.Time       `json:"reservationDate"`
	ExpiresAt  time.Time       `json:"expiryDate"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	User       *shared.UserRef `json:"user,omitempty"`
	Book       *shared.BookRef `json:"book,omitempty"`
}

// ========================================
// REQUEST DTOs
// ========================================

type ReserveRequest struct {
	UserID     *uuid.UUID `json:"userId"`
	BookID     uuid.UUID  `json:"bookId"`
	ExpiryDate *time.Time `json:"expiryDate"`
}

func (r *ReserveRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.When(r.UserID != nil, validation.By(utils.RequiredUUID))),
		validation.Field(&r.BookID, validation.By(utils.RequiredUUID)),
	)
}

// ========================================
// ERRORS
// ========================================

var (
	ErrReservationNotFound  = apperror.NotFound("RES001", "Reservation not found")
	ErrPendingExists        = apperror.Conflict("RES002", "You already have a pending reservation for this book")
	ErrReservationResolved  = apperror.InvalidState("RES003", "Reservation is already resolved")
	ErrReservationForbidden = apperror.Forbidden("RES004", "You can only manage your own reservations")
	ErrExpiryInPast         = apperror.Validation("RES005", "Expiry date must be in the future")
	ErrInvalidStatusFilter  = apperror.Validation("RES006", "Invalid reservation status")
)

// ValidStatus dùng cho ?status= filter
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusCancelled, StatusFulfilled, StatusExpired:
		return true
	}
	return false
}
