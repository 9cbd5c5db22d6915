package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"library-lite/internal/shared/utils"
)

// BorrowRequest - POST /loans/borrow. userId bỏ trống = chính actor.
type BorrowRequest struct {
	UserID  *uuid.UUID `json:"userId"`
	BookID  uuid.UUID  `json:"bookId"`
	DueDate *time.Time `json:"dueDate"`
}

func (r *BorrowRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.When(r.UserID != nil, validation.By(utils.RequiredUUID))),
		validation.Field(&r.BookID, validation.By(utils.RequiredUUID)),
	)
}

// ReturnRequest - POST /loans/return
type ReturnRequest struct {
	LoanID uuid.UUID `json:"loanId"`
}

func (r *ReturnRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.LoanID, validation.By(utils.RequiredUUID)),
	)
}
