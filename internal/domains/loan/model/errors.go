package model

import "library-lite/internal/shared/apperror"

var (
	ErrLoanNotFound        = apperror.NotFound("LOAN001", "Loan not found")
	ErrNoCopiesAvailable   = apperror.Conflict("LOAN002", "No copies available")
	ErrActiveLoanExists    = apperror.Conflict("LOAN003", "User already has an active loan for this book")
	ErrAlreadyReturned     = apperror.InvalidState("LOAN004", "Book already returned")
	ErrLoanForbidden       = apperror.Forbidden("LOAN005", "You can only manage your own loans")
	ErrDueDateInPast       = apperror.Validation("LOAN006", "Due date must be in the future")
	ErrInvalidStatusFilter = apperror.Validation("LOAN007", "Invalid loan status")
)
