package model

import "library-lite/internal/shared/apperror"

var (
	ErrPaymentNotFound     = apperror.NotFound("PAY001", "Payment not found")
	ErrNoFine              = apperror.InvalidState("PAY002", "Loan has no outstanding fine")
	ErrOverpayment         = apperror.InvalidState("PAY003", "Payment amount exceeds the fine")
	ErrAlreadyPaid         = apperror.InvalidState("PAY004", "Fine already paid")
	ErrPaymentForbidden    = apperror.Forbidden("PAY005", "You can only pay fines for your own loans")
	ErrInvalidStatusFilter = apperror.Validation("PAY006", "Invalid payment status")
	ErrInvalidAmount       = apperror.Validation("PAY007", "Amount must be greater than 0 with at most 2 decimal places")
	ErrPaymentRejected     = apperror.InvalidState("PAY008", "Payment violates a store constraint")
)
