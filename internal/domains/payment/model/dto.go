package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-lite/internal/shared/utils"
)

// PayFineRequest - POST /payments/payfine
type PayFineRequest struct {
	UserID        uuid.UUID       `json:"userId"`
	LoanID        uuid.UUID       `json:"loanId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	TransactionID *string         `json:"transactionId"`
}

func (r *PayFineRequest) Validate() error {
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	if r.TransactionID != nil {
		ref := strings.TrimSpace(*r.TransactionID)
		r.TransactionID = &ref
	}

	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.By(utils.RequiredUUID)),
		validation.Field(&r.LoanID, validation.By(utils.RequiredUUID)),
		validation.Field(&r.Amount, validation.By(utils.CentAmount)),
		validation.Field(&r.PaymentMethod, validation.In(MethodCash, MethodCard, MethodOnline)),
		validation.Field(&r.TransactionID, validation.NilOrNotEmpty, validation.Length(1, 100)),
	)
}
