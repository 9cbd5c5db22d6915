package utils

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequiredUUID là ozzo rule: uuid.UUID / *uuid.UUID phải khác uuid.Nil.
// Dùng với validation.By vì validation.Required không coi uuid.Nil là rỗng.
func RequiredUUID(value interface{}) error {
	switch v := value.(type) {
	case uuid.UUID:
		if v == uuid.Nil {
			return errors.New("cannot be blank")
		}
	case *uuid.UUID:
		if v == nil || *v == uuid.Nil {
			return errors.New("cannot be blank")
		}
	}
	return nil
}

// CentAmount là ozzo rule cho số tiền: > 0 và tối đa 2 chữ số thập phân
func CentAmount(value interface{}) error {
	if err := PositiveDecimal(value); err != nil {
		return err
	}
	var d decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		d = v
	case *decimal.Decimal:
		d = *v
	default:
		return nil
	}
	if !IsCentPrecision(d) {
		return errors.New("must have at most 2 decimal places")
	}
	return nil
}

// IsCentPrecision báo d không có phần lẻ dưới 0.01
func IsCentPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// PositiveDecimal là ozzo rule cho số tiền > 0
func PositiveDecimal(value interface{}) error {
	switch v := value.(type) {
	case decimal.Decimal:
		if !v.IsPositive() {
			return errors.New("must be greater than 0")
		}
	case *decimal.Decimal:
		if v == nil || !v.IsPositive() {
			return errors.New("must be greater than 0")
		}
	}
	return nil
}
