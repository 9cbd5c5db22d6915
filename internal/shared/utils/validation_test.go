package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCentAmount(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{"30", true},
		{"12.50", true},
		{"0.01", true},
		{"0", false},
		{"-5", false},
		{"0.001", false},
		{"29.999", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := CentAmount(decimal.RequireFromString(tt.amount))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	var missing *decimal.Decimal
	assert.Error(t, CentAmount(missing))
}
