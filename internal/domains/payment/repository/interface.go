package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"library-lite/internal/domains/payment/model"
)

// =====================================================
// PAYMENT REPOSITORY INTERFACE
// =====================================================
type Repository interface {
	// Transaction-aware (pay fine)
	CreateWithTx(ctx context.Context, tx pgx.Tx, payment *model.Payment) error
	HasCompletedForLoanWithTx(ctx context.Context, tx pgx.Tx, loanID uuid.UUID) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	List(ctx context.Context, filter model.ListFilter) ([]model.Payment, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error)
	TotalPaidByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}
