package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"library-lite/internal/domains/loan/model"
)

// =====================================================
// LOAN REPOSITORY INTERFACE
// =====================================================
type Repository interface {
	// Transactional operations (borrow / return / pay fine)
	CreateWithTx(ctx context.Context, tx pgx.Tx, loan *model.Loan) error
	GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Loan, error)
	HasActiveLoanWithTx(ctx context.Context, tx pgx.Tx, userID, bookID uuid.UUID) (bool, error)
	MarkReturnedWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, returnDate time.Time, fine decimal.Decimal) error

	// Reads
	GetByID(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	List(ctx context.Context, filter model.ListFilter) ([]model.Loan, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error)
	// ListOpenDueBefore: loan chưa trả có due_date < t
	ListOpenDueBefore(ctx context.Context, t time.Time) ([]model.Loan, error)
	// ListDueBetween: loan borrowed có due_date trong [from, to)
	ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Loan, error)

	// MarkOverdue chuyển loan borrowed quá hạn sang overdue, trả về các loan vừa đổi
	MarkOverdue(ctx context.Context, now time.Time) ([]model.Loan, error)
}
