package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-lite/internal/domains/member/model"
)

type Repository interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, member *model.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Member, error)
	List(ctx context.Context, filter model.ListFilter) ([]model.Member, int, error)
	Update(ctx context.Context, member *model.Member) error
	Delete(ctx context.Context, id uuid.UUID) error

	CountActiveLoans(ctx context.Context, userID uuid.UUID) (int, error)
	RecentLoans(ctx context.Context, userID uuid.UUID, limit int) ([]model.LoanSummary, error)
	// ListExpiring trả về active members có expiry_date trong [from, to)
	ListExpiring(ctx context.Context, from, to time.Time) ([]model.Member, error)
}
