package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-lite/internal/domains/reservation/model"
)

type Repository interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, reservation *model.Reservation) error
	HasPendingWithTx(ctx context.Context, tx pgx.Tx, userID, bookID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Reservation, error)
	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error
	ListByUser(ctx context.Context, userID uuid.UUID, status string) ([]model.Reservation, error)

	// FulfillPendingWithTx chuyển reservation pending của (user, book) sang fulfilled
	FulfillPendingWithTx(ctx context.Context, tx pgx.Tx, userID, bookID uuid.UUID) (bool, error)
	// OldestPendingForBook trả về nil nếu không có reservation pending
	OldestPendingForBook(ctx context.Context, bookID uuid.UUID) (*model.Reservation, error)
	// ExpirePending chuyển các reservation pending có expires_at < now sang expired
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}
