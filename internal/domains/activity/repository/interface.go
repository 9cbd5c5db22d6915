package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"library-lite/internal/domains/activity/model"
)

type Repository interface {
	// CreateWithTx ghi entry trong transaction của caller (tx nil = pool)
	CreateWithTx(ctx context.Context, tx pgx.Tx, entry *model.ActivityLog) error
	List(ctx context.Context, filter model.ListFilter) ([]model.ActivityLog, int, error)
	Recent(ctx context.Context, limit int) ([]model.ActivityLog, error)
}
