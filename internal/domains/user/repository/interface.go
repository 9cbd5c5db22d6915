package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-lite/internal/domains/user/model"
)

type Repository interface {
	// UpsertByEmailWithTx tạo user hoặc gắn auth_id cho user đã có cùng email.
	// Role của user đã tồn tại không bị thay đổi.
	UpsertByEmailWithTx(ctx context.Context, tx pgx.Tx, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByAuthID(ctx context.Context, authID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}
