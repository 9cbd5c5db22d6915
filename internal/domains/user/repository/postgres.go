package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-lite/internal/domains/user/model"
	"library-lite/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const userColumns = `id, auth_id, email, full_name, phone, address, role, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.AuthID, &u.Email, &u.FullName, &u.Phone, &u.Address, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *postgresRepository) UpsertByEmailWithTx(ctx context.Context, tx pgx.Tx, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	query := `
		INSERT INTO users (id, auth_id, email, full_name, phone, address, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE
		SET auth_id = EXCLUDED.auth_id,
		    phone = COALESCE(users.phone, EXCLUDED.phone),
		    address = COALESCE(users.address, EXCLUDED.address),
		    updated_at = NOW()
		RETURNING ` + userColumns

	saved, err := scanUser(database.Q(r.pool, tx).QueryRow(ctx, query,
		user.ID, user.AuthID, user.Email, user.FullName, user.Phone, user.Address, user.Role,
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			// auth_id đã gắn với user khác
			return model.ErrEmailTaken.Wrap(err)
		}
		return err
	}
	*user = *saved
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *postgresRepository) GetByAuthID(ctx context.Context, authID string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE auth_id = $1`, authID))
}

func (r *postgresRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET auth_id = $2, full_name = $3, phone = $4, address = $5, role = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, user.ID, user.AuthID, user.FullName, user.Phone, user.Address, user.Role).
		Scan(&user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
