package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-lite/internal/domains/reservation/model"
	"library-lite/internal/shared"
	"library-lite/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const selectReservation = `
	SELECT r.id, r.user_id, r.book_id, r.status, r.reserved_at, r.expires_at, r.updated_at,
	       u.email, u.full_name, b.title, b.isbn
	FROM reservations r
	JOIN users u ON u.id = r.user_id
	JOIN books b ON b.id = r.book_id
`

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var (
		res                          model.Reservation
		email, fullName, title, isbn string
	)
	err := row.Scan(
		&res.ID, &res.UserID, &res.BookID, &res.Status, &res.ReservedAt, &res.ExpiresAt, &res.UpdatedAt,
		&email, &fullName, &title, &isbn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrReservationNotFound
		}
		return nil, fmt.Errorf("scan reservation: %w", err)
	}
	res.User = &shared.UserRef{ID: res.UserID, Email: email, FullName: fullName}
	res.Book = &shared.BookRef{ID: res.BookID, Title: title, ISBN: isbn}
	return &res, nil
}

func (r *postgresRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, res *model.Reservation) error {
	err := database.Q(r.pool, tx).QueryRow(ctx, `
		INSERT INTO reservations (id, user_id, book_id, status, reserved_at, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING updated_at
	`, res.ID, res.UserID, res.BookID, res.Status, res.ReservedAt, res.ExpiresAt).Scan(&res.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrPendingExists
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *postgresRepository) HasPendingWithTx(ctx context.Context, tx pgx.Tx, userID, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := database.Q(r.pool, tx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservations WHERE user_id = $1 AND book_id = $2 AND status = 'pending'
		)
	`, userID, bookID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending reservation: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	return scanReservation(r.pool.QueryRow(ctx, selectReservation+" WHERE r.id = $1", id))
}

func (r *postgresRepository) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Reservation, error) {
	return scanReservation(database.Q(r.pool, tx).QueryRow(ctx, selectReservation+" WHERE r.id = $1 FOR UPDATE OF r", id))
}

func (r *postgresRepository) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	tag, err := database.Q(r.pool, tx).Exec(ctx,
		`UPDATE reservations SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReservationNotFound
	}
	return nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, status string) ([]model.Reservation, error) {
	query := selectReservation + " WHERE r.user_id = $1"
	args := []any{userID}
	if status != "" {
		query += " AND r.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY r.reserved_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

func (r *postgresRepository) FulfillPendingWithTx(ctx context.Context, tx pgx.Tx, userID, bookID uuid.UUID) (bool, error) {
	tag, err := database.Q(r.pool, tx).Exec(ctx, `
		UPDATE reservations SET status = 'fulfilled', updated_at = NOW()
		WHERE user_id = $1 AND book_id = $2 AND status = 'pending'
	`, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("fulfill reservation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepository) OldestPendingForBook(ctx context.Context, bookID uuid.UUID) (*model.Reservation, error) {
	res, err := scanReservation(r.pool.QueryRow(ctx,
		selectReservation+" WHERE r.book_id = $1 AND r.status = 'pending' ORDER BY r.reserved_at LIMIT 1", bookID))
	if errors.Is(err, model.ErrReservationNotFound) {
		return nil, nil
	}
	return res, err
}

func (r *postgresRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reservations SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND expires_at < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	return tag.RowsAffected(), nil
}
