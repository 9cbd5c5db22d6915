package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-lite/internal/domains/activity/model"
	"library-lite/internal/shared"
	"library-lite/internal/shared/utils"
	"library-lite/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const selectActivity = `
	SELECT a.id, a.user_id, a.action, COALESCE(a.details, ''), a.metadata, a.created_at,
	       u.email, u.full_name
	FROM activity_logs a
	LEFT JOIN users u ON u.id = a.user_id
`

func (r *postgresRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, entry *model.ActivityLog) error {
	if entry.Metadata == nil {
		entry.Metadata = map[string]interface{}{}
	}
	query := `
		INSERT INTO activity_logs (id, user_id, action, details, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	err := database.Q(r.pool, tx).
		QueryRow(ctx, query, entry.ID, entry.UserID, entry.Action, entry.Details, entry.Metadata).
		Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListFilter) ([]model.ActivityLog, int, error) {
	var where utils.WhereBuilder
	if filter.UserID != nil {
		where.Add("a.user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		where.Add("a.action = ?", filter.Action)
	}
	if filter.From != nil {
		where.Add("a.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		where.Add("a.created_at <= ?", *filter.To)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM activity_logs a " + where.SQL()
	if err := r.pool.QueryRow(ctx, countQuery, where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	query := selectActivity + where.SQL() +
		fmt.Sprintf(" ORDER BY a.created_at DESC LIMIT %s OFFSET %s", where.Next(limit), where.Next(utils.Offset(page, limit)))

	logs, err := r.query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *postgresRepository) Recent(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	return r.query(ctx, selectActivity+" ORDER BY a.created_at DESC LIMIT $1", limit)
}

func (r *postgresRepository) query(ctx context.Context, query string, args ...any) ([]model.ActivityLog, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	logs := make([]model.ActivityLog, 0)
	for rows.Next() {
		var (
			entry                 model.ActivityLog
			refEmail, refFullName *string
		)
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Action, &entry.Details, &entry.Metadata, &entry.CreatedAt,
			&refEmail, &refFullName,
		); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		if entry.UserID != nil && refEmail != nil {
			entry.User = &shared.UserRef{ID: *entry.UserID, Email: *refEmail, FullName: deref(refFullName)}
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
