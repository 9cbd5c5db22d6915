package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-lite/internal/domains/member/model"
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

const selectMember = `
	SELECT m.id, m.user_id, m.membership_type, m.status, m.start_date, m.expiry_date, m.created_at, m.updated_at,
	       u.email, u.full_name, u.phone
	FROM members m
	JOIN users u ON u.id = m.user_id
`

func scanMember(row pgx.Row) (*model.Member, error) {
	var (
		m               model.Member
		email, fullName string
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.MembershipType, &m.Status, &m.StartDate, &m.ExpiryDate, &m.CreatedAt, &m.UpdatedAt,
		&email, &fullName, &m.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMemberNotFound
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}
	m.User = &shared.UserRef{ID: m.UserID, Email: email, FullName: fullName}
	return &m, nil
}

func (r *postgresRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, m *model.Member) error {
	query := `
		INSERT INTO members (id, user_id, membership_type, status, start_date, expiry_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := database.Q(r.pool, tx).
		QueryRow(ctx, query, m.ID, m.UserID, m.MembershipType, m.Status, m.StartDate, m.ExpiryDate).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrMemberExists
		}
		if database.IsForeignKeyViolation(err) {
			return model.ErrMemberUserMissing
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	return scanMember(r.pool.QueryRow(ctx, selectMember+" WHERE m.id = $1", id))
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Member, error) {
	return scanMember(r.pool.QueryRow(ctx, selectMember+" WHERE m.user_id = $1", userID))
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Member, int, error) {
	var where utils.WhereBuilder
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where.Add("(u.full_name ILIKE ? OR u.email ILIKE ? OR u.phone ILIKE ?)", pattern, pattern, pattern)
	}
	if filter.Status != "" {
		where.Add("m.status = ?", filter.Status)
	}
	if filter.MembershipType != "" {
		where.Add("m.membership_type = ?", filter.MembershipType)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM members m JOIN users u ON u.id = m.user_id " + where.SQL()
	if err := r.pool.QueryRow(ctx, countQuery, where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	query := selectMember + where.SQL() +
		fmt.Sprintf(" ORDER BY m.created_at DESC LIMIT %s OFFSET %s", where.Next(limit), where.Next(utils.Offset(page, limit)))

	members, err := r.query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, m *model.Member) error {
	query := `
		UPDATE members
		SET membership_type = $2, status = $3, expiry_date = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, m.ID, m.MembershipType, m.Status, m.ExpiryDate).Scan(&m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMemberNotFound
	}
	return nil
}

func (r *postgresRepository) CountActiveLoans(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM loans WHERE user_id = $1 AND status IN ('borrowed', 'overdue')`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active loans: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) RecentLoans(ctx context.Context, userID uuid.UUID, limit int) ([]model.LoanSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.book_id, b.title, l.borrow_date, l.due_date, l.return_date, l.status, l.fine
		FROM loans l
		JOIN books b ON b.id = l.book_id
		WHERE l.user_id = $1
		ORDER BY l.borrow_date DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent loans: %w", err)
	}
	defer rows.Close()

	loans := make([]model.LoanSummary, 0)
	for rows.Next() {
		var l model.LoanSummary
		if err := rows.Scan(&l.ID, &l.BookID, &l.BookTitle, &l.BorrowDate, &l.DueDate, &l.ReturnDate, &l.Status, &l.Fine); err != nil {
			return nil, fmt.Errorf("scan recent loan: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func (r *postgresRepository) ListExpiring(ctx context.Context, from, to time.Time) ([]model.Member, error) {
	return r.query(ctx, selectMember+`
		WHERE m.status = 'active' AND m.expiry_date >= $1 AND m.expiry_date < $2
		ORDER BY m.expiry_date`, from, to)
}

func (r *postgresRepository) query(ctx context.Context, query string, args ...any) ([]model.Member, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make([]model.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}
