package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"library-lite/internal/domains/loan/model"
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

const loanColumns = `
	l.id, l.user_id, l.book_id, l.borrow_date, l.due_date, l.return_date, l.status, l.fine,
	l.created_at, l.updated_at,
	u.email, u.full_name, b.title, b.isbn, a.name
`

const loanJoins = `
	JOIN users u ON u.id = l.user_id
	JOIN books b ON b.id = l.book_id
	JOIN authors a ON a.id = b.author_id
`

const selectLoan = "SELECT " + loanColumns + " FROM loans l " + loanJoins

func scanLoan(row pgx.Row) (*model.Loan, error) {
	var (
		l                                    model.Loan
		email, fullName, title, isbn, author string
	)
	err := row.Scan(
		&l.ID, &l.UserID, &l.BookID, &l.BorrowDate, &l.DueDate, &l.ReturnDate, &l.Status, &l.Fine,
		&l.CreatedAt, &l.UpdatedAt,
		&email, &fullName, &title, &isbn, &author,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrLoanNotFound
		}
		return nil, fmt.Errorf("scan loan: %w", err)
	}
	l.User = &shared.UserRef{ID: l.UserID, Email: email, FullName: fullName}
	l.Book = &shared.BookRef{ID: l.BookID, Title: title, ISBN: isbn, Author: author}
	return &l, nil
}

func collectLoans(rows pgx.Rows) ([]model.Loan, error) {
	defer rows.Close()

	loans := make([]model.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

func (r *postgresRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, l *model.Loan) error {
	err := database.Q(r.pool, tx).QueryRow(ctx, `
		INSERT INTO loans (id, user_id, book_id, borrow_date, due_date, status, fine, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`, l.ID, l.UserID, l.BookID, l.BorrowDate, l.DueDate, l.Status, l.Fine).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		// uq_loans_active_user_book
		if database.IsUniqueViolation(err) {
			return model.ErrActiveLoanExists
		}
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Loan, error) {
	return scanLoan(database.Q(r.pool, tx).QueryRow(ctx, selectLoan+" WHERE l.id = $1 FOR UPDATE OF l", id))
}

func (r *postgresRepository) HasActiveLoanWithTx(ctx context.Context, tx pgx.Tx, userID, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := database.Q(r.pool, tx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE user_id = $1 AND book_id = $2 AND status IN ('borrowed', 'overdue')
		)
	`, userID, bookID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active loan: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) MarkReturnedWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, returnDate time.Time, fine decimal.Decimal) error {
	tag, err := database.Q(r.pool, tx).Exec(ctx, `
		UPDATE loans
		SET status = 'returned', return_date = $2, fine = $3, updated_at = NOW()
		WHERE id = $1 AND status <> 'returned'
	`, id, returnDate, fine)
	if err != nil {
		return fmt.Errorf("mark loan returned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadyReturned
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	return scanLoan(r.pool.QueryRow(ctx, selectLoan+" WHERE l.id = $1", id))
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Loan, int, error) {
	var where utils.WhereBuilder
	if filter.UserID != nil {
		where.Add("l.user_id = ?", *filter.UserID)
	}
	if filter.BookID != nil {
		where.Add("l.book_id = ?", *filter.BookID)
	}
	if filter.Status != "" {
		where.Add("l.status = ?", filter.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM loans l "+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count loans: %w", err)
	}

	column, ok := model.SortColumns[filter.SortBy]
	if !ok {
		column = "l.borrow_date"
	}
	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	query := selectLoan + where.SQL() +
		fmt.Sprintf(" ORDER BY %s %s, l.id LIMIT %s OFFSET %s",
			column, utils.SortOrder(filter.Order), where.Next(limit), where.Next(utils.Offset(page, limit)))

	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("query loans: %w", err)
	}
	loans, err := collectLoans(rows)
	if err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error) {
	rows, err := r.pool.Query(ctx, selectLoan+" WHERE l.user_id = $1 ORDER BY l.borrow_date DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query user loans: %w", err)
	}
	return collectLoans(rows)
}

func (r *postgresRepository) ListOpenDueBefore(ctx context.Context, t time.Time) ([]model.Loan, error) {
	rows, err := r.pool.Query(ctx,
		selectLoan+" WHERE l.status <> 'returned' AND l.due_date < $1 ORDER BY l.due_date", t)
	if err != nil {
		return nil, fmt.Errorf("query overdue loans: %w", err)
	}
	return collectLoans(rows)
}

func (r *postgresRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Loan, error) {
	rows, err := r.pool.Query(ctx,
		selectLoan+" WHERE l.status = 'borrowed' AND l.due_date >= $1 AND l.due_date < $2 ORDER BY l.due_date", from, to)
	if err != nil {
		return nil, fmt.Errorf("query due loans: %w", err)
	}
	return collectLoans(rows)
}

func (r *postgresRepository) MarkOverdue(ctx context.Context, now time.Time) ([]model.Loan, error) {
	rows, err := r.pool.Query(ctx, `
		WITH flipped AS (
			UPDATE loans SET status = 'overdue', updated_at = NOW()
			WHERE status = 'borrowed' AND due_date < $1
			RETURNING *
		)
		SELECT `+loanColumns+` FROM flipped l `+loanJoins+` ORDER BY l.due_date`, now)
	if err != nil {
		return nil, fmt.Errorf("mark overdue loans: %w", err)
	}
	return collectLoans(rows)
}
