package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"library-lite/internal/domains/payment/model"
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

// Loan/book join là LEFT JOIN vì loan_id có thể NULL sau khi book bị xoá
const selectPayment = `
	SELECT p.id, p.user_id, p.loan_id, p.amount, p.payment_method, p.status, p.transaction_id,
	       p.payment_date, p.created_at,
	       u.email, u.full_name, b.id, b.title, b.isbn
	FROM payments p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN loans l ON l.id = p.loan_id
	LEFT JOIN books b ON b.id = l.book_id
`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p               model.Payment
		email, fullName string
		bookID          *uuid.UUID
		title, isbn     *string
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.LoanID, &p.Amount, &p.PaymentMethod, &p.Status, &p.TransactionID,
		&p.PaymentDate, &p.CreatedAt,
		&email, &fullName, &bookID, &title, &isbn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	p.User = &shared.UserRef{ID: p.UserID, Email: email, FullName: fullName}
	if bookID != nil && title != nil && isbn != nil {
		p.Book = &shared.BookRef{ID: *bookID, Title: *title, ISBN: *isbn}
	}
	return &p, nil
}

func collectPayments(rows pgx.Rows) ([]model.Payment, error) {
	defer rows.Close()

	payments := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// =====================================================
// TRANSACTION-AWARE METHODS
// =====================================================

func (r *postgresRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	err := database.Q(r.pool, tx).QueryRow(ctx, `
		INSERT INTO payments (id, user_id, loan_id, amount, payment_method, status, transaction_id, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, p.ID, p.UserID, p.LoanID, p.Amount, p.PaymentMethod, p.Status, p.TransactionID, p.PaymentDate).Scan(&p.CreatedAt)
	if err != nil {
		// uq_payments_completed_loan
		if database.IsUniqueViolation(err) {
			return model.ErrAlreadyPaid
		}
		if database.IsCheckViolation(err) {
			return model.ErrPaymentRejected.Wrap(err)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *postgresRepository) HasCompletedForLoanWithTx(ctx context.Context, tx pgx.Tx, loanID uuid.UUID) (bool, error) {
	var exists bool
	err := database.Q(r.pool, tx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM payments WHERE loan_id = $1 AND status = 'completed')
	`, loanID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check completed payment: %w", err)
	}
	return exists, nil
}

// =====================================================
// READ METHODS
// =====================================================

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, selectPayment+" WHERE p.id = $1", id))
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Payment, int, error) {
	var where utils.WhereBuilder
	if filter.UserID != nil {
		where.Add("p.user_id = ?", *filter.UserID)
	}
	if filter.LoanID != nil {
		where.Add("p.loan_id = ?", *filter.LoanID)
	}
	if filter.Status != "" {
		where.Add("p.status = ?", filter.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM payments p "+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	query := selectPayment + where.SQL() +
		fmt.Sprintf(" ORDER BY p.payment_date DESC, p.id LIMIT %s OFFSET %s",
			where.Next(limit), where.Next(utils.Offset(page, limit)))

	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("query payments: %w", err)
	}
	payments, err := collectPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx, selectPayment+" WHERE p.user_id = $1 ORDER BY p.payment_date DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query user payments: %w", err)
	}
	return collectPayments(rows)
}

func (r *postgresRepository) TotalPaidByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments WHERE user_id = $1 AND status = 'completed'
	`, userID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum user payments: %w", err)
	}
	return total, nil
}
