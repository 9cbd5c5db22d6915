package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"library-lite/internal/domains/report/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) count(ctx context.Context, name, query string, args ...any) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}

func (r *postgresRepository) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, "users", `SELECT COUNT(*) FROM users`)
}

func (r *postgresRepository) CountMembers(ctx context.Context, activeOnly bool) (int, error) {
	if activeOnly {
		return r.count(ctx, "active members", `SELECT COUNT(*) FROM members WHERE status = 'active'`)
	}
	return r.count(ctx, "members", `SELECT COUNT(*) FROM members`)
}

func (r *postgresRepository) CountBooks(ctx context.Context) (int, error) {
	return r.count(ctx, "books", `SELECT COUNT(*) FROM books`)
}

func (r *postgresRepository) CountAuthors(ctx context.Context) (int, error) {
	return r.count(ctx, "authors", `SELECT COUNT(*) FROM authors`)
}

func (r *postgresRepository) SumAvailableCopies(ctx context.Context) (int, error) {
	return r.count(ctx, "available copies", `SELECT COALESCE(SUM(available_copies), 0) FROM books`)
}

func (r *postgresRepository) CountOpenLoans(ctx context.Context) (int, error) {
	return r.count(ctx, "open loans", `SELECT COUNT(*) FROM loans WHERE status <> 'returned'`)
}

// CountOverdueLoans đếm theo due_date, không phụ thuộc sweep đã chạy hay chưa
func (r *postgresRepository) CountOverdueLoans(ctx context.Context, now time.Time) (int, error) {
	return r.count(ctx, "overdue loans",
		`SELECT COUNT(*) FROM loans WHERE status <> 'returned' AND due_date < $1`, now)
}

func (r *postgresRepository) CountPendingReservations(ctx context.Context) (int, error) {
	return r.count(ctx, "pending reservations", `SELECT COUNT(*) FROM reservations WHERE status = 'pending'`)
}

func (r *postgresRepository) PaymentTotals(ctx context.Context) (int, decimal.Decimal, error) {
	var (
		n     int
		total decimal.Decimal
	)
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM payments WHERE status = 'completed'
	`).Scan(&n, &total)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("payment totals: %w", err)
	}
	return n, total, nil
}

func (r *postgresRepository) TopBorrowedBooks(ctx context.Context, limit int) ([]model.TopBook, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.title, a.name, COUNT(l.id) AS borrow_count
		FROM loans l
		JOIN books b ON b.id = l.book_id
		JOIN authors a ON a.id = b.author_id
		GROUP BY b.id, b.title, a.name
		ORDER BY borrow_count DESC, b.title
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top books: %w", err)
	}
	defer rows.Close()

	books := make([]model.TopBook, 0, limit)
	for rows.Next() {
		var b model.TopBook
		if err := rows.Scan(&b.BookID, &b.Title, &b.Author, &b.BorrowCount); err != nil {
			return nil, fmt.Errorf("scan top book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *postgresRepository) GenreDistribution(ctx context.Context, limit int) ([]model.GenreCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.genre, COUNT(*) AS n
		FROM books, UNNEST(genre) AS g(genre)
		GROUP BY g.genre
		ORDER BY n DESC, g.genre
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query genre distribution: %w", err)
	}
	defer rows.Close()

	genres := make([]model.GenreCount, 0, limit)
	for rows.Next() {
		var g model.GenreCount
		if err := rows.Scan(&g.Genre, &g.Count); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (r *postgresRepository) LoanStats(ctx context.Context) (*model.LoanStats, error) {
	stats := &model.LoanStats{ByStatus: map[string]int{
		"borrowed": 0,
		"overdue":  0,
		"returned": 0,
	}}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM loans GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query loan status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan loan status count: %w", err)
		}
		stats.ByStatus[status] = n
		stats.TotalLoans += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(AVG(EXTRACT(EPOCH FROM (return_date - borrow_date)) / 86400)
				FILTER (WHERE return_date IS NOT NULL), 0)::float8,
			COALESCE(SUM(fine), 0)
		FROM loans
	`).Scan(&stats.AverageLoanDuration, &stats.TotalFines)
	if err != nil {
		return nil, fmt.Errorf("query loan averages: %w", err)
	}
	return stats, nil
}

func (r *postgresRepository) SumTotalCopies(ctx context.Context) (int, error) {
	return r.count(ctx, "total copies", `SELECT COALESCE(SUM(total_copies), 0) FROM books`)
}

// distributionColumns whitelist table/cột cho Distribution
var distributionColumns = map[model.Dimension]struct{ table, column string }{
	model.DimUserRole:       {"users", "role"},
	model.DimMemberStatus:   {"members", "status"},
	model.DimMembershipType: {"members", "membership_type"},
	model.DimBookLanguage:   {"books", "language"},
}

func (r *postgresRepository) Distribution(ctx context.Context, dim model.Dimension) ([]model.Bucket, error) {
	src, ok := distributionColumns[dim]
	if !ok {
		return nil, fmt.Errorf("unknown distribution dimension %q", dim)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %[2]s, COUNT(*) AS n FROM %[1]s GROUP BY %[2]s ORDER BY n DESC, %[2]s`,
		src.table, src.column,
	))
	if err != nil {
		return nil, fmt.Errorf("query %s distribution: %w", dim, err)
	}
	defer rows.Close()

	buckets := make([]model.Bucket, 0)
	for rows.Next() {
		var b model.Bucket
		if err := rows.Scan(&b.Value, &b.Count); err != nil {
			return nil, fmt.Errorf("scan %s bucket: %w", dim, err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (r *postgresRepository) TopBorrowers(ctx context.Context, limit int) ([]model.TopBorrower, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.full_name, COUNT(l.id) AS borrow_count
		FROM loans l
		JOIN users u ON u.id = l.user_id
		GROUP BY u.id, u.email, u.full_name
		ORDER BY borrow_count DESC, u.full_name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top borrowers: %w", err)
	}
	defer rows.Close()

	borrowers := make([]model.TopBorrower, 0, limit)
	for rows.Next() {
		var b model.TopBorrower
		if err := rows.Scan(&b.UserID, &b.Email, &b.FullName, &b.BorrowCount); err != nil {
			return nil, fmt.Errorf("scan top borrower: %w", err)
		}
		borrowers = append(borrowers, b)
	}
	return borrowers, rows.Err()
}

func (r *postgresRepository) TopAuthors(ctx context.Context, limit int) ([]model.TopAuthor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.name, a.bio, COUNT(b.id) AS book_count
		FROM authors a
		JOIN books b ON b.author_id = a.id
		GROUP BY a.id, a.name, a.bio
		ORDER BY book_count DESC, a.name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top authors: %w", err)
	}
	defer rows.Close()

	authors := make([]model.TopAuthor, 0, limit)
	for rows.Next() {
		var a model.TopAuthor
		if err := rows.Scan(&a.AuthorID, &a.Name, &a.Bio, &a.BookCount); err != nil {
			return nil, fmt.Errorf("scan top author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

func (r *postgresRepository) LowStockBooks(ctx context.Context, threshold, limit int) ([]model.LowStockBook, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.title, b.isbn, a.name, b.total_copies, b.available_copies
		FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE b.available_copies <= $1
		ORDER BY b.available_copies, b.title
		LIMIT $2
	`, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("query low stock books: %w", err)
	}
	defer rows.Close()

	books := make([]model.LowStockBook, 0)
	for rows.Next() {
		var b model.LowStockBook
		if err := rows.Scan(&b.BookID, &b.Title, &b.ISBN, &b.Author, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return nil, fmt.Errorf("scan low stock book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
