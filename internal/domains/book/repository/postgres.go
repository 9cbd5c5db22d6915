package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-lite/internal/domains/book/model"
	"library-lite/internal/shared/utils"
	"library-lite/pkg/database"
)

type postgresBookRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresBookRepository(pool *pgxpool.Pool) BookRepository {
	return &postgresBookRepository{pool: pool}
}

const selectBook = `
	SELECT b.id, b.title, b.isbn, b.author_id, a.name, b.publisher, b.published_year, b.edition,
	       b.language, b.pages, b.genre, b.tags, b.total_copies, b.available_copies,
	       b.cover_url, b.description, b.created_at, b.updated_at
	FROM books b
	JOIN authors a ON a.id = b.author_id
`

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.ISBN, &b.AuthorID, &b.AuthorName, &b.Publisher, &b.PublishedYear, &b.Edition,
		&b.Language, &b.Pages, &b.Genre, &b.Tags, &b.TotalCopies, &b.AvailableCopies,
		&b.CoverURL, &b.Description, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &b, nil
}

// mapWriteError chuyển lỗi constraint của Postgres thành domain errors
func mapWriteError(err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return model.ErrISBNExists
	case database.IsForeignKeyViolation(err):
		return model.ErrAuthorNotFound
	case database.IsCheckViolation(err):
		return model.ErrInvalidAvailability
	default:
		return err
	}
}

func (r *postgresBookRepository) Create(ctx context.Context, b *model.Book) error {
	query := `
		INSERT INTO books (
			id, title, isbn, author_id, publisher, published_year, edition, language, pages,
			genre, tags, total_copies, available_copies, cover_url, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		b.ID, b.Title, b.ISBN, b.AuthorID, b.Publisher, b.PublishedYear, b.Edition, b.Language, b.Pages,
		b.Genre, b.Tags, b.TotalCopies, b.AvailableCopies, b.CoverURL, b.Description,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return mapWriteError(fmt.Errorf("insert book: %w", err))
	}
	return nil
}

func (r *postgresBookRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return scanBook(r.pool.QueryRow(ctx, selectBook+" WHERE b.id = $1", id))
}

func (r *postgresBookRepository) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error) {
	return scanBook(database.Q(r.pool, tx).QueryRow(ctx, selectBook+" WHERE b.id = $1 FOR UPDATE OF b", id))
}

func (r *postgresBookRepository) List(ctx context.Context, filter model.BookFilter) ([]model.Book, int, error) {
	var where utils.WhereBuilder
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where.Add("(b.title ILIKE ? OR b.isbn ILIKE ? OR b.publisher ILIKE ? OR b.description ILIKE ?)",
			pattern, pattern, pattern, pattern)
	}
	if filter.Genre != "" {
		where.Add("? = ANY(b.genre)", filter.Genre)
	}
	if filter.AuthorID != nil {
		where.Add("b.author_id = ?", *filter.AuthorID)
	}
	if filter.Author != "" {
		where.Add("a.name ILIKE ?", "%"+filter.Author+"%")
	}
	if filter.Language != "" {
		where.Add("b.language ILIKE ?", filter.Language)
	}
	if filter.Available {
		where.Add("b.available_copies > 0")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM books b JOIN authors a ON a.id = b.author_id " + where.SQL()
	if err := r.pool.QueryRow(ctx, countQuery, where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	column, ok := model.SortColumns[filter.SortBy]
	if !ok {
		column = "b.created_at"
	}
	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	query := selectBook + where.SQL() +
		fmt.Sprintf(" ORDER BY %s %s, b.id LIMIT %s OFFSET %s",
			column, utils.SortOrder(filter.Order), where.Next(limit), where.Next(utils.Offset(page, limit)))

	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, *b)
	}
	return books, total, rows.Err()
}

func (r *postgresBookRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, b *model.Book) error {
	query := `
		UPDATE books
		SET title = $2, isbn = $3, author_id = $4, publisher = $5, published_year = $6, edition = $7,
		    language = $8, pages = $9, genre = $10, tags = $11, cover_url = $12, description = $13,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING total_copies, available_copies, updated_at
	`
	err := database.Q(r.pool, tx).QueryRow(ctx, query,
		b.ID, b.Title, b.ISBN, b.AuthorID, b.Publisher, b.PublishedYear, b.Edition,
		b.Language, b.Pages, b.Genre, b.Tags, b.CoverURL, b.Description,
	).Scan(&b.TotalCopies, &b.AvailableCopies, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrBookNotFound
	}
	if err != nil {
		return mapWriteError(fmt.Errorf("update book: %w", err))
	}
	return nil
}

func (r *postgresBookRepository) SetCopiesWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, total, available int) error {
	tag, err := database.Q(r.pool, tx).Exec(ctx, `
		UPDATE books SET total_copies = $2, available_copies = $3, updated_at = NOW()
		WHERE id = $1
	`, id, total, available)
	if err != nil {
		return mapWriteError(fmt.Errorf("set copies: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}
	return nil
}

func (r *postgresBookRepository) UpdateCover(ctx context.Context, id uuid.UUID, coverURL string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE books SET cover_url = $2, updated_at = NOW() WHERE id = $1`, id, coverURL)
	if err != nil {
		return fmt.Errorf("update cover: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}
	return nil
}

func (r *postgresBookRepository) DeleteWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	q := database.Q(r.pool, tx)
	tag, err := q.Exec(ctx, `
		DELETE FROM books
		WHERE id = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM loans WHERE book_id = $1 AND status IN ('borrowed', 'overdue')
		  )
	`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check book: %w", err)
	}
	if exists {
		return model.ErrBookHasActiveLoans
	}
	return model.ErrBookNotFound
}

func (r *postgresBookRepository) DecrementAvailableWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := database.Q(r.pool, tx).Exec(ctx, `
		UPDATE books SET available_copies = available_copies - 1, updated_at = NOW()
		WHERE id = $1 AND available_copies > 0
	`, id)
	if err != nil {
		return false, fmt.Errorf("decrement available copies: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *postgresBookRepository) IncrementAvailableWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := database.Q(r.pool, tx).Exec(ctx, `
		UPDATE books SET available_copies = available_copies + 1, updated_at = NOW()
		WHERE id = $1 AND available_copies < total_copies
	`, id)
	if err != nil {
		return false, fmt.Errorf("increment available copies: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *postgresBookRepository) CountActiveLoansWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int, error) {
	var n int
	err := database.Q(r.pool, tx).QueryRow(ctx,
		`SELECT COUNT(*) FROM loans WHERE book_id = $1 AND status IN ('borrowed', 'overdue')`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active loans: %w", err)
	}
	return n, nil
}

func (r *postgresBookRepository) ActiveLoans(ctx context.Context, id uuid.UUID) ([]model.ActiveLoan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.user_id, u.full_name, l.due_date, l.status
		FROM loans l
		JOIN users u ON u.id = l.user_id
		WHERE l.book_id = $1 AND l.status IN ('borrowed', 'overdue')
		ORDER BY l.due_date
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query active loans: %w", err)
	}
	defer rows.Close()

	loans := make([]model.ActiveLoan, 0)
	for rows.Next() {
		var l model.ActiveLoan
		if err := rows.Scan(&l.ID, &l.UserID, &l.UserName, &l.DueDate, &l.Status); err != nil {
			return nil, fmt.Errorf("scan active loan: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
