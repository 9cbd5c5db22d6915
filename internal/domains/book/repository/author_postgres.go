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
)

type postgresAuthorRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAuthorRepository(pool *pgxpool.Pool) AuthorRepository {
	return &postgresAuthorRepository{pool: pool}
}

const selectAuthor = `
	SELECT a.id, a.name, a.bio, a.created_at, a.updated_at,
	       (SELECT COUNT(*) FROM books b WHERE b.author_id = a.id)
	FROM authors a
`

func scanAuthor(row pgx.Row) (*model.Author, error) {
	var a model.Author
	if err := row.Scan(&a.ID, &a.Name, &a.Bio, &a.CreatedAt, &a.UpdatedAt, &a.BookCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("scan author: %w", err)
	}
	return &a, nil
}

func (r *postgresAuthorRepository) Create(ctx context.Context, a *model.Author) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO authors (id, name, bio, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`, a.ID, a.Name, a.Bio).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert author: %w", err)
	}
	return nil
}

func (r *postgresAuthorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	return scanAuthor(r.pool.QueryRow(ctx, selectAuthor+" WHERE a.id = $1", id))
}

func (r *postgresAuthorRepository) List(ctx context.Context, filter model.AuthorFilter) ([]model.Author, int, error) {
	var where utils.WhereBuilder
	if filter.Search != "" {
		where.Add("a.name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM authors a "+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count authors: %w", err)
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	query := selectAuthor + where.SQL() +
		fmt.Sprintf(" ORDER BY a.name LIMIT %s OFFSET %s", where.Next(limit), where.Next(utils.Offset(page, limit)))

	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("query authors: %w", err)
	}
	defer rows.Close()

	authors := make([]model.Author, 0)
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, err
		}
		authors = append(authors, *a)
	}
	return authors, total, rows.Err()
}
