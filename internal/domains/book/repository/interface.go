package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-lite/internal/domains/book/model"
)

// =====================================================
// BOOK REPOSITORY INTERFACE
// =====================================================
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	// GetByIDForUpdateWithTx lock row của book cho tới khi tx kết thúc
	GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context, filter model.BookFilter) ([]model.Book, int, error)
	// UpdateWithTx ghi metadata của book, không đụng tới copy counts
	UpdateWithTx(ctx context.Context, tx pgx.Tx, book *model.Book) error
	UpdateCover(ctx context.Context, id uuid.UUID, coverURL string) error
	// DeleteWithTx trả ErrBookHasActiveLoans nếu còn loan chưa trả
	DeleteWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// Copy counts. false nghĩa là guard không cho phép (hết bản / đã đầy)
	DecrementAvailableWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	IncrementAvailableWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	SetCopiesWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, total, available int) error

	CountActiveLoansWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int, error)
	ActiveLoans(ctx context.Context, id uuid.UUID) ([]model.ActiveLoan, error)
}

// =====================================================
// AUTHOR REPOSITORY INTERFACE
// =====================================================
type AuthorRepository interface {
	Create(ctx context.Context, author *model.Author) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Author, error)
	List(ctx context.Context, filter model.AuthorFilter) ([]model.Author, int, error)
}
