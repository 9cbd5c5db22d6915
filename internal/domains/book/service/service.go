package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"library-lite/internal/domains/book/model"
	"library-lite/internal/domains/book/repository"
	"library-lite/internal/infrastructure/storage"
	"library-lite/pkg/database"
	"library-lite/pkg/logger"
)

type ServiceInterface interface {
	ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, int, error)
	GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error)
	CreateBook(ctx context.Context, req *model.CreateBookRequest) (*model.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, req *model.UpdateBookRequest) (*model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	UploadCover(ctx context.Context, id uuid.UUID, data []byte) (*model.Book, error)

	ListAuthors(ctx context.Context, filter model.AuthorFilter) ([]model.Author, int, error)
	GetAuthor(ctx context.Context, id uuid.UUID) (*model.Author, error)
	CreateAuthor(ctx context.Context, req *model.CreateAuthorRequest) (*model.Author, error)
}

type bookService struct {
	tx        database.TxManager
	books     repository.BookRepository
	authors   repository.AuthorRepository
	storage   storage.ObjectStorage // nil khi MinIO không được cấu hình
	processor *storage.ImageProcessor
}

func NewBookService(
	tx database.TxManager,
	books repository.BookRepository,
	authors repository.AuthorRepository,
	objectStorage storage.ObjectStorage,
	processor *storage.ImageProcessor,
) ServiceInterface {
	if processor == nil {
		processor = storage.NewImageProcessor()
	}
	return &bookService{
		tx:        tx,
		books:     books,
		authors:   authors,
		storage:   objectStorage,
		processor: processor,
	}
}

func (s *bookService) ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, int, error) {
	return s.books.List(ctx, filter)
}

func (s *bookService) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	book.ActiveLoans, err = s.books.ActiveLoans(ctx, id)
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (s *bookService) CreateBook(ctx context.Context, req *model.CreateBookRequest) (*model.Book, error) {
	// Step 1: Author phải tồn tại
	author, err := s.authors.GetByID(ctx, req.AuthorID)
	if err != nil {
		return nil, err
	}

	// Step 2: Build entity, availableCopies = totalCopies
	copies := 1
	if req.TotalCopies != nil {
		copies = *req.TotalCopies
	}
	language := model.DefaultLanguage
	if req.Language != nil && strings.TrimSpace(*req.Language) != "" {
		language = strings.TrimSpace(*req.Language)
	}

	book := &model.Book{
		ID:              uuid.New(),
		Title:           req.Title,
		ISBN:            req.ISBN,
		AuthorID:        author.ID,
		AuthorName:      author.Name,
		Publisher:       req.Publisher,
		PublishedYear:   req.PublishedYear,
		Edition:         req.Edition,
		Language:        language,
		Pages:           req.Pages,
		Genre:           toArray(req.Genre),
		Tags:            toArray(req.Tags),
		TotalCopies:     copies,
		AvailableCopies: copies,
		CoverURL:        req.CoverURL,
		Description:     req.Description,
	}

	// Step 3: Insert (unique isbn được DB enforce)
	if err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// UpdateBook lock row của book trong tx; copy counts chỉ được ghi khi request có
// totalCopies/availableCopies, các edit khác không đụng tới chúng.
func (s *bookService) UpdateBook(ctx context.Context, id uuid.UUID, req *model.UpdateBookRequest) (*model.Book, error) {
	var author *model.Author
	if req.AuthorID != nil {
		a, err := s.authors.GetByID(ctx, *req.AuthorID)
		if err != nil {
			return nil, err
		}
		author = a
	}

	return database.WithTransactionResult(ctx, s.tx, func(tx pgx.Tx) (*model.Book, error) {
		book, err := s.books.GetByIDForUpdateWithTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		if req.TotalCopies != nil || req.AvailableCopies != nil {
			activeLoans, err := s.books.CountActiveLoansWithTx(ctx, tx, id)
			if err != nil {
				return nil, err
			}
			total, available, err := adjustCopies(book, activeLoans, req.TotalCopies, req.AvailableCopies)
			if err != nil {
				return nil, err
			}
			if err := s.books.SetCopiesWithTx(ctx, tx, id, total, available); err != nil {
				return nil, err
			}
		}

		if author != nil {
			book.AuthorID = author.ID
			book.AuthorName = author.Name
		}
		applyUpdate(book, req)

		// UpdateWithTx trả về copy counts hiện tại của row
		if err := s.books.UpdateWithTx(ctx, tx, book); err != nil {
			return nil, err
		}
		return book, nil
	})
}

func applyUpdate(book *model.Book, req *model.UpdateBookRequest) {
	if req.Title != nil {
		book.Title = strings.TrimSpace(*req.Title)
	}
	if req.ISBN != nil {
		book.ISBN = *req.ISBN
	}
	if req.Publisher != nil {
		book.Publisher = req.Publisher
	}
	if req.PublishedYear != nil {
		book.PublishedYear = req.PublishedYear
	}
	if req.Edition != nil {
		book.Edition = req.Edition
	}
	if req.Language != nil && strings.TrimSpace(*req.Language) != "" {
		book.Language = strings.TrimSpace(*req.Language)
	}
	if req.Pages != nil {
		book.Pages = req.Pages
	}
	if req.Genre != nil {
		book.Genre = toArray(req.Genre)
	}
	if req.Tags != nil {
		book.Tags = toArray(req.Tags)
	}
	if req.CoverURL != nil {
		book.CoverURL = req.CoverURL
	}
	if req.Description != nil {
		book.Description = req.Description
	}
}

// adjustCopies tính copy counts mới, giữ nguyên số bản đang cho mượn.
// activeLoans là số loan chưa trả; total không được nhỏ hơn con số này.
func adjustCopies(book *model.Book, activeLoans int, total, available *int) (int, int, error) {
	newTotal := book.TotalCopies
	if total != nil {
		newTotal = *total
	}
	if newTotal < activeLoans {
		return 0, 0, model.ErrCopiesBelowOnLoan
	}

	if available != nil {
		if *available < 0 || *available > newTotal-activeLoans {
			return 0, 0, model.ErrInvalidAvailability
		}
		return newTotal, *available, nil
	}

	newAvailable := newTotal - book.OnLoan()
	if newAvailable < 0 {
		newAvailable = 0
	}
	if newAvailable > newTotal {
		newAvailable = newTotal
	}
	return newTotal, newAvailable, nil
}

// DeleteBook lock book row trước khi đếm loans, borrow đồng thời phải chờ tx này
func (s *bookService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.books.GetByIDForUpdateWithTx(ctx, tx, id); err != nil {
			return err
		}

		activeLoans, err := s.books.CountActiveLoansWithTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if activeLoans > 0 {
			return model.ErrBookHasActiveLoans.WithDetails(map[string]int{"activeLoans": activeLoans})
		}

		return s.books.DeleteWithTx(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	if s.storage != nil {
		if err := s.storage.DeleteByPrefix(ctx, coverPrefix(id)); err != nil {
			logger.Error("Failed to delete cover images of deleted book", err)
		}
	}
	return nil
}

// UploadCover validate ảnh, tạo các variants và lưu URL của variant medium
func (s *bookService) UploadCover(ctx context.Context, id uuid.UUID, data []byte) (*model.Book, error) {
	if s.storage == nil {
		return nil, model.ErrCoverUnavailable
	}

	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.processor.ValidateImage(data); err != nil {
		if errors.Is(err, storage.ErrImageTooLarge) || errors.Is(err, storage.ErrUnsupportedFormat) {
			return nil, model.ErrInvalidCover.WithDetails(err.Error())
		}
		return nil, err
	}

	variants, err := s.processor.ProcessImage(data)
	if err != nil {
		return nil, model.ErrInvalidCover.WithDetails(err.Error())
	}

	// Ảnh cũ bị thay thế hoàn toàn
	if err := s.storage.DeleteByPrefix(ctx, coverPrefix(id)); err != nil {
		logger.Error("Failed to delete previous cover images", err)
	}

	var coverURL string
	for name, content := range variants {
		url, err := s.storage.Upload(ctx, fmt.Sprintf("%s%s.jpg", coverPrefix(id), name), content, "image/jpeg")
		if err != nil {
			return nil, fmt.Errorf("upload cover %s: %w", name, err)
		}
		if name == "medium" {
			coverURL = url
		}
	}

	if err := s.books.UpdateCover(ctx, id, coverURL); err != nil {
		return nil, err
	}
	book.CoverURL = &coverURL

	logger.Info("Book cover uploaded", map[string]interface{}{
		"book_id":  id.String(),
		"variants": len(variants),
	})
	return book, nil
}

func (s *bookService) ListAuthors(ctx context.Context, filter model.AuthorFilter) ([]model.Author, int, error) {
	return s.authors.List(ctx, filter)
}

func (s *bookService) GetAuthor(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	return s.authors.GetByID(ctx, id)
}

func (s *bookService) CreateAuthor(ctx context.Context, req *model.CreateAuthorRequest) (*model.Author, error) {
	author := &model.Author{
		ID:   uuid.New(),
		Name: req.Name,
		Bio:  req.Bio,
	}
	if err := s.authors.Create(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

func coverPrefix(id uuid.UUID) string {
	return "covers/" + id.String() + "/"
}

func toArray(values []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
