package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-lite/internal/domains/book/model"
	"library-lite/internal/domains/book/repository"
	loanModel "library-lite/internal/domains/loan/model"
	paymentModel "library-lite/internal/domains/payment/model"
	"library-lite/internal/shared"
	"library-lite/internal/testutil/memstore"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memObjects) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return "http://covers.local/" + key, nil
}

func (m *memObjects) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.objects, key)
		}
	}
	return nil
}

func (m *memObjects) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}

func intPtr(v int) *int { return &v }

func newService(store *memstore.Store, objects *memObjects) ServiceInterface {
	if objects == nil {
		return NewBookService(store, store.Books(), store.Authors(), nil, nil)
	}
	return NewBookService(store, store.Books(), store.Authors(), objects, nil)
}

func TestCreateBook(t *testing.T) {
	store := memstore.New()
	svc := newService(store, nil)
	ctx := context.Background()
	author := store.AddAuthor("Stanisław Lem")

	req := &model.CreateBookRequest{
		Title:       "  Solaris ",
		ISBN:        "978-0-15-602760-1",
		AuthorID:    author.ID,
		Genre:       []string{"science fiction", " "},
		TotalCopies: intPtr(3),
	}
	require.NoError(t, req.Validate())

	book, err := svc.CreateBook(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Solaris", book.Title)
	assert.Equal(t, "9780156027601", book.ISBN)
	assert.Equal(t, 3, book.TotalCopies)
	assert.Equal(t, 3, book.AvailableCopies)
	assert.Equal(t, model.DefaultLanguage, book.Language)
	assert.Equal(t, []string{"science fiction"}, []string(book.Genre))
	assert.Equal(t, "Stanisław Lem", book.AuthorName)

	dup := &model.CreateBookRequest{Title: "Solaris (reprint)", ISBN: "9780156027601", AuthorID: author.ID}
	_, err = svc.CreateBook(ctx, dup)
	assert.ErrorIs(t, err, model.ErrISBNExists)

	_, err = svc.CreateBook(ctx, &model.CreateBookRequest{Title: "Ghost", ISBN: "1234567890", AuthorID: uuid.New()})
	assert.ErrorIs(t, err, model.ErrAuthorNotFound)
}

func TestAdjustCopies(t *testing.T) {
	// 5 bản, 2 đang cho mượn
	book := &model.Book{TotalCopies: 5, AvailableCopies: 3}

	tests := []struct {
		name          string
		activeLoans   int
		total         *int
		available     *int
		wantTotal     int
		wantAvailable int
		wantErr       error
	}{
		{name: "grow keeps on-loan copies", activeLoans: 2, total: intPtr(8), wantTotal: 8, wantAvailable: 6},
		{name: "shrink to on-loan count", activeLoans: 2, total: intPtr(2), wantTotal: 2, wantAvailable: 0},
		{name: "shrink below on-loan count", activeLoans: 2, total: intPtr(1), wantErr: model.ErrCopiesBelowOnLoan},
		{name: "explicit availability", activeLoans: 2, available: intPtr(1), wantTotal: 5, wantAvailable: 1},
		{name: "availability above free copies", activeLoans: 2, available: intPtr(4), wantErr: model.ErrInvalidAvailability},
		{name: "both fields", activeLoans: 2, total: intPtr(10), available: intPtr(8), wantTotal: 10, wantAvailable: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, available, err := adjustCopies(book, tt.activeLoans, tt.total, tt.available)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantAvailable, available)
			assert.LessOrEqual(t, available, total)
		})
	}
}

func TestUpdateBookRespectsLoans(t *testing.T) {
	store := memstore.New()
	svc := newService(store, nil)
	ctx := context.Background()
	author := store.AddAuthor("Stanisław Lem")
	book := store.AddBook("The Cyberiad", "9780156027595", author.ID, 2)
	reader := store.AddUser("trurl@example.com", "Trurl", shared.RoleMember)

	store.PutLoan(loanModel.Loan{
		UserID:     reader.ID,
		BookID:     book.ID,
		BorrowDate: time.Now().UTC(),
		DueDate:    time.Now().UTC().AddDate(0, 0, 14),
		Status:     loanModel.StatusBorrowed,
	})
	// đồng bộ count với loan đang mở
	_, err := svc.UpdateBook(ctx, book.ID, &model.UpdateBookRequest{AvailableCopies: intPtr(1)})
	require.NoError(t, err)

	_, err = svc.UpdateBook(ctx, book.ID, &model.UpdateBookRequest{TotalCopies: intPtr(0)})
	assert.ErrorIs(t, err, model.ErrCopiesBelowOnLoan)

	title := "The Cyberiad: Fables for the Cybernetic Age"
	updated, err := svc.UpdateBook(ctx, book.ID, &model.UpdateBookRequest{Title: &title, TotalCopies: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, 4, updated.TotalCopies)
	assert.Equal(t, 3, updated.AvailableCopies)

	stored := store.Book(book.ID)
	assert.Equal(t, 3, stored.AvailableCopies)

	got, err := svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, got.ActiveLoans, 1)
}

// borrowAfterRead giả lập một borrow commit ngay sau khi service đọc book
type borrowAfterRead struct {
	repository.BookRepository
	fired bool
}

func (r *borrowAfterRead) afterRead(ctx context.Context, tx pgx.Tx, b *model.Book) {
	if r.fired {
		return
	}
	r.fired = true
	_, _ = r.BookRepository.DecrementAvailableWithTx(ctx, tx, b.ID)
}

func (r *borrowAfterRead) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	b, err := r.BookRepository.GetByID(ctx, id)
	if err == nil {
		r.afterRead(ctx, nil, b)
	}
	return b, err
}

func (r *borrowAfterRead) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error) {
	b, err := r.BookRepository.GetByIDForUpdateWithTx(ctx, tx, id)
	if err == nil {
		r.afterRead(ctx, tx, b)
	}
	return b, err
}

func TestUpdateBookKeepsConcurrentCopyChanges(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	author := store.AddAuthor("Ursula K. Le Guin")
	book := store.AddBook("The Dispossessed", "9780061054884", author.ID, 1)

	books := &borrowAfterRead{BookRepository: store.Books()}
	svc := NewBookService(store, books, store.Authors(), nil, nil)

	title := "The Dispossessed: An Ambiguous Utopia"
	updated, err := svc.UpdateBook(ctx, book.ID, &model.UpdateBookRequest{Title: &title})
	require.NoError(t, err)
	require.True(t, books.fired)

	assert.Equal(t, title, updated.Title)
	assert.Equal(t, 1, updated.TotalCopies)
	assert.Equal(t, 0, updated.AvailableCopies)

	stored := store.Book(book.ID)
	assert.Equal(t, title, stored.Title)
	assert.Equal(t, 1, stored.TotalCopies)
	assert.Equal(t, 0, stored.AvailableCopies)
}

// staleLoanCount trả về count cũ (0) để kiểm tra guard ở câu DELETE
type staleLoanCount struct {
	repository.BookRepository
}

func (staleLoanCount) CountActiveLoansWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int, error) {
	return 0, nil
}

func TestDeleteBookGuardsOpenLoansAtWrite(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	author := store.AddAuthor("Ursula K. Le Guin")
	book := store.AddBook("The Lathe of Heaven", "9781416556961", author.ID, 1)
	reader := store.AddUser("orr@example.com", "George Orr", shared.RoleMember)

	loanID := uuid.New()
	store.PutLoan(loanModel.Loan{
		ID:         loanID,
		UserID:     reader.ID,
		BookID:     book.ID,
		BorrowDate: time.Now().UTC(),
		DueDate:    time.Now().UTC().AddDate(0, 0, 14),
		Status:     loanModel.StatusBorrowed,
	})

	svc := NewBookService(store, staleLoanCount{store.Books()}, store.Authors(), nil, nil)
	err := svc.DeleteBook(ctx, book.ID)
	assert.ErrorIs(t, err, model.ErrBookHasActiveLoans)

	assert.Equal(t, book.ID, store.Book(book.ID).ID)
	assert.Equal(t, loanModel.StatusBorrowed, store.Loan(loanID).Status)
}

func TestDeleteBook(t *testing.T) {
	store := memstore.New()
	objects := &memObjects{}
	svc := newService(store, objects)
	ctx := context.Background()
	author := store.AddAuthor("Stanisław Lem")
	book := store.AddBook("Fiasco", "9780156306300", author.ID, 1)
	reader := store.AddUser("pirx@example.com", "Pirx", shared.RoleMember)

	loanID := uuid.New()
	borrowed := time.Now().UTC().AddDate(0, 0, -20)
	store.PutLoan(loanModel.Loan{
		ID:         loanID,
		UserID:     reader.ID,
		BookID:     book.ID,
		BorrowDate: borrowed,
		DueDate:    borrowed.AddDate(0, 0, 14),
		Status:     loanModel.StatusOverdue,
	})

	err := svc.DeleteBook(ctx, book.ID)
	assert.ErrorIs(t, err, model.ErrBookHasActiveLoans)

	// Trả sách + trả fine, sau đó xoá được; payment vẫn còn nhưng không còn loan
	returned := time.Now().UTC()
	store.PutLoan(loanModel.Loan{
		ID:         loanID,
		UserID:     reader.ID,
		BookID:     book.ID,
		BorrowDate: borrowed,
		DueDate:    borrowed.AddDate(0, 0, 14),
		ReturnDate: &returned,
		Status:     loanModel.StatusReturned,
		Fine:       decimal.NewFromInt(30),
	})
	payment := &paymentModel.Payment{
		ID:            uuid.New(),
		UserID:        reader.ID,
		LoanID:        &loanID,
		Amount:        decimal.NewFromInt(30),
		PaymentMethod: paymentModel.MethodCash,
		Status:        paymentModel.StatusCompleted,
		PaymentDate:   returned,
	}
	require.NoError(t, store.WithTx(ctx, func(tx pgx.Tx) error {
		return store.Payments().CreateWithTx(ctx, tx, payment)
	}))
	_, err = objects.Upload(ctx, coverPrefix(book.ID)+"medium.jpg", []byte{1}, "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, book.ID))

	_, err = svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, model.ErrBookNotFound)
	assert.Equal(t, 0, store.LoanCount())
	assert.Empty(t, store.PaymentsForLoan(loanID))
	assert.Empty(t, objects.keys())

	assert.ErrorIs(t, svc.DeleteBook(ctx, book.ID), model.ErrBookNotFound)
}

func coverPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 300, 450))
	for x := 0; x < 300; x++ {
		img.Set(x, x, color.RGBA{B: 180, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadCover(t *testing.T) {
	store := memstore.New()
	author := store.AddAuthor("Stanisław Lem")
	book := store.AddBook("His Master's Voice", "9780810111714", author.ID, 1)
	ctx := context.Background()

	_, err := newService(store, nil).UploadCover(ctx, book.ID, coverPNG(t))
	assert.ErrorIs(t, err, model.ErrCoverUnavailable)

	objects := &memObjects{}
	svc := newService(store, objects)

	_, err = svc.UploadCover(ctx, book.ID, []byte("definitely not an image"))
	assert.ErrorIs(t, err, model.ErrInvalidCover)

	updated, err := svc.UploadCover(ctx, book.ID, coverPNG(t))
	require.NoError(t, err)
	require.NotNil(t, updated.CoverURL)
	assert.Equal(t, "http://covers.local/"+coverPrefix(book.ID)+"medium.jpg", *updated.CoverURL)
	assert.Len(t, objects.keys(), 3)

	stored := store.Book(book.ID)
	require.NotNil(t, stored.CoverURL)
	assert.Equal(t, *updated.CoverURL, *stored.CoverURL)
}

func TestAuthors(t *testing.T) {
	store := memstore.New()
	svc := newService(store, nil)
	ctx := context.Background()

	req := &model.CreateAuthorRequest{Name: "  Mary Shelley "}
	require.NoError(t, req.Validate())
	author, err := svc.CreateAuthor(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Mary Shelley", author.Name)

	got, err := svc.GetAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.ID)

	authors, total, err := svc.ListAuthors(ctx, model.AuthorFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, authors, 1)

	_, err = svc.GetAuthor(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrAuthorNotFound)
}
