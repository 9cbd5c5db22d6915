package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	bookModel "library-lite/internal/domains/book/model"
	bookRepo "library-lite/internal/domains/book/repository"
)

// =====================================================
// BOOKS
// =====================================================

type books struct{ *Store }

func (s *Store) Books() bookRepo.BookRepository { return books{s} }

func (r books) isbnTaken(isbn string, except uuid.UUID) bool {
	for _, b := range r.books {
		if b.ID != except && b.ISBN == isbn {
			return true
		}
	}
	return false
}

func (r books) Create(ctx context.Context, b *bookModel.Book) error {
	defer r.lock(nil)()

	author, ok := r.authors[b.AuthorID]
	if !ok {
		return bookModel.ErrAuthorNotFound
	}
	if r.isbnTaken(b.ISBN, b.ID) {
		return bookModel.ErrISBNExists
	}
	if b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
		return bookModel.ErrInvalidAvailability
	}
	b.AuthorName = author.Name
	b.CreatedAt, b.UpdatedAt = now(), now()
	r.books[b.ID] = *b
	return nil
}

func (r books) GetByID(ctx context.Context, id uuid.UUID) (*bookModel.Book, error) {
	defer r.lock(nil)()
	return r.get(id)
}

func (r books) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*bookModel.Book, error) {
	defer r.lock(tx)()
	return r.get(id)
}

func (r books) get(id uuid.UUID) (*bookModel.Book, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, bookModel.ErrBookNotFound
	}
	return &b, nil
}

func (r books) List(ctx context.Context, filter bookModel.BookFilter) ([]bookModel.Book, int, error) {
	defer r.lock(nil)()

	search := strings.ToLower(filter.Search)
	out := make([]bookModel.Book, 0)
	for _, b := range r.books {
		if search != "" && !bookMatches(b, search) {
			continue
		}
		if filter.Genre != "" && !slices.Contains(b.Genre, filter.Genre) {
			continue
		}
		if filter.AuthorID != nil && b.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.Author != "" && !strings.Contains(strings.ToLower(b.AuthorName), strings.ToLower(filter.Author)) {
			continue
		}
		if filter.Language != "" && !strings.EqualFold(b.Language, filter.Language) {
			continue
		}
		if filter.Available && b.AvailableCopies <= 0 {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return paginate(out, filter.Page, filter.Limit), len(out), nil
}

func bookMatches(b bookModel.Book, search string) bool {
	fields := []string{b.Title, b.ISBN}
	if b.Publisher != nil {
		fields = append(fields, *b.Publisher)
	}
	if b.Description != nil {
		fields = append(fields, *b.Description)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func (r books) UpdateWithTx(ctx context.Context, tx pgx.Tx, b *bookModel.Book) error {
	defer r.lock(tx)()

	current, ok := r.books[b.ID]
	if !ok {
		return bookModel.ErrBookNotFound
	}
	if _, ok := r.authors[b.AuthorID]; !ok {
		return bookModel.ErrAuthorNotFound
	}
	if r.isbnTaken(b.ISBN, b.ID) {
		return bookModel.ErrISBNExists
	}
	b.TotalCopies, b.AvailableCopies = current.TotalCopies, current.AvailableCopies
	b.CreatedAt, b.UpdatedAt = current.CreatedAt, now()
	r.books[b.ID] = *b
	return nil
}

func (r books) SetCopiesWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, total, available int) error {
	defer r.lock(tx)()

	b, ok := r.books[id]
	if !ok {
		return bookModel.ErrBookNotFound
	}
	if available < 0 || available > total {
		return bookModel.ErrInvalidAvailability
	}
	b.TotalCopies, b.AvailableCopies = total, available
	b.UpdatedAt = now()
	r.books[id] = b
	return nil
}

func (r books) UpdateCover(ctx context.Context, id uuid.UUID, coverURL string) error {
	defer r.lock(nil)()
	b, ok := r.books[id]
	if !ok {
		return bookModel.ErrBookNotFound
	}
	b.CoverURL = &coverURL
	b.UpdatedAt = now()
	r.books[id] = b
	return nil
}

// Delete cascade loans/reservations lịch sử và bỏ liên kết payments, như FK của schema
func (r books) DeleteWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	defer r.lock(tx)()

	if _, ok := r.books[id]; !ok {
		return bookModel.ErrBookNotFound
	}
	for _, l := range r.loans {
		if l.BookID == id && l.IsOpen() {
			return bookModel.ErrBookHasActiveLoans
		}
	}
	for loanID, l := range r.loans {
		if l.BookID != id {
			continue
		}
		for pid, p := range r.payments {
			if p.LoanID != nil && *p.LoanID == loanID {
				p.LoanID = nil
				r.payments[pid] = p
			}
		}
		delete(r.loans, loanID)
	}
	for resID, res := range r.reservations {
		if res.BookID == id {
			delete(r.reservations, resID)
		}
	}
	delete(r.books, id)
	return nil
}

func (r books) DecrementAvailableWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	defer r.lock(tx)()
	b, ok := r.books[id]
	if !ok || b.AvailableCopies <= 0 {
		return false, nil
	}
	b.AvailableCopies--
	r.books[id] = b
	return true, nil
}

func (r books) IncrementAvailableWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	defer r.lock(tx)()
	b, ok := r.books[id]
	if !ok || b.AvailableCopies >= b.TotalCopies {
		return false, nil
	}
	b.AvailableCopies++
	r.books[id] = b
	return true, nil
}

func (r books) CountActiveLoansWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int, error) {
	defer r.lock(tx)()
	n := 0
	for _, l := range r.loans {
		if l.BookID == id && l.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (r books) ActiveLoans(ctx context.Context, id uuid.UUID) ([]bookModel.ActiveLoan, error) {
	defer r.lock(nil)()
	out := make([]bookModel.ActiveLoan, 0)
	for _, l := range r.loans {
		if l.BookID != id || !l.IsOpen() {
			continue
		}
		out = append(out, bookModel.ActiveLoan{
			ID:       l.ID,
			UserID:   l.UserID,
			UserName: r.users[l.UserID].FullName,
			DueDate:  l.DueDate,
			Status:   l.Status,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

// =====================================================
// AUTHORS
// =====================================================

type authors struct{ *Store }

func (s *Store) Authors() bookRepo.AuthorRepository { return authors{s} }

func (r authors) Create(ctx context.Context, a *bookModel.Author) error {
	defer r.lock(nil)()
	a.CreatedAt, a.UpdatedAt = now(), now()
	r.authors[a.ID] = *a
	return nil
}

func (r authors) GetByID(ctx context.Context, id uuid.UUID) (*bookModel.Author, error) {
	defer r.lock(nil)()
	a, ok := r.authors[id]
	if !ok {
		return nil, bookModel.ErrAuthorNotFound
	}
	a.BookCount = r.bookCount(id)
	return &a, nil
}

func (r authors) List(ctx context.Context, filter bookModel.AuthorFilter) ([]bookModel.Author, int, error) {
	defer r.lock(nil)()
	search := strings.ToLower(filter.Search)
	out := make([]bookModel.Author, 0)
	for _, a := range r.authors {
		if search != "" && !strings.Contains(strings.ToLower(a.Name), search) {
			continue
		}
		a.BookCount = r.bookCount(a.ID)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Page, filter.Limit), len(out), nil
}

func (r authors) bookCount(id uuid.UUID) int {
	n := 0
	for _, b := range r.books {
		if b.AuthorID == id {
			n++
		}
	}
	return n
}
