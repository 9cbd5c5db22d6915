package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	loanModel "library-lite/internal/domains/loan/model"
	loanRepo "library-lite/internal/domains/loan/repository"
	"library-lite/internal/shared"
)

type loans struct{ *Store }

func (s *Store) Loans() loanRepo.Repository { return loans{s} }

func (r loans) decorate(l loanModel.Loan) loanModel.Loan {
	if u, ok := r.users[l.UserID]; ok {
		l.User = &shared.UserRef{ID: u.ID, Email: u.Email, FullName: u.FullName}
	}
	if b, ok := r.books[l.BookID]; ok {
		l.Book = &shared.BookRef{ID: b.ID, Title: b.Title, ISBN: b.ISBN, Author: b.AuthorName}
	}
	return l
}

func (r loans) collect(keep func(loanModel.Loan) bool, less func(a, b loanModel.Loan) bool) []loanModel.Loan {
	out := make([]loanModel.Loan, 0)
	for _, l := range r.loans {
		if keep(l) {
			out = append(out, r.decorate(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byBorrowDateDesc(a, b loanModel.Loan) bool { return a.BorrowDate.After(b.BorrowDate) }

func byDueDate(a, b loanModel.Loan) bool { return a.DueDate.Before(b.DueDate) }

func (r loans) CreateWithTx(ctx context.Context, tx pgx.Tx, l *loanModel.Loan) error {
	defer r.lock(tx)()

	for _, existing := range r.loans {
		if existing.UserID == l.UserID && existing.BookID == l.BookID && existing.IsOpen() {
			return loanModel.ErrActiveLoanExists
		}
	}
	l.CreatedAt, l.UpdatedAt = now(), now()
	stored := *l
	stored.User, stored.Book = nil, nil
	r.loans[l.ID] = stored
	return nil
}

func (r loans) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*loanModel.Loan, error) {
	defer r.lock(tx)()
	return r.get(id)
}

func (r loans) GetByID(ctx context.Context, id uuid.UUID) (*loanModel.Loan, error) {
	defer r.lock(nil)()
	return r.get(id)
}

func (r loans) get(id uuid.UUID) (*loanModel.Loan, error) {
	l, ok := r.loans[id]
	if !ok {
		return nil, loanModel.ErrLoanNotFound
	}
	l = r.decorate(l)
	return &l, nil
}

func (r loans) HasActiveLoanWithTx(ctx context.Context, tx pgx.Tx, userID, bookID uuid.UUID) (bool, error) {
	defer r.lock(tx)()
	for _, l := range r.loans {
		if l.UserID == userID && l.BookID == bookID && l.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (r loans) MarkReturnedWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, returnDate time.Time, fine decimal.Decimal) error {
	defer r.lock(tx)()
	l, ok := r.loans[id]
	if !ok {
		return loanModel.ErrLoanNotFound
	}
	if !l.IsOpen() {
		return loanModel.ErrAlreadyReturned
	}
	l.Status = loanModel.StatusReturned
	l.ReturnDate = &returnDate
	l.Fine = fine
	l.UpdatedAt = now()
	r.loans[id] = l
	return nil
}

func (r loans) List(ctx context.Context, filter loanModel.ListFilter) ([]loanModel.Loan, int, error) {
	defer r.lock(nil)()
	out := r.collect(func(l loanModel.Loan) bool {
		if filter.UserID != nil && l.UserID != *filter.UserID {
			return false
		}
		if filter.BookID != nil && l.BookID != *filter.BookID {
			return false
		}
		return filter.Status == "" || l.Status == filter.Status
	}, byBorrowDateDesc)
	return paginate(out, filter.Page, filter.Limit), len(out), nil
}

func (r loans) ListByUser(ctx context.Context, userID uuid.UUID) ([]loanModel.Loan, error) {
	defer r.lock(nil)()
	return r.collect(func(l loanModel.Loan) bool { return l.UserID == userID }, byBorrowDateDesc), nil
}

func (r loans) ListOpenDueBefore(ctx context.Context, t time.Time) ([]loanModel.Loan, error) {
	defer r.lock(nil)()
	return r.collect(func(l loanModel.Loan) bool {
		return l.IsOpen() && l.DueDate.Before(t)
	}, byDueDate), nil
}

func (r loans) ListDueBetween(ctx context.Context, from, to time.Time) ([]loanModel.Loan, error) {
	defer r.lock(nil)()
	return r.collect(func(l loanModel.Loan) bool {
		return l.Status == loanModel.StatusBorrowed && !l.DueDate.Before(from) && l.DueDate.Before(to)
	}, byDueDate), nil
}

func (r loans) MarkOverdue(ctx context.Context, at time.Time) ([]loanModel.Loan, error) {
	defer r.lock(nil)()
	var flipped []uuid.UUID
	for id, l := range r.loans {
		if l.Status == loanModel.StatusBorrowed && l.DueDate.Before(at) {
			l.Status = loanModel.StatusOverdue
			l.UpdatedAt = now()
			r.loans[id] = l
			flipped = append(flipped, id)
		}
	}
	out := make([]loanModel.Loan, 0, len(flipped))
	for _, id := range flipped {
		out = append(out, r.decorate(r.loans[id]))
	}
	sort.Slice(out, func(i, j int) bool { return byDueDate(out[i], out[j]) })
	return out, nil
}
