package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	activityModel "library-lite/internal/domains/activity/model"
	activityRepo "library-lite/internal/domains/activity/repository"
	paymentModel "library-lite/internal/domains/payment/model"
	paymentRepo "library-lite/internal/domains/payment/repository"
	"library-lite/internal/shared"
)

// =====================================================
// PAYMENTS
// =====================================================

type payments struct{ *Store }

func (s *Store) Payments() paymentRepo.Repository { return payments{s} }

func (r payments) decorate(p paymentModel.Payment) paymentModel.Payment {
	if u, ok := r.users[p.UserID]; ok {
		p.User = &shared.UserRef{ID: u.ID, Email: u.Email, FullName: u.FullName}
	}
	if p.LoanID != nil {
		if l, ok := r.loans[*p.LoanID]; ok {
			if b, ok := r.books[l.BookID]; ok {
				p.Book = &shared.BookRef{ID: b.ID, Title: b.Title, ISBN: b.ISBN}
			}
		}
	}
	return p
}

func (r payments) hasCompleted(loanID uuid.UUID) bool {
	for _, p := range r.payments {
		if p.LoanID != nil && *p.LoanID == loanID && p.Status == paymentModel.StatusCompleted {
			return true
		}
	}
	return false
}

func (r payments) CreateWithTx(ctx context.Context, tx pgx.Tx, p *paymentModel.Payment) error {
	defer r.lock(tx)()
	if !p.Amount.IsPositive() || !p.Amount.Equal(p.Amount.Round(2)) {
		return paymentModel.ErrPaymentRejected
	}
	if p.LoanID != nil && p.Status == paymentModel.StatusCompleted && r.hasCompleted(*p.LoanID) {
		return paymentModel.ErrAlreadyPaid
	}
	p.CreatedAt = now()
	stored := *p
	stored.User, stored.Book = nil, nil
	r.payments[p.ID] = stored
	return nil
}

func (r payments) HasCompletedForLoanWithTx(ctx context.Context, tx pgx.Tx, loanID uuid.UUID) (bool, error) {
	defer r.lock(tx)()
	return r.hasCompleted(loanID), nil
}

func (r payments) GetByID(ctx context.Context, id uuid.UUID) (*paymentModel.Payment, error) {
	defer r.lock(nil)()
	p, ok := r.payments[id]
	if !ok {
		return nil, paymentModel.ErrPaymentNotFound
	}
	p = r.decorate(p)
	return &p, nil
}

func (r payments) filter(keep func(paymentModel.Payment) bool) []paymentModel.Payment {
	out := make([]paymentModel.Payment, 0)
	for _, p := range r.payments {
		if keep(p) {
			out = append(out, r.decorate(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	return out
}

func (r payments) List(ctx context.Context, f paymentModel.ListFilter) ([]paymentModel.Payment, int, error) {
	defer r.lock(nil)()
	out := r.filter(func(p paymentModel.Payment) bool {
		if f.UserID != nil && p.UserID != *f.UserID {
			return false
		}
		if f.LoanID != nil && (p.LoanID == nil || *p.LoanID != *f.LoanID) {
			return false
		}
		return f.Status == "" || p.Status == f.Status
	})
	return paginate(out, f.Page, f.Limit), len(out), nil
}

func (r payments) ListByUser(ctx context.Context, userID uuid.UUID) ([]paymentModel.Payment, error) {
	defer r.lock(nil)()
	return r.filter(func(p paymentModel.Payment) bool { return p.UserID == userID }), nil
}

func (r payments) TotalPaidByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	defer r.lock(nil)()
	total := decimal.Zero
	for _, p := range r.payments {
		if p.UserID == userID && p.Status == paymentModel.StatusCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// =====================================================
// ACTIVITY
// =====================================================

type activity struct{ *Store }

func (s *Store) ActivityLog() activityRepo.Repository { return activity{s} }

func (r activity) CreateWithTx(ctx context.Context, tx pgx.Tx, entry *activityModel.ActivityLog) error {
	defer r.lock(tx)()
	if r.FailActivity != nil {
		return r.FailActivity
	}
	entry.CreatedAt = now()
	r.Store.activity = append(r.Store.activity, *entry)
	return nil
}

func (r activity) List(ctx context.Context, f activityModel.ListFilter) ([]activityModel.ActivityLog, int, error) {
	defer r.lock(nil)()
	out := make([]activityModel.ActivityLog, 0)
	for i := len(r.Store.activity) - 1; i >= 0; i-- {
		e := r.Store.activity[i]
		if f.UserID != nil && (e.UserID == nil || *e.UserID != *f.UserID) {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.From != nil && e.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, e)
	}
	return paginate(out, f.Page, f.Limit), len(out), nil
}

func (r activity) Recent(ctx context.Context, limit int) ([]activityModel.ActivityLog, error) {
	defer r.lock(nil)()
	out := make([]activityModel.ActivityLog, 0, limit)
	for i := len(r.Store.activity) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.Store.activity[i])
	}
	return out, nil
}
