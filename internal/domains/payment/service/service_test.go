package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookModel "library-lite/internal/domains/book/model"
	loanModel "library-lite/internal/domains/loan/model"
	"library-lite/internal/domains/payment/model"
	userModel "library-lite/internal/domains/user/model"
	"library-lite/internal/shared"
	"library-lite/internal/testutil/memstore"
)

var paidAt = time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)

type fixture struct {
	store     *memstore.Store
	outbox    *memstore.Outbox
	svc       ServiceInterface
	member    userModel.User
	other     userModel.User
	librarian userModel.User
	book      bookModel.Book
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	author := store.AddAuthor("Italo Calvino")
	f := &fixture{
		store:     store,
		outbox:    &memstore.Outbox{},
		member:    store.AddUser("marco@example.com", "Marco Polo", shared.RoleMember),
		other:     store.AddUser("kublai@example.com", "Kublai Khan", shared.RoleMember),
		librarian: store.AddUser("desk@example.com", "Front Desk", shared.RoleLibrarian),
		book:      store.AddBook("Invisible Cities", "9780156453806", author.ID, 2),
	}
	f.svc = NewPaymentService(Deps{
		Tx:       store,
		Payments: store.Payments(),
		Loans:    store.Loans(),
		Activity: store.ActivityLog(),
		Clock:    shared.NewManualClock(paidAt),
		Notifier: f.outbox,
	})
	return f
}

// returnedLoan dựng loan đã trả với fine đã persist
func (f *fixture) returnedLoan(user userModel.User, fine int64) uuid.UUID {
	borrowed := paidAt.AddDate(0, 0, -30)
	returned := paidAt.AddDate(0, 0, -1)
	id := uuid.New()
	f.store.PutLoan(loanModel.Loan{
		ID:         id,
		UserID:     user.ID,
		BookID:     f.book.ID,
		BorrowDate: borrowed,
		DueDate:    borrowed.AddDate(0, 0, 14),
		ReturnDate: &returned,
		Status:     loanModel.StatusReturned,
		Fine:       decimal.NewFromInt(fine),
	})
	return id
}

func payRequest(user userModel.User, loanID uuid.UUID, amount int64) *model.PayFineRequest {
	return &model.PayFineRequest{
		UserID: user.ID,
		LoanID: loanID,
		Amount: decimal.NewFromInt(amount),
	}
}

func TestPayFineRecordsCompletedPayment(t *testing.T) {
	f := newFixture(t)
	loanID := f.returnedLoan(f.member, 30)

	payment, err := f.svc.PayFine(context.Background(), f.member.Actor(), payRequest(f.member, loanID, 30))
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, payment.Status)
	assert.Equal(t, model.MethodCash, payment.PaymentMethod)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, paidAt, payment.PaymentDate)
	require.NotNil(t, payment.LoanID)
	assert.Equal(t, loanID, *payment.LoanID)

	// transactionId tự sinh là ULID
	require.NotNil(t, payment.TransactionID)
	_, err = ulid.ParseStrict(*payment.TransactionID)
	assert.NoError(t, err)

	assert.Len(t, f.store.PaymentsForLoan(loanID), 1)
	assert.Len(t, f.store.Activity(shared.ActionPayFine), 1)

	receipts := f.outbox.Sent(shared.TemplateFinePaid)
	require.Len(t, receipts, 1)
	assert.Equal(t, f.member.Email, receipts[0].To)
	assert.Equal(t, "30.00", receipts[0].Amount)
	assert.Equal(t, "Invisible Cities", receipts[0].BookTitle)
}

func TestPayFineTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	loanID := f.returnedLoan(f.member, 30)
	ctx := context.Background()

	_, err := f.svc.PayFine(ctx, f.member.Actor(), payRequest(f.member, loanID, 30))
	require.NoError(t, err)

	_, err = f.svc.PayFine(ctx, f.member.Actor(), payRequest(f.member, loanID, 30))
	assert.ErrorIs(t, err, model.ErrAlreadyPaid)
	assert.Len(t, f.store.PaymentsForLoan(loanID), 1)
}

func TestPayFinePartialAmountClosesLoan(t *testing.T) {
	f := newFixture(t)
	loanID := f.returnedLoan(f.member, 30)
	ctx := context.Background()

	payment, err := f.svc.PayFine(ctx, f.member.Actor(), payRequest(f.member, loanID, 10))
	require.NoError(t, err)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(10)))

	_, err = f.svc.PayFine(ctx, f.member.Actor(), payRequest(f.member, loanID, 20))
	assert.ErrorIs(t, err, model.ErrAlreadyPaid)
}

func TestPayFinePreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fined := f.returnedLoan(f.member, 30)
	clean := f.returnedLoan(f.member, 0)

	open := uuid.New()
	f.store.PutLoan(loanModel.Loan{
		ID:         open,
		UserID:     f.member.ID,
		BookID:     f.book.ID,
		BorrowDate: paidAt.AddDate(0, 0, -20),
		DueDate:    paidAt.AddDate(0, 0, -6),
		Status:     loanModel.StatusOverdue,
	})

	tests := []struct {
		name  string
		actor shared.Actor
		req   *model.PayFineRequest
		want  error
	}{
		{"overpayment", f.member.Actor(), payRequest(f.member, fined, 31), model.ErrOverpayment},
		{"no fine", f.member.Actor(), payRequest(f.member, clean, 5), model.ErrNoFine},
		{"open loan has no persisted fine", f.member.Actor(), payRequest(f.member, open, 5), model.ErrNoFine},
		{"paying for someone else", f.other.Actor(), payRequest(f.member, fined, 30), model.ErrPaymentForbidden},
		{"loan belongs to another user", f.other.Actor(), payRequest(f.other, fined, 30), model.ErrPaymentForbidden},
		{"unknown loan", f.member.Actor(), payRequest(f.member, uuid.New(), 30), loanModel.ErrLoanNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PayFine(ctx, tt.actor, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.store.PaymentsForLoan(fined))
	assert.Empty(t, f.outbox.Sent(shared.TemplateFinePaid))
}

func TestPayFineByStaffWithReference(t *testing.T) {
	f := newFixture(t)
	loanID := f.returnedLoan(f.member, 15)

	ref := "  POS-7781  "
	req := payRequest(f.member, loanID, 15)
	req.PaymentMethod = model.MethodCard
	req.TransactionID = &ref

	payment, err := f.svc.PayFine(context.Background(), f.librarian.Actor(), req)
	require.NoError(t, err)
	assert.Equal(t, model.MethodCard, payment.PaymentMethod)
	require.NotNil(t, payment.TransactionID)
	assert.Equal(t, "POS-7781", *payment.TransactionID)
}

func TestPayFineRejectsSubCentAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loanID := f.returnedLoan(f.member, 30)

	req := payRequest(f.member, loanID, 0)
	req.Amount = decimal.RequireFromString("0.001")
	assert.Error(t, req.Validate())

	_, err := f.svc.PayFine(ctx, f.member.Actor(), req)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	assert.Empty(t, f.store.PaymentsForLoan(loanID))

	req.Amount = decimal.RequireFromString("29.999")
	_, err = f.svc.PayFine(ctx, f.member.Actor(), req)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	// Fine vẫn trả được bình thường sau các lần bị từ chối
	payment, err := f.svc.PayFine(ctx, f.member.Actor(), payRequest(f.member, loanID, 30))
	require.NoError(t, err)
	assert.Equal(t, "30.00", payment.Amount.StringFixed(2))
}

func TestPayFineBlankTransactionID(t *testing.T) {
	f := newFixture(t)
	loanID := f.returnedLoan(f.member, 12)

	blank := "   "
	req := payRequest(f.member, loanID, 12)
	req.TransactionID = &blank
	assert.Error(t, req.Validate())

	payment, err := f.svc.PayFine(context.Background(), f.member.Actor(), req)
	require.NoError(t, err)
	require.NotNil(t, payment.TransactionID)
	_, err = ulid.Parse(*payment.TransactionID)
	assert.NoError(t, err)
}

func TestPayFineRollsBackWhenActivityFails(t *testing.T) {
	f := newFixture(t)
	loanID := f.returnedLoan(f.member, 30)
	f.store.FailActivity = errors.New("activity table unavailable")

	_, err := f.svc.PayFine(context.Background(), f.member.Actor(), payRequest(f.member, loanID, 30))
	require.Error(t, err)
	assert.Empty(t, f.store.PaymentsForLoan(loanID))
	assert.Empty(t, f.outbox.Sent(shared.TemplateFinePaid))
}

func TestPaymentReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.returnedLoan(f.member, 30)
	second := f.returnedLoan(f.member, 12)

	p1, err := f.svc.PayFine(ctx, f.member.Actor(), payRequest(f.member, first, 30))
	require.NoError(t, err)
	_, err = f.svc.PayFine(ctx, f.member.Actor(), payRequest(f.member, second, 12))
	require.NoError(t, err)

	history, err := f.svc.UserHistory(ctx, f.member.Actor(), f.member.ID)
	require.NoError(t, err)
	assert.Len(t, history.Payments, 2)
	assert.True(t, history.TotalPaid.Equal(decimal.NewFromInt(42)), "total = %s", history.TotalPaid)

	_, err = f.svc.UserHistory(ctx, f.other.Actor(), f.member.ID)
	assert.ErrorIs(t, err, model.ErrPaymentForbidden)

	got, err := f.svc.GetPayment(ctx, f.librarian.Actor(), p1.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, got.ID)

	_, err = f.svc.GetPayment(ctx, f.other.Actor(), p1.ID)
	assert.ErrorIs(t, err, model.ErrPaymentForbidden)

	_, err = f.svc.GetPayment(ctx, f.member.Actor(), uuid.New())
	assert.ErrorIs(t, err, model.ErrPaymentNotFound)

	list, total, err := f.svc.ListPayments(ctx, model.ListFilter{UserID: &f.member.ID, Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 1)

	_, _, err = f.svc.ListPayments(ctx, model.ListFilter{Status: "void"})
	assert.ErrorIs(t, err, model.ErrInvalidStatusFilter)
}
