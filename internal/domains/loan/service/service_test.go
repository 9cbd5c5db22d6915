package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookModel "library-lite/internal/domains/book/model"
	"library-lite/internal/domains/fine"
	"library-lite/internal/domains/loan/model"
	reservationModel "library-lite/internal/domains/reservation/model"
	userModel "library-lite/internal/domains/user/model"
	"library-lite/internal/shared"
	"library-lite/internal/testutil/memstore"
)

var day0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memstore.Store
	clock     *shared.ManualClock
	outbox    *memstore.Outbox
	svc       ServiceInterface
	member    userModel.User
	other     userModel.User
	librarian userModel.User
	book      bookModel.Book
}

func newFixture(t *testing.T, copies int) *fixture {
	t.Helper()
	store := memstore.New()
	clock := shared.NewManualClock(day0)
	outbox := &memstore.Outbox{}

	author := store.AddAuthor("Ursula K. Le Guin")
	f := &fixture{
		store:     store,
		clock:     clock,
		outbox:    outbox,
		member:    store.AddUser("ged@example.com", "Ged Sparrowhawk", shared.RoleMember),
		other:     store.AddUser("tenar@example.com", "Tenar", shared.RoleMember),
		librarian: store.AddUser("ogion@example.com", "Ogion", shared.RoleLibrarian),
		book:      store.AddBook("A Wizard of Earthsea", "9780553383041", author.ID, copies),
	}
	f.svc = NewLoanService(Deps{
		Tx:           store,
		Loans:        store.Loans(),
		Books:        store.Books(),
		Users:        store.Users(),
		Reservations: store.Reservations(),
		Activity:     store.ActivityLog(),
		Calculator:   fine.NewCalculator(fine.DefaultPolicy(), clock),
		Notifier:     outbox,
		PeriodDays:   14,
		DueSoonDays:  2,
	})
	return f
}

func (f *fixture) borrow(t *testing.T, user userModel.User) *model.Loan {
	t.Helper()
	loan, err := f.svc.Borrow(context.Background(), user.Actor(), &model.BorrowRequest{BookID: f.book.ID})
	require.NoError(t, err)
	return loan
}

func TestBorrowDecrementsAndLogs(t *testing.T) {
	f := newFixture(t, 2)

	loan := f.borrow(t, f.member)

	assert.Equal(t, model.StatusBorrowed, loan.Status)
	assert.Equal(t, f.member.ID, loan.UserID)
	assert.Equal(t, day0.AddDate(0, 0, 14), loan.DueDate)
	assert.Nil(t, loan.ReturnDate)
	assert.True(t, loan.Fine.IsZero())
	require.NotNil(t, loan.Book)
	assert.Equal(t, "A Wizard of Earthsea", loan.Book.Title)

	assert.Equal(t, 1, f.store.Book(f.book.ID).AvailableCopies)
	entries := f.store.Activity(shared.ActionBorrowBook)
	require.Len(t, entries, 1)
	assert.Equal(t, loan.ID, entries[0].Metadata["loanId"])
}

func TestBorrowLastCopyThenConflict(t *testing.T) {
	f := newFixture(t, 1)

	f.borrow(t, f.member)
	assert.Equal(t, 0, f.store.Book(f.book.ID).AvailableCopies)

	_, err := f.svc.Borrow(context.Background(), f.other.Actor(), &model.BorrowRequest{BookID: f.book.ID})
	assert.ErrorIs(t, err, model.ErrNoCopiesAvailable)
	assert.Equal(t, 0, f.store.Book(f.book.ID).AvailableCopies)
	assert.Equal(t, 1, f.store.LoanCount())
}

func TestConcurrentBorrowNeverOversells(t *testing.T) {
	f := newFixture(t, 1)

	const borrowers = 8
	users := make([]userModel.User, borrowers)
	for i := range users {
		users[i] = f.store.AddUser(uuid.NewString()+"@example.com", "Reader", shared.RoleMember)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u userModel.User) {
			defer wg.Done()
			_, err := f.svc.Borrow(context.Background(), u.Actor(), &model.BorrowRequest{BookID: f.book.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, model.ErrNoCopiesAvailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, borrowers-1, conflicts)
	assert.Equal(t, 0, f.store.Book(f.book.ID).AvailableCopies)
}

func TestBorrowRejectsDuplicateActiveLoan(t *testing.T) {
	f := newFixture(t, 3)

	f.borrow(t, f.member)
	_, err := f.svc.Borrow(context.Background(), f.member.Actor(), &model.BorrowRequest{BookID: f.book.ID})
	assert.ErrorIs(t, err, model.ErrActiveLoanExists)
	assert.Equal(t, 2, f.store.Book(f.book.ID).AvailableCopies)
}

func TestBorrowRollsBackWhenActivityFails(t *testing.T) {
	f := newFixture(t, 1)
	f.store.FailActivity = errors.New("activity table unavailable")

	_, err := f.svc.Borrow(context.Background(), f.member.Actor(), &model.BorrowRequest{BookID: f.book.ID})
	require.Error(t, err)

	assert.Equal(t, 1, f.store.Book(f.book.ID).AvailableCopies)
	assert.Equal(t, 0, f.store.LoanCount())
}

func TestBorrowActorRules(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	_, err := f.svc.Borrow(ctx, f.member.Actor(), &model.BorrowRequest{UserID: &f.other.ID, BookID: f.book.ID})
	assert.ErrorIs(t, err, model.ErrLoanForbidden)

	loan, err := f.svc.Borrow(ctx, f.librarian.Actor(), &model.BorrowRequest{UserID: &f.other.ID, BookID: f.book.ID})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, loan.UserID)
}

func TestBorrowValidatesInputs(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	past := day0.Add(-time.Hour)
	_, err := f.svc.Borrow(ctx, f.member.Actor(), &model.BorrowRequest{BookID: f.book.ID, DueDate: &past})
	assert.ErrorIs(t, err, model.ErrDueDateInPast)

	_, err = f.svc.Borrow(ctx, f.member.Actor(), &model.BorrowRequest{BookID: uuid.New()})
	assert.ErrorIs(t, err, bookModel.ErrBookNotFound)

	due := day0.AddDate(0, 0, 3)
	loan, err := f.svc.Borrow(ctx, f.member.Actor(), &model.BorrowRequest{BookID: f.book.ID, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, due, loan.DueDate)
}

func TestBorrowFulfilsOwnPendingReservation(t *testing.T) {
	f := newFixture(t, 1)
	reservationID := uuid.New()
	f.store.PutReservation(reservationModel.Reservation{
		ID:         reservationID,
		UserID:     f.member.ID,
		BookID:     f.book.ID,
		Status:     reservationModel.StatusPending,
		ReservedAt: day0.Add(-time.Hour),
		ExpiresAt:  day0.AddDate(0, 0, 7),
	})

	f.borrow(t, f.member)
	assert.Equal(t, reservationModel.StatusFulfilled, f.store.Reservation(reservationID).Status)
}

func TestReturnLateComputesFine(t *testing.T) {
	f := newFixture(t, 1)
	loan := f.borrow(t, f.member)

	f.clock.Set(day0.AddDate(0, 0, 20))
	result, err := f.svc.Return(context.Background(), f.member.Actor(), &model.ReturnRequest{LoanID: loan.ID})
	require.NoError(t, err)

	assert.True(t, result.Fine.Equal(decimal.NewFromInt(30)), "fine = %s", result.Fine)
	assert.Equal(t, model.StatusReturned, result.Loan.Status)
	require.NotNil(t, result.Loan.ReturnDate)

	stored := f.store.Loan(loan.ID)
	assert.Equal(t, model.StatusReturned, stored.Status)
	assert.True(t, stored.Fine.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 1, f.store.Book(f.book.ID).AvailableCopies)
	assert.Len(t, f.store.Activity(shared.ActionReturnBook), 1)
}

func TestReturnOnTimeHasNoFine(t *testing.T) {
	f := newFixture(t, 1)
	loan := f.borrow(t, f.member)

	f.clock.Set(loan.DueDate)
	result, err := f.svc.Return(context.Background(), f.member.Actor(), &model.ReturnRequest{LoanID: loan.ID})
	require.NoError(t, err)
	assert.True(t, result.Fine.IsZero())
}

func TestReturnTwiceFails(t *testing.T) {
	f := newFixture(t, 1)
	loan := f.borrow(t, f.member)
	ctx := context.Background()

	_, err := f.svc.Return(ctx, f.member.Actor(), &model.ReturnRequest{LoanID: loan.ID})
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, f.member.Actor(), &model.ReturnRequest{LoanID: loan.ID})
	assert.ErrorIs(t, err, model.ErrAlreadyReturned)
	assert.Equal(t, 1, f.store.Book(f.book.ID).AvailableCopies)
}

func TestReturnActorRules(t *testing.T) {
	f := newFixture(t, 1)
	loan := f.borrow(t, f.member)
	ctx := context.Background()

	_, err := f.svc.Return(ctx, f.other.Actor(), &model.ReturnRequest{LoanID: loan.ID})
	assert.ErrorIs(t, err, model.ErrLoanForbidden)

	_, err = f.svc.Return(ctx, f.librarian.Actor(), &model.ReturnRequest{LoanID: loan.ID})
	assert.NoError(t, err)

	_, err = f.svc.Return(ctx, f.librarian.Actor(), &model.ReturnRequest{LoanID: uuid.New()})
	assert.ErrorIs(t, err, model.ErrLoanNotFound)
}

func TestReturnNeverExceedsTotalCopies(t *testing.T) {
	f := newFixture(t, 1)
	loanID := uuid.New()
	// Loan mở nhưng copy count đã đầy (dữ liệu lệch từ trước)
	f.store.PutLoan(model.Loan{
		ID:         loanID,
		UserID:     f.member.ID,
		BookID:     f.book.ID,
		BorrowDate: day0.AddDate(0, 0, -3),
		DueDate:    day0.AddDate(0, 0, 11),
		Status:     model.StatusBorrowed,
	})

	_, err := f.svc.Return(context.Background(), f.member.Actor(), &model.ReturnRequest{LoanID: loanID})
	require.NoError(t, err)

	book := f.store.Book(f.book.ID)
	assert.Equal(t, 1, book.AvailableCopies)
	assert.LessOrEqual(t, book.AvailableCopies, book.TotalCopies)
}

func TestReturnNotifiesOldestReserver(t *testing.T) {
	f := newFixture(t, 1)
	loan := f.borrow(t, f.member)
	late := f.store.AddUser("late@example.com", "Late Reader", shared.RoleMember)

	for i, u := range []userModel.User{late, f.other} {
		f.store.PutReservation(reservationModel.Reservation{
			UserID:     u.ID,
			BookID:     f.book.ID,
			Status:     reservationModel.StatusPending,
			ReservedAt: day0.Add(time.Duration(-i) * time.Hour),
			ExpiresAt:  day0.AddDate(0, 0, 7),
		})
	}

	_, err := f.svc.Return(context.Background(), f.member.Actor(), &model.ReturnRequest{LoanID: loan.ID})
	require.NoError(t, err)

	sent := f.outbox.Sent(shared.TemplateBookAvailable)
	require.Len(t, sent, 1)
	assert.Equal(t, f.other.Email, sent[0].To)
	assert.Equal(t, "A Wizard of Earthsea", sent[0].BookTitle)
}

func TestListOverdueAttachesLiveFine(t *testing.T) {
	f := newFixture(t, 2)
	late := f.borrow(t, f.member)

	due := day0.AddDate(0, 0, 30)
	_, err := f.svc.Borrow(context.Background(), f.other.Actor(), &model.BorrowRequest{BookID: f.book.ID, DueDate: &due})
	require.NoError(t, err)

	f.clock.Set(late.DueDate.Add(3*24*time.Hour + time.Minute))
	loans, err := f.svc.ListOverdue(context.Background())
	require.NoError(t, err)
	require.Len(t, loans, 1)

	assert.Equal(t, late.ID, loans[0].ID)
	require.NotNil(t, loans[0].DaysOverdue)
	assert.Equal(t, 4, *loans[0].DaysOverdue)
	require.NotNil(t, loans[0].CalculatedFine)
	assert.True(t, loans[0].CalculatedFine.Equal(decimal.NewFromInt(20)))

	// Live fine không được persist
	assert.True(t, f.store.Loan(late.ID).Fine.IsZero())
}

func TestGetLoanOwnerOrStaff(t *testing.T) {
	f := newFixture(t, 1)
	loan := f.borrow(t, f.member)
	ctx := context.Background()

	got, err := f.svc.GetLoan(ctx, f.member.Actor(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.ID, got.ID)
	require.NotNil(t, got.CalculatedFine)

	_, err = f.svc.GetLoan(ctx, f.other.Actor(), loan.ID)
	assert.ErrorIs(t, err, model.ErrLoanForbidden)

	_, err = f.svc.ListUserLoans(ctx, f.other.Actor(), f.member.ID)
	assert.ErrorIs(t, err, model.ErrLoanForbidden)

	loans, err := f.svc.ListUserLoans(ctx, f.librarian.Actor(), f.member.ID)
	require.NoError(t, err)
	assert.Len(t, loans, 1)

	_, _, err = f.svc.ListLoans(ctx, model.ListFilter{Status: "lost"})
	assert.ErrorIs(t, err, model.ErrInvalidStatusFilter)
}

func TestSweepOverdueAndReminders(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	loan := f.borrow(t, f.member)

	// 1 ngày trước hạn: nhắc hạn, chưa overdue
	f.clock.Set(loan.DueDate.Add(-24 * time.Hour))
	n, err := f.svc.SendDueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	due := f.outbox.Sent(shared.TemplateBookDue)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Days)

	flipped, err := f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, flipped)

	// 2 ngày sau hạn
	f.clock.Set(loan.DueDate.Add(48 * time.Hour))
	flipped, err = f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)
	assert.Equal(t, model.StatusOverdue, f.store.Loan(loan.ID).Status)

	overdue := f.outbox.Sent(shared.TemplateBookOverdue)
	require.Len(t, overdue, 1)
	assert.Equal(t, 2, overdue[0].Days)
	assert.Equal(t, "10.00", overdue[0].Amount)

	// Sweep lần hai không đổi gì
	flipped, err = f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, flipped)

	// Loan overdue vẫn trả được, vẫn chặn mượn trùng
	_, err = f.svc.Borrow(ctx, f.member.Actor(), &model.BorrowRequest{BookID: f.book.ID})
	assert.ErrorIs(t, err, model.ErrActiveLoanExists)
	result, err := f.svc.Return(ctx, f.member.Actor(), &model.ReturnRequest{LoanID: loan.ID})
	require.NoError(t, err)
	assert.True(t, result.Fine.Equal(decimal.NewFromInt(10)))
}
