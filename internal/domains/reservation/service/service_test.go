package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookModel "library-lite/internal/domains/book/model"
	"library-lite/internal/domains/reservation/model"
	userModel "library-lite/internal/domains/user/model"
	"library-lite/internal/shared"
	"library-lite/internal/shared/apperror"
	"library-lite/internal/testutil/memstore"
)

var start = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

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

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	author := store.AddAuthor("Octavia Butler")
	f := &fixture{
		store:     store,
		clock:     shared.NewManualClock(start),
		outbox:    &memstore.Outbox{},
		member:    store.AddUser("lauren@example.com", "Lauren Olamina", shared.RoleMember),
		other:     store.AddUser("bankole@example.com", "Bankole", shared.RoleMember),
		librarian: store.AddUser("desk@example.com", "Front Desk", shared.RoleLibrarian),
		book:      store.AddBook("Parable of the Sower", "9781538732182", author.ID, 1),
	}
	f.svc = NewReservationService(Deps{
		Tx:           store,
		Reservations: store.Reservations(),
		Books:        store.Books(),
		Users:        store.Users(),
		Activity:     store.ActivityLog(),
		Clock:        f.clock,
		Notifier:     f.outbox,
		HoldDays:     7,
	})
	return f
}

func (f *fixture) reserve(t *testing.T, user userModel.User) *model.Reservation {
	t.Helper()
	res, err := f.svc.Reserve(context.Background(), user.Actor(), &model.ReserveRequest{BookID: f.book.ID})
	require.NoError(t, err)
	return res
}

func TestReserveCreatesPending(t *testing.T) {
	f := newFixture(t)

	res := f.reserve(t, f.member)

	assert.Equal(t, model.StatusPending, res.Status)
	assert.Equal(t, start, res.ReservedAt)
	assert.Equal(t, start.AddDate(0, 0, 7), res.ExpiresAt)
	require.NotNil(t, res.Book)
	assert.Equal(t, "Parable of the Sower", res.Book.Title)

	// Reservation không đổi availability
	assert.Equal(t, 1, f.store.Book(f.book.ID).AvailableCopies)
	assert.Len(t, f.store.Activity(shared.ActionReserveBook), 1)

	sent := f.outbox.Sent(shared.TemplateBookReserved)
	require.Len(t, sent, 1)
	assert.Equal(t, f.member.Email, sent[0].To)
}

func TestReserveTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	f.reserve(t, f.member)

	_, err := f.svc.Reserve(context.Background(), f.member.Actor(), &model.ReserveRequest{BookID: f.book.ID})
	assert.ErrorIs(t, err, model.ErrPendingExists)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// Người khác vẫn đặt được
	f.reserve(t, f.other)
}

func TestReserveAfterCancelIsAllowed(t *testing.T) {
	f := newFixture(t)
	res := f.reserve(t, f.member)

	_, err := f.svc.Cancel(context.Background(), f.member.Actor(), res.ID)
	require.NoError(t, err)

	again := f.reserve(t, f.member)
	assert.NotEqual(t, res.ID, again.ID)
}

func TestReserveValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Reserve(ctx, f.member.Actor(), &model.ReserveRequest{UserID: &f.other.ID, BookID: f.book.ID})
	assert.ErrorIs(t, err, model.ErrReservationForbidden)

	past := start.Add(-time.Minute)
	_, err = f.svc.Reserve(ctx, f.member.Actor(), &model.ReserveRequest{BookID: f.book.ID, ExpiryDate: &past})
	assert.ErrorIs(t, err, model.ErrExpiryInPast)

	_, err = f.svc.Reserve(ctx, f.member.Actor(), &model.ReserveRequest{BookID: uuid.New()})
	assert.ErrorIs(t, err, bookModel.ErrBookNotFound)

	expiry := start.AddDate(0, 0, 2)
	res, err := f.svc.Reserve(ctx, f.librarian.Actor(), &model.ReserveRequest{UserID: &f.other.ID, BookID: f.book.ID, ExpiryDate: &expiry})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, res.UserID)
	assert.Equal(t, expiry, res.ExpiresAt)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	res := f.reserve(t, f.member)
	ctx := context.Background()

	first, err := f.svc.Cancel(ctx, f.member.Actor(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, first.Status)

	second, err := f.svc.Cancel(ctx, f.member.Actor(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, second.Status)

	assert.Equal(t, model.StatusCancelled, f.store.Reservation(res.ID).Status)
	assert.Len(t, f.store.Activity(shared.ActionCancelReservation), 1)
}

func TestCancelResolvedReservationFails(t *testing.T) {
	f := newFixture(t)
	for _, status := range []string{model.StatusFulfilled, model.StatusExpired} {
		t.Run(status, func(t *testing.T) {
			id := uuid.New()
			f.store.PutReservation(model.Reservation{
				ID:         id,
				UserID:     f.member.ID,
				BookID:     f.book.ID,
				Status:     status,
				ReservedAt: start.AddDate(0, 0, -10),
				ExpiresAt:  start.AddDate(0, 0, -3),
			})

			_, err := f.svc.Cancel(context.Background(), f.member.Actor(), id)
			assert.ErrorIs(t, err, model.ErrReservationResolved)
			assert.Equal(t, status, f.store.Reservation(id).Status)
		})
	}
}

func TestCancelActorRules(t *testing.T) {
	f := newFixture(t)
	res := f.reserve(t, f.member)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, f.other.Actor(), res.ID)
	assert.ErrorIs(t, err, model.ErrReservationForbidden)

	_, err = f.svc.Cancel(ctx, f.librarian.Actor(), res.ID)
	assert.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.librarian.Actor(), uuid.New())
	assert.ErrorIs(t, err, model.ErrReservationNotFound)
}

func TestListByUserFiltersStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.reserve(t, f.member)
	_, err := f.svc.Cancel(ctx, f.member.Actor(), res.ID)
	require.NoError(t, err)
	f.reserve(t, f.member)

	all, err := f.svc.ListByUser(ctx, f.member.Actor(), f.member.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := f.svc.ListByUser(ctx, f.member.Actor(), f.member.ID, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, res.ID, pending[0].ID)

	_, err = f.svc.ListByUser(ctx, f.member.Actor(), f.member.ID, "lost")
	assert.ErrorIs(t, err, model.ErrInvalidStatusFilter)

	_, err = f.svc.ListByUser(ctx, f.other.Actor(), f.member.ID, "")
	assert.ErrorIs(t, err, model.ErrReservationForbidden)
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.reserve(t, f.member)

	n, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(8 * 24 * time.Hour)
	n, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, model.StatusExpired, f.store.Reservation(res.ID).Status)

	// Đã expired thì có thể đặt lại
	f.reserve(t, f.member)
}
