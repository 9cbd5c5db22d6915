package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loanModel "library-lite/internal/domains/loan/model"
	"library-lite/internal/domains/member/model"
	userModel "library-lite/internal/domains/user/model"
	"library-lite/internal/shared"
	"library-lite/internal/testutil/memstore"
)

var today = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memstore.Store
	clock  *shared.ManualClock
	outbox *memstore.Outbox
	svc    ServiceInterface
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	f := &fixture{
		store:  store,
		clock:  shared.NewManualClock(today),
		outbox: &memstore.Outbox{},
	}
	f.svc = NewMemberService(Deps{
		Tx:       store,
		Members:  store.Members(),
		Users:    store.Users(),
		Clock:    f.clock,
		Notifier: f.outbox,
	})
	return f
}

func strPtr(s string) *string { return &s }

func TestCreateMemberDefaults(t *testing.T) {
	f := newFixture(t)
	user := f.store.AddUser("anna@example.com", "Anna Karenina", shared.RoleMember)

	m, err := f.svc.CreateMember(context.Background(), &model.CreateMemberRequest{UserID: user.ID})
	require.NoError(t, err)

	assert.Equal(t, model.TypeBasic, m.MembershipType)
	assert.Equal(t, model.StatusActive, m.Status)
	assert.Equal(t, today, m.StartDate)
	require.NotNil(t, m.ExpiryDate)
	assert.Equal(t, today.AddDate(0, 0, 30), *m.ExpiryDate)
	require.NotNil(t, m.User)
	assert.Equal(t, user.Email, m.User.Email)
}

func TestCreateMemberOverrides(t *testing.T) {
	f := newFixture(t)
	user := f.store.AddUser("levin@example.com", "Konstantin Levin", shared.RoleMember)
	start := today.AddDate(0, 0, -1)
	expiry := today.AddDate(1, 0, 0)

	m, err := f.svc.CreateMember(context.Background(), &model.CreateMemberRequest{
		UserID:         user.ID,
		MembershipType: strPtr(model.TypePremium),
		StartDate:      &start,
		ExpiryDate:     &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TypePremium, m.MembershipType)
	assert.Equal(t, start, m.StartDate)
	assert.Equal(t, expiry, *m.ExpiryDate)
}

func TestCreateMemberRejectsDuplicatesAndUnknownUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.AddUser("vronsky@example.com", "Alexei Vronsky", shared.RoleMember)

	_, err := f.svc.CreateMember(ctx, &model.CreateMemberRequest{UserID: user.ID})
	require.NoError(t, err)

	_, err = f.svc.CreateMember(ctx, &model.CreateMemberRequest{UserID: user.ID})
	assert.ErrorIs(t, err, model.ErrMemberExists)

	_, err = f.svc.CreateMember(ctx, &model.CreateMemberRequest{UserID: uuid.New()})
	assert.ErrorIs(t, err, userModel.ErrUserNotFound)
}

func TestGetMemberVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.store.AddUser("kitty@example.com", "Kitty", shared.RoleMember)
	stranger := f.store.AddUser("oblonsky@example.com", "Stiva", shared.RoleMember)
	admin := f.store.AddUser("admin@example.com", "Admin", shared.RoleAdmin)
	member := f.store.AddMember(owner.ID, today, 30)

	author := f.store.AddAuthor("Leo Tolstoy")
	book := f.store.AddBook("Anna Karenina", "9780143035008", author.ID, 1)
	f.store.PutLoan(loanModel.Loan{
		UserID:     owner.ID,
		BookID:     book.ID,
		BorrowDate: today,
		DueDate:    today.AddDate(0, 0, 14),
		Status:     loanModel.StatusBorrowed,
	})

	got, err := f.svc.GetMember(ctx, owner.Actor(), member.ID)
	require.NoError(t, err)
	require.Len(t, got.RecentLoans, 1)
	assert.Equal(t, "Anna Karenina", got.RecentLoans[0].BookTitle)

	_, err = f.svc.GetMember(ctx, admin.Actor(), member.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetMember(ctx, stranger.Actor(), member.ID)
	assert.ErrorIs(t, err, model.ErrMemberForbidden)

	_, err = f.svc.GetMember(ctx, admin.Actor(), uuid.New())
	assert.ErrorIs(t, err, model.ErrMemberNotFound)
}

func TestUpdateMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.AddUser("dolly@example.com", "Dolly", shared.RoleMember)
	member := f.store.AddMember(user.ID, today, 30)

	expiry := today.AddDate(0, 6, 0)
	updated, err := f.svc.UpdateMember(ctx, member.ID, &model.UpdateMemberRequest{
		Status:     strPtr(model.StatusSuspended),
		ExpiryDate: &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuspended, updated.Status)
	assert.Equal(t, model.TypeBasic, updated.MembershipType)
	assert.Equal(t, expiry, *updated.ExpiryDate)

	before := today.AddDate(0, 0, -1)
	_, err = f.svc.UpdateMember(ctx, member.ID, &model.UpdateMemberRequest{ExpiryDate: &before})
	assert.ErrorIs(t, err, model.ErrExpiryBeforeStart)

	_, err = f.svc.UpdateMember(ctx, uuid.New(), &model.UpdateMemberRequest{Status: strPtr(model.StatusActive)})
	assert.ErrorIs(t, err, model.ErrMemberNotFound)
}

func TestDeleteMemberBlockedByOpenLoans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.AddUser("seryozha@example.com", "Seryozha", shared.RoleMember)
	member := f.store.AddMember(user.ID, today, 30)
	author := f.store.AddAuthor("Leo Tolstoy")
	book := f.store.AddBook("War and Peace", "9781400079988", author.ID, 1)

	loanID := uuid.New()
	f.store.PutLoan(loanModel.Loan{
		ID:         loanID,
		UserID:     user.ID,
		BookID:     book.ID,
		BorrowDate: today,
		DueDate:    today.AddDate(0, 0, 14),
		Status:     loanModel.StatusOverdue,
	})

	err := f.svc.DeleteMember(ctx, member.ID)
	assert.ErrorIs(t, err, model.ErrMemberHasLoans)

	returned := today.AddDate(0, 0, 3)
	f.store.PutLoan(loanModel.Loan{
		ID:         loanID,
		UserID:     user.ID,
		BookID:     book.ID,
		BorrowDate: today,
		DueDate:    today.AddDate(0, 0, 14),
		ReturnDate: &returned,
		Status:     loanModel.StatusReturned,
	})

	require.NoError(t, f.svc.DeleteMember(ctx, member.ID))
	_, err = f.svc.GetMember(ctx, user.Actor(), member.ID)
	assert.ErrorIs(t, err, model.ErrMemberNotFound)
}

func TestSendExpiryReminders(t *testing.T) {
	f := newFixture(t)
	soon := f.store.AddUser("soon@example.com", "Soon", shared.RoleMember)
	later := f.store.AddUser("later@example.com", "Later", shared.RoleMember)

	// hết hạn sau 3 ngày, và sau 60 ngày
	f.store.AddMember(soon.ID, today.AddDate(0, 0, -27), 30)
	f.store.AddMember(later.ID, today, 60)

	n, err := f.svc.SendExpiryReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sent := f.outbox.Sent(shared.TemplateMembershipExpiring)
	require.Len(t, sent, 1)
	assert.Equal(t, soon.Email, sent[0].To)
	assert.Equal(t, 3, sent[0].Days)
}

func TestListMembersPaginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		u := f.store.AddUser(uuid.NewString()+"@example.com", "Reader", shared.RoleMember)
		f.store.AddMember(u.ID, today, 30)
	}

	members, total, err := f.svc.ListMembers(context.Background(), model.ListFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, members, 2)
}
