package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-lite/internal/auth"
	memberModel "library-lite/internal/domains/member/model"
	"library-lite/internal/domains/user/model"
	infraCache "library-lite/internal/infrastructure/cache"
	"library-lite/internal/shared"
	"library-lite/internal/testutil/memstore"
)

var signupAt = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (ServiceInterface, *memstore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := infraCache.NewRedisCache(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rc.Close() })

	store := memstore.New()
	provider := auth.NewLocalProvider(rc, "user-service-secret", time.Hour)
	svc := NewUserService(store, store.Users(), store.Members(), provider, shared.NewManualClock(signupAt), 30)
	return svc, store
}

func signup(t *testing.T, svc ServiceInterface, email string) *model.AuthResponse {
	t.Helper()
	req := &model.SignupRequest{Email: email, Password: "secret1", FullName: "Jane Eyre"}
	require.NoError(t, req.Validate())
	resp, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func TestSignupCreatesMemberAndSession(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	resp := signup(t, svc, "Jane@Example.com")
	require.NotNil(t, resp.Session)
	assert.NotEmpty(t, resp.Session.AccessToken)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.Equal(t, shared.RoleMember, resp.User.Role)

	member, err := store.Members().GetByUserID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, memberModel.TypeBasic, member.MembershipType)
	assert.Equal(t, signupAt.AddDate(0, 0, 30), *member.ExpiryDate)

	req := &model.SignupRequest{Email: "jane@example.com", Password: "another", FullName: "Jane"}
	_, err = svc.Signup(ctx, req)
	assert.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestSignupAttachesToExistingUser(t *testing.T) {
	svc, store := newTestService(t)
	existing := store.AddUser("rochester@example.com", "Edward Rochester", shared.RoleMember)

	resp := signup(t, svc, "rochester@example.com")
	assert.Equal(t, existing.ID, resp.User.ID)
	assert.Equal(t, "Edward Rochester", resp.User.FullName)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created := signup(t, svc, "helen@example.com")

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "helen@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, resp.User.ID)

	actor, err := svc.Authenticate(ctx, resp.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, actor.UserID)
	assert.Equal(t, shared.RoleMember, actor.Role)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "helen@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, model.ErrInvalidToken)
	_, err = svc.Authenticate(ctx, "garbage.token.value")
	assert.ErrorIs(t, err, model.ErrInvalidToken)

	require.NoError(t, svc.Logout(ctx, resp.Session.AccessToken))
	_, err = svc.Authenticate(ctx, resp.Session.AccessToken)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestCreateStaffIsRerunnable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := &model.CreateStaffRequest{Email: "desk@example.com", Password: "secret1", FullName: "Desk", Role: shared.RoleLibrarian}
	first, err := svc.CreateStaff(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, shared.RoleLibrarian, first.Role)

	req = &model.CreateStaffRequest{Email: "desk@example.com", Password: "secret2", FullName: "Head Desk", Role: shared.RoleAdmin}
	second, err := svc.CreateStaff(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, shared.RoleAdmin, second.Role)

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "desk@example.com", Password: "secret2"})
	require.NoError(t, err)
	actor, err := svc.Authenticate(ctx, resp.Session.AccessToken)
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin())

	_, err = svc.CreateStaff(ctx, &model.CreateStaffRequest{Email: "x@example.com", Password: "secret1", FullName: "X", Role: shared.RoleMember})
	assert.Error(t, err)
}

func TestProfileAccess(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	owner := store.AddUser("owner@example.com", "Owner", shared.RoleMember)
	other := store.AddUser("other@example.com", "Other", shared.RoleMember)
	librarian := store.AddUser("lib@example.com", "Librarian", shared.RoleLibrarian)
	admin := store.AddUser("admin@example.com", "Admin", shared.RoleAdmin)

	_, err := svc.GetProfile(ctx, other.Actor(), owner.ID)
	assert.ErrorIs(t, err, model.ErrProfileForbidden)

	got, err := svc.GetProfile(ctx, librarian.Actor(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.Email, got.Email)

	name := "Owner Renamed"
	_, err = svc.UpdateProfile(ctx, librarian.Actor(), owner.ID, &model.UpdateProfileRequest{FullName: &name})
	assert.ErrorIs(t, err, model.ErrProfileForbidden)

	updated, err := svc.UpdateProfile(ctx, owner.Actor(), owner.ID, &model.UpdateProfileRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)

	phone := "0123456789"
	updated, err = svc.UpdateProfile(ctx, admin.Actor(), owner.ID, &model.UpdateProfileRequest{Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	_, err = svc.GetProfile(ctx, admin.Actor(), uuid.New())
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
