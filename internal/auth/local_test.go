package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	infraCache "library-lite/internal/infrastructure/cache"
)

func newLocalProvider(t *testing.T) *LocalProvider {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := infraCache.NewRedisCache(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rc.Close() })

	p := NewLocalProvider(rc, "test-secret", time.Hour)
	p.cost = bcrypt.MinCost
	return p
}

func TestLocalSignUpSignIn(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()

	identity, err := p.SignUp(ctx, "Reader@Example.com ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, identity.ID)
	assert.Equal(t, "reader@example.com", identity.Email)

	_, err = p.SignUp(ctx, "reader@example.com", "other")
	assert.ErrorIs(t, err, ErrEmailTaken)

	session, err := p.SignIn(ctx, "reader@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, session.Identity.ID)
	assert.Equal(t, "bearer", session.TokenType)

	verified, err := p.VerifyToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, verified.ID)

	_, err = p.SignIn(ctx, "reader@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalConcurrentSignUpSameEmail(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created []string
		taken   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			identity, err := p.SignUp(ctx, "race@example.com", fmt.Sprintf("secret-%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created = append(created, identity.ID)
			case errors.Is(err, ErrEmailTaken):
				taken++
			default:
				t.Errorf("unexpected signup error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, created, 1)
	assert.Equal(t, attempts-1, taken)

	// credential của người thắng không bị ghi đè
	var cred localCredential
	found, err := p.store.Get(ctx, credentialKeyPrefix+"race@example.com", &cred)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created[0], cred.ID)
}

func TestLocalSignOutRevokesToken(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "reader@example.com", "secret1")
	require.NoError(t, err)
	session, err := p.SignIn(ctx, "reader@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, session.AccessToken))

	_, err = p.VerifyToken(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// sign out với token rác không lỗi
	assert.NoError(t, p.SignOut(ctx, "garbage"))
}

func TestLocalVerifyRejectsForeignToken(t *testing.T) {
	p := newLocalProvider(t)
	other := NewLocalProvider(p.store, "another-secret", time.Hour)
	other.cost = bcrypt.MinCost

	ctx := context.Background()
	_, err := other.SignUp(ctx, "x@example.com", "secret1")
	require.NoError(t, err)
	session, err := other.SignIn(ctx, "x@example.com", "secret1")
	require.NoError(t, err)

	_, err = p.VerifyToken(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocalSetPassword(t *testing.T) {
	p := newLocalProvider(t)
	ctx := context.Background()

	first, err := p.SetPassword(ctx, "staff@example.com", "initial")
	require.NoError(t, err)

	second, err := p.SetPassword(ctx, "staff@example.com", "rotated")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = p.SignIn(ctx, "staff@example.com", "initial")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.SignIn(ctx, "staff@example.com", "rotated")
	assert.NoError(t, err)
}
