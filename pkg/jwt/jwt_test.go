package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", 15*time.Minute)

	token, issued, err := m.GenerateAccessToken("u-1", "reader@library.test", "member")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestAccessTokenRejected(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager("test-secret", 15*time.Minute)
	m.now = func() time.Time { return start }

	token, _, err := m.GenerateAccessToken("u-1", "reader@library.test", "member")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager("other-secret", time.Minute)
		other.now = m.now
		_, err := other.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		m.now = func() time.Time { return start.Add(16 * time.Minute) }
		_, err := m.ValidateAccessToken(token)
		assert.Error(t, err)
	})
}
