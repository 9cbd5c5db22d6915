// Package auth định nghĩa AuthProvider capability và hai implementation:
// Supabase (GoTrue REST) cho production và local (bcrypt + HS256) cho dev/test.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-lite/internal/config"
	"library-lite/pkg/cache"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrProviderFailure    = errors.New("identity provider request failed")
)

// Identity là user phía identity provider. ID được lưu vào users.auth_id.
type Identity struct {
	ID    string
	Email string
}

type Session struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Identity    Identity  `json:"-"`
}

// Provider map bearer token -> identity và quản lý credentials.
// Business logic chỉ phụ thuộc interface này; implementation được chọn một lần lúc startup.
type Provider interface {
	Name() string
	VerifyToken(ctx context.Context, token string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context, token string) error
}

// NewProvider chọn implementation theo AUTH_PROVIDER
func NewProvider(cfg config.AuthConfig, jwtCfg config.JWTConfig, store cache.Cache) (Provider, error) {
	switch cfg.Provider {
	case "supabase":
		return NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseJWTSecret), nil
	case "local", "":
		ttl := time.Duration(jwtCfg.AccessTokenExpiry) * time.Minute
		return NewLocalProvider(store, jwtCfg.Secret, ttl), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}
