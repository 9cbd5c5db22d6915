package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"library-lite/pkg/cache"
	"library-lite/pkg/jwt"
)

const (
	credentialKeyPrefix = "auth:local:cred:"
	revokedKeyPrefix    = "auth:local:revoked:"
)

type localCredential struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// LocalProvider lưu credentials (bcrypt) trong Redis và ký HS256 tokens.
// Dùng khi không cấu hình Supabase.
type LocalProvider struct {
	store  cache.Cache
	tokens *jwt.Manager
	cost   int
}

func NewLocalProvider(store cache.Cache, secret string, ttl time.Duration) *LocalProvider {
	return &LocalProvider{
		store:  store,
		tokens: jwt.NewManager(secret, ttl),
		cost:   bcrypt.DefaultCost,
	}
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	key := credentialKeyPrefix + normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cred := localCredential{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
	}
	// SETNX: hai signup đồng thời cho cùng email chỉ một cái thắng
	stored, err := p.store.SetNX(ctx, key, cred, 0)
	if err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}
	if !stored {
		return nil, ErrEmailTaken
	}
	return &Identity{ID: cred.ID, Email: cred.Email}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var cred localCredential
	found, err := p.store.Get(ctx, credentialKeyPrefix+normalizeEmail(email), &cred)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if !found {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, claims, err := p.tokens.GenerateAccessToken(cred.ID, cred.Email, "")
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		Identity:    Identity{ID: cred.ID, Email: cred.Email},
	}, nil
}

func (p *LocalProvider) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	claims, err := p.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	revoked, err := p.store.Exists(ctx, revokedKeyPrefix+claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: claims.UserID, Email: claims.Email}, nil
}

// SignOut revoke token tới khi nó hết hạn
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.tokens.ValidateAccessToken(token)
	if err != nil {
		// token hết hạn hoặc sai thì coi như đã sign out
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := p.store.Set(ctx, revokedKeyPrefix+claims.ID, true, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// SetPassword đặt lại password cho identity đã có; dùng bởi libctl create-staff
func (p *LocalProvider) SetPassword(ctx context.Context, email, password string) (*Identity, error) {
	identity, err := p.SignUp(ctx, email, password)
	if !errors.Is(err, ErrEmailTaken) {
		return identity, err
	}

	key := credentialKeyPrefix + normalizeEmail(email)
	var cred localCredential
	if _, err := p.store.Get(ctx, key, &cred); err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	cred.PasswordHash = string(hash)
	if err := p.store.Set(ctx, key, cred, 0); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}
	return &Identity{ID: cred.ID, Email: cred.Email}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
