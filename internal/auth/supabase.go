package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SupabaseProvider gọi GoTrue REST API của Supabase; access token được verify local
// bằng project JWT secret nên request đã xác thực không cần round-trip.
type SupabaseProvider struct {
	baseURL   string
	anonKey   string
	jwtSecret []byte
	client    *http.Client
}

func NewSupabaseProvider(baseURL, anonKey, jwtSecret string) *SupabaseProvider {
	return &SupabaseProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		anonKey:   anonKey,
		jwtSecret: []byte(jwtSecret),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *SupabaseProvider) Name() string { return "supabase" }

type supabaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (p *SupabaseProvider) VerifyToken(_ context.Context, token string) (*Identity, error) {
	claims := &supabaseClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: claims.Subject, Email: claims.Email}, nil
}

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueSession struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        *gotrueUser `json:"user"`
}

type gotrueError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.ErrorCode} {
		if s != "" {
			return s
		}
	}
	return "unknown error"
}

func (p *SupabaseProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	var body struct {
		gotrueUser
		User *gotrueUser `json:"user"`
	}
	status, errBody, err := p.do(ctx, http.MethodPost, "/auth/v1/signup", "", map[string]string{
		"email":    email,
		"password": password,
	}, &body)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		if strings.Contains(strings.ToLower(errBody.text()), "already") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: signup: %s", ErrProviderFailure, errBody.text())
	}

	// autoconfirm bật thì GoTrue trả về session có "user", ngược lại trả user ở top-level
	user := &body.gotrueUser
	if body.User != nil {
		user = body.User
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: signup response has no user id", ErrProviderFailure)
	}
	return &Identity{ID: user.ID, Email: user.Email}, nil
}

func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var session gotrueSession
	status, errBody, err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if status >= 400 {
		return nil, fmt.Errorf("%w: token: %s", ErrProviderFailure, errBody.text())
	}
	if session.AccessToken == "" || session.User == nil {
		return nil, fmt.Errorf("%w: token response incomplete", ErrProviderFailure)
	}

	return &Session{
		AccessToken: session.AccessToken,
		TokenType:   session.TokenType,
		ExpiresAt:   time.Now().Add(time.Duration(session.ExpiresIn) * time.Second),
		Identity:    Identity{ID: session.User.ID, Email: session.User.Email},
	}, nil
}

func (p *SupabaseProvider) SignOut(ctx context.Context, token string) error {
	status, errBody, err := p.do(ctx, http.MethodPost, "/auth/v1/logout", token, nil, nil)
	if err != nil {
		return err
	}
	// 401: token đã hết hạn / bị revoke, coi như đã sign out
	if status >= 400 && status != http.StatusUnauthorized {
		return fmt.Errorf("%w: logout: %s", ErrProviderFailure, errBody.text())
	}
	return nil
}

func (p *SupabaseProvider) do(ctx context.Context, method, path, bearer string, in, out interface{}) (int, gotrueError, error) {
	var errBody gotrueError

	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, errBody, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return 0, errBody, err
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, errBody, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, errBody, fmt.Errorf("%w: read body: %v", ErrProviderFailure, err)
	}

	if resp.StatusCode >= 400 {
		_ = json.Unmarshal(raw, &errBody)
		return resp.StatusCode, errBody, nil
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, errBody, fmt.Errorf("%w: decode body: %v", ErrProviderFailure, err)
		}
	}
	return resp.StatusCode, errBody, nil
}
