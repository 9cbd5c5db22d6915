package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-lite/internal/domains/fine"
	"library-lite/internal/domains/loan/service"
	"library-lite/internal/shared"
	"library-lite/internal/shared/utils"
	"library-lite/internal/testutil/memstore"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

type harness struct {
	router *gin.Engine
	store  *memstore.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	clock := shared.NewManualClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	svc := service.NewLoanService(service.Deps{
		Tx:           store,
		Loans:        store.Loans(),
		Books:        store.Books(),
		Users:        store.Users(),
		Reservations: store.Reservations(),
		Activity:     store.ActivityLog(),
		Calculator:   fine.NewCalculator(fine.DefaultPolicy(), clock),
	})
	h := NewLoanHandler(svc)

	r := gin.New()
	// actor lấy từ header X-Test-User (thay cho auth middleware)
	r.Use(func(c *gin.Context) {
		if email := c.GetHeader("X-Test-User"); email != "" {
			u, err := store.Users().GetByEmail(c.Request.Context(), email)
			require.NoError(t, err)
			c.Set(utils.ActorKey, u.Actor())
		}
		c.Next()
	})
	r.POST("/loans/borrow", h.Borrow)
	r.POST("/loans/return", h.Return)
	r.GET("/loans", h.ListLoans)
	r.GET("/loans/:id", h.GetLoan)

	return &harness{router: r, store: store}
}

func (h *harness) do(t *testing.T, method, path, user string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestBorrowAndReturnOverHTTP(t *testing.T) {
	h := newHarness(t)
	member := h.store.AddUser("reader@example.com", "Reader", shared.RoleMember)
	other := h.store.AddUser("other@example.com", "Other", shared.RoleMember)
	h.store.AddUser("desk@example.com", "Desk", shared.RoleLibrarian)
	author := h.store.AddAuthor("Ray Bradbury")
	book := h.store.AddBook("Fahrenheit 451", "9781451673319", author.ID, 1)

	w, env := h.do(t, http.MethodPost, "/loans/borrow", member.Email, map[string]interface{}{"bookId": book.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var loan struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &loan))
	assert.Equal(t, "borrowed", loan.Status)

	// Hết bản: conflict map sang 400
	w, env = h.do(t, http.MethodPost, "/loans/borrow", other.Email, map[string]interface{}{"bookId": book.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "LOAN002", env.Error.Code)

	w, env = h.do(t, http.MethodPost, "/loans/return", other.Email, map[string]interface{}{"loanId": loan.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "LOAN005", env.Error.Code)

	w, _ = h.do(t, http.MethodPost, "/loans/return", member.Email, map[string]interface{}{"loanId": loan.ID})
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = h.do(t, http.MethodGet, "/loans?status=returned", "desk@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 1, env.Meta.Total)
}

func TestRequestValidation(t *testing.T) {
	h := newHarness(t)
	member := h.store.AddUser("reader@example.com", "Reader", shared.RoleMember)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown field", http.MethodPost, "/loans/borrow", member.Email, `{"bookId":"7f1c3a52-7d0e-4b8e-9a55-0c1d2e3f4a5b","extra":true}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed json", http.MethodPost, "/loans/borrow", member.Email, `{"bookId":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing bookId", http.MethodPost, "/loans/borrow", member.Email, `{}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown book", http.MethodPost, "/loans/borrow", member.Email, `{"bookId":"7f1c3a52-7d0e-4b8e-9a55-0c1d2e3f4a5b"}`, http.StatusNotFound, "BOOK001"},
		{"no actor", http.MethodPost, "/loans/borrow", "", `{"bookId":"7f1c3a52-7d0e-4b8e-9a55-0c1d2e3f4a5b"}`, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bad path id", http.MethodGet, "/loans/not-a-uuid", member.Email, nil, http.StatusBadRequest, "INVALID_ID"},
		{"unknown loan", http.MethodGet, "/loans/7f1c3a52-7d0e-4b8e-9a55-0c1d2e3f4a5b", member.Email, nil, http.StatusNotFound, "LOAN001"},
		{"bad status filter", http.MethodGet, "/loans?status=lost", member.Email, nil, http.StatusBadRequest, "LOAN007"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := h.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}
