package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/pkg/logger"
)

type fakeAuth map[string]*models.Operator

func (f fakeAuth) RoleCheck(_ context.Context, token string) (*models.Operator, error) {
	op, ok := f[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return op, nil
}

func newMiddleware(auth AuthService) *Middleware {
	return NewMiddleware(auth, logger.New(io.Discard, "test", logger.LevelError))
}

func TestAuthRequireRoles(t *testing.T) {
	m := newMiddleware(fakeAuth{
		"op":     {ID: "1", Role: types.RoleOperator},
		"viewer": {ID: "2", Role: types.RoleViewer},
	})
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	h := m.Auth(m.RequireRoles(ok, types.RoleOperator))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"bad format", "Token op", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer viewer", http.StatusForbidden},
		{"operator", "Bearer op", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/meter/activate", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthWebsocketQueryToken(t *testing.T) {
	m := newMiddleware(fakeAuth{"viewer": {ID: "2", Role: types.RoleViewer}})
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	h := m.Auth(m.RequireRoles(ok, types.RoleOperator, types.RoleViewer))

	tests := []struct {
		name    string
		query   string
		upgrade bool
		want    int
	}{
		{"handshake with token", "?access_token=viewer", true, http.StatusNoContent},
		{"handshake with bad token", "?access_token=nope", true, http.StatusUnauthorized},
		{"handshake without token", "", true, http.StatusUnauthorized},
		{"plain request ignores query token", "?access_token=viewer", false, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws/display"+tt.query, nil)
			if tt.upgrade {
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Upgrade", "websocket")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthDisabled(t *testing.T) {
	m := newMiddleware(nil)
	var got *models.Operator
	h := m.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = models.OperatorFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/meter", nil))
	if got == nil || got.Role != types.RoleOperator {
		t.Fatalf("operator = %+v, want local operator", got)
	}
}

func TestRequestID(t *testing.T) {
	m := newMiddleware(nil)
	h := m.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc" {
		t.Errorf("request id = %q, want abc", got)
	}
}

func TestRecover(t *testing.T) {
	m := newMiddleware(nil)
	h := m.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestErrorResponseCarriesRequestID(t *testing.T) {
	m := newMiddleware(fakeAuth{})
	h := m.RequestID(m.Auth(m.RequireRoles(func(http.ResponseWriter, *http.Request) {}, types.RoleOperator)))

	req := httptest.NewRequest(http.MethodGet, "/meter", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"request_id":"req-42"`) {
		t.Errorf("body = %s, want request id", rec.Body.String())
	}
}
