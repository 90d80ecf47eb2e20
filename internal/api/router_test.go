package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/guard"
	"github.com/minics/console/internal/core/ports"
	"github.com/minics/console/internal/core/service"
	"github.com/minics/console/internal/infrastructure/http/handlers"
	"github.com/minics/console/internal/infrastructure/storage"
)

// anonymousAuth rejects every token.
type anonymousAuth struct{}

func (anonymousAuth) Login(context.Context, ports.LoginInput) (*ports.LoginResult, error) {
	return nil, domain.ErrInvalidCredentials
}
func (anonymousAuth) Register(context.Context, ports.RegisterInput) (*domain.User, error) {
	return nil, domain.ErrForbidden
}
func (anonymousAuth) Refresh(context.Context, ports.Session) (*domain.User, error) {
	return nil, domain.ErrUnauthorized
}
func (anonymousAuth) Logout(context.Context, ports.Session) error { return nil }
func (anonymousAuth) VerifyToken(string) (*service.Claims, error) {
	return nil, domain.ErrUnauthorized
}

type oneNamespace struct{ kv *storage.Memory }

func (o oneNamespace) Namespace(string) ports.KeyValueStore          { return o.kv }
func (oneNamespace) Track(context.Context, string, string) error     { return nil }
func (oneNamespace) RevokeUser(context.Context, string) (int, error) { return 0, nil }

type defaultGuards struct{ g *guard.Guard }

func (d defaultGuards) Current() *guard.Guard { return d.g }

func newTestRouter() http.Handler {
	return NewRouter(Deps{
		Log:      zerolog.Nop(),
		Auth:     anonymousAuth{},
		Sessions: oneNamespace{kv: storage.NewMemory()},
		Guards:   defaultGuards{g: guard.Default()},
		Health:   map[string]handlers.Checker{},
		TokenTTL: time.Hour,
	})
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Routes(t *testing.T) {
	h := newTestRouter()

	cases := []struct {
		method, target, body string
		code                 int
		location             string
	}{
		{http.MethodGet, "/health", "", http.StatusOK, ""},
		{http.MethodGet, "/health/ready", "", http.StatusOK, ""},
		{http.MethodGet, "/admin/dashboard", "", http.StatusFound, "/login"},
		{http.MethodGet, "/", "", http.StatusFound, "/login"},
		{http.MethodGet, "/login", "", http.StatusOK, ""},
		{http.MethodGet, "/portal/chat", "", http.StatusOK, ""},
		{http.MethodPost, "/api/navigation/decide", `{"path":"/admin"}`, http.StatusOK, ""},
		{http.MethodGet, "/api/navigation/landing", "", http.StatusUnauthorized, ""},
		{http.MethodGet, "/api/admin/roles", "", http.StatusUnauthorized, ""},
		{http.MethodPost, "/api/admin/users", `{}`, http.StatusUnauthorized, ""},
		{http.MethodGet, "/api/admin/users", "", http.StatusUnauthorized, ""},
		{http.MethodPut, "/api/admin/users/u1/status", `{"status":"disabled"}`, http.StatusUnauthorized, ""},
		{http.MethodDelete, "/api/admin/users/u1", "", http.StatusUnauthorized, ""},
		{http.MethodGet, "/api/admin/auth/captcha", "", http.StatusOK, ""},
		{http.MethodPost, "/api/admin/auth/login", `{"username":"a","password":"b"}`, http.StatusUnauthorized, ""},
		{http.MethodGet, "/api/admin/auth/me", "", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rec := do(h, tc.method, tc.target, tc.body)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			if tc.location != "" && rec.Header().Get("Location") != tc.location {
				t.Fatalf("expected redirect to %s, got %s", tc.location, rec.Header().Get("Location"))
			}
		})
	}
}

func TestRouter_MetricsExposeGuardDecisions(t *testing.T) {
	h := newTestRouter()
	do(h, http.MethodGet, "/admin/roles", "")

	rec := do(h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "console_guard_decisions_total") {
		t.Fatalf("guard metrics not exposed")
	}
}
