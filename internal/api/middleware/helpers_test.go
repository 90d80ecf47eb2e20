package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
	"github.com/minics/console/internal/core/service"
	"github.com/minics/console/internal/core/session"
	"github.com/minics/console/internal/infrastructure/storage"
)

// stubVerifier accepts tokens of the form "tok-<session id>".
type stubVerifier struct{}

func (stubVerifier) VerifyToken(raw string) (*service.Claims, error) {
	if len(raw) < 5 || raw[:4] != "tok-" {
		return nil, domain.ErrUnauthorized
	}
	return &service.Claims{RegisteredClaims: jwt.RegisteredClaims{ID: raw[4:]}}, nil
}

type memSessions struct {
	mu     sync.Mutex
	spaces map[string]*storage.Memory
}

func newMemSessions() *memSessions {
	return &memSessions{spaces: make(map[string]*storage.Memory)}
}

func (m *memSessions) Namespace(id string) ports.KeyValueStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.spaces[id]
	if !ok {
		kv = storage.NewMemory()
		m.spaces[id] = kv
	}
	return kv
}

func (m *memSessions) Track(context.Context, string, string) error { return nil }

func (m *memSessions) RevokeUser(context.Context, string) (int, error) { return 0, nil }

// login writes a session the way the auth service does.
func (m *memSessions) login(t *testing.T, id string, user *domain.User) string {
	t.Helper()
	ctx := context.Background()
	store := session.NewStore(m.Namespace(id), zerolog.Nop())
	token := "tok-" + id
	if err := store.SetToken(ctx, token); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := store.SetUser(ctx, user); err != nil {
		t.Fatalf("set user: %v", err)
	}
	return token
}

// serve runs the request through Session followed by mws and h.
func serve(sessions *memSessions, req *http.Request, h echo.HandlerFunc, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	h = Session(stubVerifier{}, sessions, zerolog.Nop())(h)
	return rec, h(c)
}

func ok(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func agent(menus ...string) *domain.User {
	return &domain.User{Username: "alice", Role: domain.RoleAgent, Permissions: domain.NewPermissions(menus, nil)}
}

type capturingRecorder struct {
	events []domain.AuthEvent
}

func (r *capturingRecorder) Enqueue(e domain.AuthEvent) {
	r.events = append(r.events, e)
}
