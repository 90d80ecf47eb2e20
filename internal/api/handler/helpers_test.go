package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/minics/console/internal/api/middleware"
	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/guard"
	"github.com/minics/console/internal/core/ports"
	"github.com/minics/console/internal/core/session"
	"github.com/minics/console/internal/infrastructure/storage"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAuthService struct {
	loginFn    func(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error)
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	refreshFn  func(ctx context.Context, sess ports.Session) (*domain.User, error)
	logoutFn   func(ctx context.Context, sess ports.Session) error
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Refresh(ctx context.Context, sess ports.Session) (*domain.User, error) {
	return s.refreshFn(ctx, sess)
}

func (s *stubAuthService) Logout(ctx context.Context, sess ports.Session) error {
	if s.logoutFn != nil {
		return s.logoutFn(ctx, sess)
	}
	return sess.ClearUser(ctx)
}

type stubUserService struct {
	users   map[string]*domain.User
	revoked []string
}

func newStubUserService() *stubUserService {
	return &stubUserService{users: map[string]*domain.User{
		"u1": {ID: "u1", Username: "alice", Role: domain.RoleAgent, Status: domain.StatusActive},
		"u2": {ID: "u2", Username: "bob", Role: domain.RoleAdmin, Status: domain.StatusActive},
	}}
}

func (s *stubUserService) List(context.Context) ([]*domain.User, error) {
	return []*domain.User{s.users["u1"], s.users["u2"]}, nil
}

func (s *stubUserService) Get(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != "" && in.Role != domain.RoleAgent && in.Role != domain.RoleAdmin {
		return nil, domain.ErrRoleNotFound
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Role != "" {
		u.Role = in.Role
	}
	return u, nil
}

func (s *stubUserService) SetStatus(ctx context.Context, actorID, id, status string) (*domain.User, error) {
	if actorID == id {
		return nil, domain.ErrSelfAction
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Status = status
	if status == domain.StatusDisabled {
		s.revoked = append(s.revoked, id)
	}
	return u, nil
}

func (s *stubUserService) ResetPassword(ctx context.Context, id, _ string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	s.revoked = append(s.revoked, id)
	return nil
}

func (s *stubUserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return domain.ErrSelfAction
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	delete(s.users, id)
	return nil
}

type stubCaptchaService struct{}

func (stubCaptchaService) Generate(context.Context) (*domain.Captcha, error) {
	return &domain.Captcha{Key: "k1", Question: "2 + 3 = ?"}, nil
}

type staticGuards struct{}

func (staticGuards) Current() *guard.Guard { return guard.Default() }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// withSession injects a session the way the Session middleware does. A nil
// user leaves it anonymous.
func withSession(t *testing.T, c echo.Context, user *domain.User) *session.Store {
	t.Helper()
	ctx := context.Background()
	store := session.NewStore(storage.NewMemory(), zerolog.Nop())
	if user != nil {
		if err := store.SetToken(ctx, "tok"); err != nil {
			t.Fatalf("set token: %v", err)
		}
		if err := store.SetUser(ctx, user); err != nil {
			t.Fatalf("set user: %v", err)
		}
	}
	c.Set(middleware.KeySession, store)
	return store
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}
