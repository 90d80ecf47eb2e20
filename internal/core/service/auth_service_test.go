package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
	"github.com/minics/console/internal/core/session"
)

type authFixture struct {
	svc      *AuthService
	users    *stubUserRepo
	roles    *stubRoleRepo
	sessions *memSessions
	captchas *stubCaptchaStore
	audit    *recorder
}

func newAuthFixture(t *testing.T, withCaptcha bool) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    newStubUserRepo(),
		roles:    newStubRoleRepo(),
		sessions: newMemSessions(),
		captchas: newStubCaptchaStore(),
		audit:    &recorder{},
	}
	opts := []AuthOption{WithAudit(f.audit), WithLogger(zerolog.Nop())}
	if withCaptcha {
		opts = append(opts, WithCaptcha(f.captchas))
	}
	f.svc = NewAuthService(f.users, f.roles, f.sessions, "secret", time.Hour, opts...)

	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "alice", Password: "pass123", Email: "alice@example.com", Role: domain.RoleAgent,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return f
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	stored := f.users.users["alice"]
	if stored.PasswordHash == "" || stored.PasswordHash == "pass123" {
		t.Fatalf("password not hashed")
	}
	if stored.Status != domain.StatusActive {
		t.Fatalf("new accounts must be active, got %q", stored.Status)
	}

	_, err := f.svc.Register(ctx, ports.RegisterInput{Username: "alice", Password: "x", Role: domain.RoleAgent})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	_, err = f.svc.Register(ctx, ports.RegisterInput{Username: "bob", Password: "x", Role: "ghost"})
	if !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	_, err = f.svc.Register(ctx, ports.RegisterInput{Username: "bob"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_WritesSession(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, ports.LoginInput{Username: "alice", Password: "pass123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.PasswordHash != "" {
		t.Fatalf("password hash leaked into the session user")
	}
	if !res.User.Permissions.GrantsMenu("workbench") {
		t.Fatalf("role grants not attached: %v", res.User.Permissions.Menus())
	}

	claims, err := f.svc.VerifyToken(res.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.ID != res.SessionID || claims.Username != "alice" || claims.Role != domain.RoleAgent || claims.Subject != "id-alice" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	store := session.Open(ctx, f.sessions.Namespace(res.SessionID), zerolog.Nop())
	if !store.IsAuthenticated(ctx) || store.Token(ctx) != res.Token {
		t.Fatalf("session not persisted")
	}
	if store.User().Username != "alice" {
		t.Fatalf("unexpected session user %+v", store.User())
	}
	if len(f.users.touched) != 1 {
		t.Fatalf("last login not stamped")
	}
	if got := f.sessions.owners["id-alice"]; len(got) != 1 || got[0] != res.SessionID {
		t.Fatalf("session not tracked for the user: %v", got)
	}
	if got := f.audit.types(); len(got) != 1 || got[0] != domain.EventLoginSucceeded {
		t.Fatalf("unexpected audit trail %v", got)
	}
}

func TestAuthService_Login_TrackFailure(t *testing.T) {
	f := newAuthFixture(t, false)
	f.sessions.trackErr = errors.New("redis down")

	_, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "pass123"})
	if err == nil {
		t.Fatalf("expected login to fail when the session cannot be tracked")
	}
	if len(f.users.touched) != 0 {
		t.Fatalf("last login stamped for a failed login")
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ports.LoginInput
		want error
	}{
		{"empty", ports.LoginInput{}, domain.ErrInvalidCredentials},
		{"unknown user", ports.LoginInput{Username: "nobody", Password: "x"}, domain.ErrInvalidCredentials},
		{"wrong password", ports.LoginInput{Username: "alice", Password: "nope"}, domain.ErrInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Login(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	f.users.users["alice"].Status = domain.StatusDisabled
	if _, err := f.svc.Login(ctx, ports.LoginInput{Username: "alice", Password: "pass123"}); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}

	for _, e := range f.audit.events {
		if e.Type != domain.EventLoginFailed || e.Reason == "" {
			t.Fatalf("unexpected audit event %+v", e)
		}
	}
	if len(f.audit.events) != 4 {
		t.Fatalf("expected 4 failures recorded, got %d", len(f.audit.events))
	}
}

func TestAuthService_Login_Captcha(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()
	in := ports.LoginInput{Username: "alice", Password: "pass123"}

	if _, err := f.svc.Login(ctx, in); !errors.Is(err, domain.ErrCaptchaRequired) {
		t.Fatalf("expected ErrCaptchaRequired, got %v", err)
	}

	_ = f.captchas.Save(ctx, "k", "12")
	in.CaptchaKey, in.Captcha = "k", "13"
	if _, err := f.svc.Login(ctx, in); !errors.Is(err, domain.ErrCaptchaInvalid) {
		t.Fatalf("expected ErrCaptchaInvalid, got %v", err)
	}
	// The wrong guess consumed the captcha.
	in.Captcha = "12"
	if _, err := f.svc.Login(ctx, in); !errors.Is(err, domain.ErrCaptchaExpired) {
		t.Fatalf("expected ErrCaptchaExpired, got %v", err)
	}

	_ = f.captchas.Save(ctx, "k2", "12")
	in.CaptchaKey, in.Captcha = "k2", " 12 "
	if _, err := f.svc.Login(ctx, in); err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
}

func TestAuthService_Login_UnknownRoleGrantsNothing(t *testing.T) {
	f := newAuthFixture(t, false)
	delete(f.roles.roles, domain.RoleAgent)

	res, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "pass123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.User.Permissions.Empty() {
		t.Fatalf("expected no grants, got %v", res.User.Permissions.Menus())
	}
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, ports.LoginInput{Username: "alice", Password: "pass123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	store := session.Open(ctx, f.sessions.Namespace(res.SessionID), zerolog.Nop())

	f.roles.roles[domain.RoleAgent].Permissions = domain.NewPermissions([]string{"projects"}, nil)
	user, err := f.svc.Refresh(ctx, store)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !user.Permissions.GrantsMenu("projects") || !store.Permissions().GrantsMenu("projects") {
		t.Fatalf("refresh did not pick up new grants")
	}

	if err := f.svc.Logout(ctx, store); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if store.IsAuthenticated(ctx) {
		t.Fatalf("session still authenticated after logout")
	}
	reopened := session.Open(ctx, f.sessions.Namespace(res.SessionID), zerolog.Nop())
	if reopened.Token(ctx) != "" {
		t.Fatalf("token survived logout")
	}
	if _, err := f.svc.Refresh(ctx, store); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}

	last := f.audit.events[len(f.audit.events)-1]
	if last.Type != domain.EventLogout || last.Username != "alice" {
		t.Fatalf("unexpected audit event %+v", last)
	}
}

func TestAuthService_RefreshDisabledAccount(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	res, _ := f.svc.Login(ctx, ports.LoginInput{Username: "alice", Password: "pass123"})
	store := session.Open(ctx, f.sessions.Namespace(res.SessionID), zerolog.Nop())

	f.users.users["alice"].Status = domain.StatusDisabled
	if _, err := f.svc.Refresh(ctx, store); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
	if store.User() != nil {
		t.Fatalf("disabled account must end the session")
	}
}

func TestAuthService_VerifyToken(t *testing.T) {
	f := newAuthFixture(t, false)

	if _, err := f.svc.VerifyToken("garbage"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	other := NewAuthService(f.users, f.roles, f.sessions, "other-secret", time.Hour)
	res, _ := other.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "pass123"})
	if _, err := f.svc.VerifyToken(res.Token); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "sid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	raw, _ := expired.SignedString([]byte("secret"))
	if _, err := f.svc.VerifyToken(raw); err == nil {
		t.Fatalf("expired token accepted")
	}

	noID := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "alice"})
	raw, _ = noID.SignedString([]byte("secret"))
	if _, err := f.svc.VerifyToken(raw); err == nil {
		t.Fatalf("token without session id accepted")
	}
}
