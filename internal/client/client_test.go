package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/session"
	"github.com/minics/console/internal/infrastructure/storage"
)

func newSession() *session.Store {
	return session.NewStore(storage.NewMemory(), zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLogin_StoresTokenAndUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if creds.Username != "alice" || creds.CaptchaKey != "k1" {
			t.Errorf("unexpected credentials %+v", creds)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok-1",
			"user": map[string]any{
				"id": "u1", "username": "alice", "role": "agent",
				"permissions": map[string]any{"menus": []string{"workbench"}, "actions": []string{}},
			},
		})
	}))
	defer srv.Close()

	ctx := context.Background()
	sess := newSession()
	c := New(srv.URL, sess)

	user, err := c.Login(ctx, Credentials{Username: "alice", Password: "pw", CaptchaKey: "k1", Captcha: "8"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("expected alice, got %q", user.Username)
	}
	if got := sess.Token(ctx); got != "tok-1" {
		t.Errorf("expected stored token tok-1, got %q", got)
	}
	if !sess.IsAuthenticated(ctx) {
		t.Error("expected session to be authenticated")
	}
	if !sess.Permissions().GrantsMenu("workbench") {
		t.Error("expected workbench grant in session")
	}
}

func TestDo_AttachesBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"outcome": "allow", "path": "/admin", "target": "/admin", "state": "allowed"})
	}))
	defer srv.Close()

	ctx := context.Background()
	sess := newSession()
	if err := sess.SetToken(ctx, "tok-9"); err != nil {
		t.Fatal(err)
	}

	d, err := New(srv.URL, sess).Decide(ctx, "/admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer tok-9" {
		t.Errorf("expected bearer header, got %q", auth)
	}
	if d.Target != "/admin" || d.Outcome != "allow" {
		t.Errorf("unexpected decision %+v", d)
	}
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("expected no authorization header, got %q", h)
		}
		writeJSON(w, http.StatusOK, map[string]any{"enabled": true, "key": "k", "question": "1 + 1 = ?"})
	}))
	defer srv.Close()

	ch, err := New(srv.URL, newSession()).Captcha(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ch.Enabled || ch.Key != "k" {
		t.Errorf("unexpected captcha %+v", ch)
	}
}

func TestUnauthorized_ClearsSessionAndNotifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not logged in or session expired"})
	}))
	defer srv.Close()

	ctx := context.Background()
	sess := newSession()
	_ = sess.SetToken(ctx, "stale")
	_ = sess.SetUser(ctx, &domain.User{ID: "u1", Username: "alice", Role: "agent"})

	c := New(srv.URL, sess)
	notified := 0
	c.OnUnauthorized = func(context.Context) { notified++ }

	_, err := c.Me(ctx)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if notified != 1 {
		t.Errorf("expected one notification, got %d", notified)
	}
	if sess.IsAuthenticated(ctx) || sess.User() != nil || sess.Token(ctx) != "" {
		t.Error("expected session to be cleared")
	}
}

func TestServerError_CarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "account disabled"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, newSession()).Login(context.Background(), Credentials{Username: "bob", Password: "pw"})
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "account disabled") {
		t.Errorf("expected server message in error, got %q", got)
	}
}

func TestLogout_ClearsEvenWhenServerFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	}))
	defer srv.Close()

	ctx := context.Background()
	sess := newSession()
	_ = sess.SetToken(ctx, "tok")
	_ = sess.SetUser(ctx, &domain.User{ID: "u1", Username: "alice"})

	err := New(srv.URL, sess).Logout(ctx)
	if !errors.Is(err, ErrServer) {
		t.Errorf("expected server error to surface, got %v", err)
	}
	if sess.User() != nil || sess.Token(ctx) != "" {
		t.Error("expected local session cleared")
	}
}

func TestLogout_ExpiredSessionIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ctx := context.Background()
	sess := newSession()
	_ = sess.SetToken(ctx, "tok")

	if err := New(srv.URL, sess).Logout(ctx); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
