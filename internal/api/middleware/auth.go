package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
	"github.com/minics/console/internal/core/service"
	"github.com/minics/console/internal/core/session"
	"github.com/minics/console/internal/infrastructure/storage"
)

// Context keys set by Session.
const (
	KeySession   = "session"
	KeySessionID = "session_id"
	KeyUsername  = "username"
	KeyRole      = "role"
)

// TokenCookie carries the token for page requests made by a browser.
const TokenCookie = "auth_token"

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	VerifyToken(raw string) (*service.Claims, error)
}

// Session resolves the caller's session and injects it into the context.
// The token comes from the Authorization header or the auth_token cookie.
// A token whose session no longer holds it (logged out, replaced) is
// ignored. Requests without a usable token get an empty session. Session
// never rejects a request; RequireAuth does that.
func Session(verifier TokenVerifier, sessions ports.SessionStorage, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			var store *session.Store
			if raw := requestToken(c); raw != "" {
				if claims, err := verifier.VerifyToken(raw); err == nil {
					s := session.Open(ctx, sessions.Namespace(claims.ID), log)
					if s.Token(ctx) == raw {
						store = s
						c.Set(KeySessionID, claims.ID)
					}
				}
			}
			if store == nil {
				store = session.Open(ctx, storage.NewMemory(), log)
			}

			c.Set(KeySession, store)
			if u := store.User(); u != nil {
				c.Set(KeyUsername, u.Username)
				c.Set(KeyRole, u.Role)
			}
			return next(c)
		}
	}
}

// RequireAuth rejects requests whose session is not authenticated.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store := SessionFrom(c)
			if store == nil || !store.IsAuthenticated(c.Request().Context()) {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthorized.Error())
			}
			return next(c)
		}
	}
}

// SessionFrom returns the session injected by Session, or nil.
func SessionFrom(c echo.Context) *session.Store {
	store, _ := c.Get(KeySession).(*session.Store)
	return store
}

func requestToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
