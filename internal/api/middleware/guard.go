package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minics/console/internal/api/metrics"
	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/guard"
	"github.com/minics/console/internal/core/ports"
)

// KeyDecision holds the guard decision of an allowed page request.
const KeyDecision = "decision"

// GuardProvider returns the guard currently in effect.
type GuardProvider interface {
	Current() *guard.Guard
}

// PageGuard runs page requests through the route guard. Allowed requests
// reach the handler; everything else is redirected with 302. Denials are
// recorded on the audit trail when audit is non-nil.
func PageGuard(provider GuardProvider, audit ports.AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store := SessionFrom(c)
			if store == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session middleware missing")
			}

			requested := guard.Normalize(c.Request().URL.Path)
			d := provider.Current().Decide(c.Request().Context(), requested, store)
			metrics.GuardDecisionsTotal.WithLabelValues(d.Outcome.String(), d.State.String()).Inc()

			if audit != nil && (d.State == guard.DeniedUnauthenticated || d.State == guard.DeniedUnauthorized) {
				username, _ := c.Get(KeyUsername).(string)
				audit.Enqueue(domain.AuthEvent{
					Type:      domain.EventNavigationDenied,
					Username:  username,
					Path:      d.Path,
					Target:    d.Target,
					Reason:    d.Reason,
					RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
				})
			}

			if d.Target != requested {
				return c.Redirect(http.StatusFound, d.Target)
			}
			c.Set(KeyDecision, d)
			return next(c)
		}
	}
}
