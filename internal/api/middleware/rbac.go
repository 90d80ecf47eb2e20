package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/permission"
)

// RequirePermission lets a request through when nothing is required, when
// the user holds one of roles, or when one of perms is granted as a menu or
// an action. Anything else fails with domain.ErrForbidden for the error
// handler to render.
func RequirePermission(perms []string, roles []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(perms) == 0 && len(roles) == 0 {
				return next(c)
			}

			store := SessionFrom(c)
			if store == nil || !store.IsAuthenticated(c.Request().Context()) {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthorized.Error())
			}

			ev := permission.NewEvaluator(store)
			if ev.HasAnyRole(roles...) || ev.HasAnyPermission(perms...) {
				return next(c)
			}
			return domain.ErrForbidden
		}
	}
}
