package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minics/console/internal/api/middleware"
	"github.com/minics/console/internal/core/guard"
)

// PageHandler describes the page a guarded request landed on. The console
// frontend renders from this descriptor.
type PageHandler struct {
	guards middleware.GuardProvider
}

func NewPageHandler(guards middleware.GuardProvider) *PageHandler {
	return &PageHandler{guards: guards}
}

// Render returns the descriptor of the page the guard let through.
//
// @Summary      Page descriptor
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Success      302
// @Router       /admin/{page} [get]
func (h *PageHandler) Render(c echo.Context) error {
	d, ok := c.Get(middleware.KeyDecision).(guard.Decision)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "page guard missing")
	}
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	m := h.guards.Current().Table().Match(d.Target)
	if !m.Found() {
		return echo.NewHTTPError(http.StatusNotFound, "page not found")
	}
	return c.JSON(http.StatusOK, pageResponse{
		Path:          d.Target,
		Title:         m.Title(),
		Menu:          m.Menu(),
		Authenticated: store.IsAuthenticated(c.Request().Context()),
		User:          store.User(),
	})
}
