package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minics/console/internal/api/middleware"
)

type NavigationHandler struct {
	guards middleware.GuardProvider
}

func NewNavigationHandler(guards middleware.GuardProvider) *NavigationHandler {
	return &NavigationHandler{guards: guards}
}

// Decide runs a navigation through the route guard for the caller's session.
//
// @Summary      Decide a navigation
// @Tags         navigation
// @Accept       json
// @Produce      json
// @Param        body  body      decideRequest  true  "Target path"
// @Success      200   {object}  decisionResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/navigation/decide [post]
func (h *NavigationHandler) Decide(c echo.Context) error {
	var req decideRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	d := h.guards.Current().Decide(c.Request().Context(), req.Path, store)
	return c.JSON(http.StatusOK, toDecisionResponse(d))
}

// Landing returns the caller's default page.
//
// @Summary      Default landing page
// @Tags         navigation
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  landingResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/navigation/landing [get]
func (h *NavigationHandler) Landing(c echo.Context) error {
	store, err := ctxAuthSession(c)
	if err != nil {
		return err
	}
	path, ok := h.guards.Current().Landing(c.Request().Context(), store)
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "no navigable landing page"})
	}
	return c.JSON(http.StatusOK, landingResponse{Path: path})
}
