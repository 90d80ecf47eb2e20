package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
)

type RoleHandler struct {
	service ports.RoleService
}

func NewRoleHandler(service ports.RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

// List returns every role.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  roleListResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/admin/roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if roles == nil {
		roles = []*domain.Role{}
	}
	return c.JSON(http.StatusOK, roleListResponse{Roles: roles})
}

// Get returns one role.
//
// @Summary      Get a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      string  true  "Role code"
// @Success      200   {object}  domain.Role
// @Failure      404   {object}  map[string]string
// @Router       /api/admin/roles/{code} [get]
func (h *RoleHandler) Get(c echo.Context) error {
	role, err := h.service.Get(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

// Create adds a role.
//
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      roleRequest  true  "Role"
// @Success      201   {object}  domain.Role
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/admin/roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	role, err := h.service.Create(c.Request().Context(), &domain.Role{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Permissions: domain.NewPermissions(req.Menus, req.Actions),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, role)
}

// Update replaces a role's grants.
//
// @Summary      Update a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      string             true  "Role code"
// @Param        body  body      roleUpdateRequest  true  "Role"
// @Success      200   {object}  domain.Role
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/admin/roles/{code} [put]
func (h *RoleHandler) Update(c echo.Context) error {
	var req roleUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	role, err := h.service.Update(c.Request().Context(), c.Param("code"), req.Name, req.Description,
		domain.NewPermissions(req.Menus, req.Actions))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

// Delete removes a role nobody holds.
//
// @Summary      Delete a role
// @Tags         roles
// @Security     BearerAuth
// @Param        code  path  string  true  "Role code"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/admin/roles/{code} [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("code")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
