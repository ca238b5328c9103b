package handlers

import (
	"net/http"

	"convocore/internal/common"
	"convocore/internal/models"
	"convocore/internal/repositories"
	"convocore/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RoleHandlers handles role and permission-catalog HTTP requests
type RoleHandlers struct {
	rbacService    services.RBACService
	permissionRepo repositories.PermissionRepository
}

func NewRoleHandlers(rbacService services.RBACService, permissionRepo repositories.PermissionRepository) *RoleHandlers {
	return &RoleHandlers{
		rbacService:    rbacService,
		permissionRepo: permissionRepo,
	}
}

type CreateRoleRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
}

func (h *RoleHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	role := &models.Role{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.rbacService.CreateRole(ctx, tenantID, role); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, role)
}

func (h *RoleHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	limit, offset := paginationParams(c)

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	roles, err := h.rbacService.ListRoles(ctx, tenantID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, roles)
}

type GrantPermissionRequest struct {
	PermissionID uuid.UUID `json:"permission_id" validate:"required"`
}

func (h *RoleHandlers) GrantPermission(c echo.Context) error {
	ctx := c.Request().Context()

	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}

	var req GrantPermissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.PermissionID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "permission_id is required")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	if err := h.rbacService.GrantPermission(ctx, tenantID, roleID, req.PermissionID); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *RoleHandlers) RevokePermission(c echo.Context) error {
	ctx := c.Request().Context()

	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}
	permissionID, err := uuid.Parse(c.Param("permissionId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid permission id")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	if err := h.rbacService.RevokePermission(ctx, tenantID, roleID, permissionID); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *RoleHandlers) ListPermissions(c echo.Context) error {
	ctx := c.Request().Context()

	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	permissions, err := h.rbacService.ListRolePermissions(ctx, tenantID, roleID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, permissions)
}

// ListCatalog returns the global permission catalog, optionally filtered
// by category.
func (h *RoleHandlers) ListCatalog(c echo.Context) error {
	ctx := c.Request().Context()

	if category := c.QueryParam("category"); category != "" {
		permissions, err := h.permissionRepo.ListByCategory(ctx, category)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, permissions)
	}

	limit, offset := paginationParams(c)
	permissions, err := h.permissionRepo.List(ctx, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, permissions)
}
