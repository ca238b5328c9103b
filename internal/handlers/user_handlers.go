package handlers

import (
	"net/http"

	"convocore/internal/common"
	"convocore/internal/models"
	"convocore/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserHandlers handles user management HTTP requests. The tenant scope
// comes from the authenticated principal on every route; client-supplied
// tenant identifiers are rejected by the service layer.
type UserHandlers struct {
	userService services.UserService
	rbacService services.RBACService
}

func NewUserHandlers(userService services.UserService, rbacService services.RBACService) *UserHandlers {
	return &UserHandlers{
		userService: userService,
		rbacService: rbacService,
	}
}

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *UserHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	user := &models.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	if err := h.userService.Create(ctx, user, req.Password); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandlers) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := h.userService.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) List(c echo.Context) error {
	limit, offset := paginationParams(c)

	users, err := h.userService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, users)
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

func (h *UserHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	user, err := h.userService.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}

	if err := h.userService.Update(ctx, user); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	if err := h.userService.Deactivate(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandlers) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	if err := h.userService.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type AssignRoleRequest struct {
	RoleID uuid.UUID `json:"role_id" validate:"required"`
}

func (h *UserHandlers) AssignRole(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req AssignRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.RoleID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "role_id is required")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	if err := h.rbacService.AssignRole(ctx, tenantID, userID, req.RoleID); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandlers) RemoveRole(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	roleID, err := uuid.Parse(c.Param("roleId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	if err := h.rbacService.RemoveRole(ctx, tenantID, userID, roleID); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandlers) GetRoles(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	roles, err := h.rbacService.GetUserRoles(ctx, tenantID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"roles": roles})
}

func (h *UserHandlers) GetPermissions(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	permissions, err := h.rbacService.GetUserPermissions(ctx, tenantID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"permissions": permissions})
}
