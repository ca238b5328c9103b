package handlers

import (
	"net/http"
	"strconv"

	"convocore/internal/common"
	"convocore/internal/models"
	"convocore/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenantHandlers handles tenant lifecycle HTTP requests. Tenants are created
// through signup; every route here operates on the caller's own tenant, and
// a foreign tenant id gets the same answer as one that does not exist.
type TenantHandlers struct {
	tenantService services.TenantService
}

func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// tenantInScope reports whether the path id matches the caller's tenant.
func tenantInScope(c echo.Context, id uuid.UUID) bool {
	principal, ok := common.GetPrincipal(c.Request().Context())
	return ok && principal.TenantID == id
}

func (h *TenantHandlers) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
	}
	if !tenantInScope(c, id) {
		return respondError(c, common.ErrNotFound)
	}

	tenant, err := h.tenantService.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandlers) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
	}
	if !tenantInScope(c, id) {
		return respondError(c, common.ErrNotFound)
	}

	var req services.TenantUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	tenant, err := h.tenantService.Update(c.Request().Context(), id, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandlers) Activate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
	}
	if !tenantInScope(c, id) {
		return respondError(c, common.ErrNotFound)
	}

	if err := h.tenantService.Activate(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *TenantHandlers) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
	}
	if !tenantInScope(c, id) {
		return respondError(c, common.ErrNotFound)
	}

	if err := h.tenantService.Deactivate(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *TenantHandlers) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
	}
	if !tenantInScope(c, id) {
		return respondError(c, common.ErrNotFound)
	}

	if err := h.tenantService.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// List returns the tenants visible to the caller, which is exactly the
// caller's own tenant.
func (h *TenantHandlers) List(c echo.Context) error {
	principal, ok := common.GetPrincipal(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "access denied")
	}

	tenant, err := h.tenantService.GetByID(c.Request().Context(), principal.TenantID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, []*models.Tenant{tenant})
}

// paginationParams reads limit/offset query params with sane bounds.
func paginationParams(c echo.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
