package middleware

import (
	"net/http"

	"convocore/internal/common"
	"convocore/internal/services"

	"github.com/labstack/echo/v4"
)

type RBACMiddleware struct {
	rbacService services.RBACService
}

func NewRBACMiddleware(rbacService services.RBACService) *RBACMiddleware {
	return &RBACMiddleware{
		rbacService: rbacService,
	}
}

// RequirePermission gates a route on the live permission set, not the one
// embedded in the token, so revocations take effect within the cache TTL
// rather than the token lifetime.
func (m *RBACMiddleware) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			principal, ok := common.GetPrincipal(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "access denied")
			}

			hasPermission, err := m.rbacService.UserHasPermission(ctx, principal.TenantID, principal.UserID, permission)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "permission check failed")
			}
			if !hasPermission {
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}

			return next(c)
		}
	}
}
