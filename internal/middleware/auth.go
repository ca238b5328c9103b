package middleware

import (
	"net/http"
	"strings"

	"convocore/internal/common"
	"convocore/internal/services"

	"github.com/labstack/echo/v4"
)

// Auth validates the bearer token and attaches the resulting principal to
// the request context. Every failure is the same generic 401 so callers
// cannot distinguish a malformed token from an expired one.
func Auth(authService services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "access denied")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "access denied")
			}

			principal, err := authService.Validate(c.Request().Context(), tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "access denied")
			}

			ctx := common.WithPrincipal(c.Request().Context(), principal)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
