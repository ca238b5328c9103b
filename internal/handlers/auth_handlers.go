package handlers

import (
	"errors"
	"net/http"

	"convocore/internal/common"
	"convocore/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
	rbacService services.RBACService
}

func NewAuthHandlers(authService services.AuthService, rbacService services.RBACService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		rbacService: rbacService,
	}
}

// LoginRequest represents the login request payload. TenantHint is the
// optional subdomain selecting which tenant to authenticate against.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	TenantHint string `json:"tenant_hint,omitempty"`
}

// Login authenticates with email and password and returns a token pair.
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	result, err := h.authService.Authenticate(ctx, req.Email, req.Password, req.TenantHint)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// SignupRequest registers a new tenant together with its first admin user.
type SignupRequest struct {
	TenantName string `json:"tenant_name" validate:"required"`
	Subdomain  string `json:"subdomain" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MaxUsers   int    `json:"max_users"`
}

// Signup provisions a tenant with its first admin user and returns a token
// pair, so a fresh deployment can mint credentials without prior state.
func (h *AuthHandlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.TenantName == "" || req.Subdomain == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tenant_name, subdomain, email and password are required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	result, err := h.authService.Signup(ctx, services.SignupInput{
		TenantName: req.TenantName,
		Subdomain:  req.Subdomain,
		MaxUsers:   req.MaxUsers,
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidSubdomain) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, result)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates the presented refresh token for a fresh token pair.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	result, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// Logout revokes the caller's outstanding refresh token. Access tokens
// already issued expire on their own.
func (h *AuthHandlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := common.GetPrincipal(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "access denied")
	}

	if err := h.authService.Logout(ctx, principal.UserID, principal.TenantID); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated principal with its live roles and
// permissions, which may be fresher than the ones in the token.
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := common.GetPrincipal(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "access denied")
	}

	roles, err := h.rbacService.GetUserRoles(ctx, principal.TenantID, principal.UserID)
	if err != nil {
		return respondError(c, err)
	}
	perms, err := h.rbacService.GetUserPermissions(ctx, principal.TenantID, principal.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":     principal.UserID,
		"tenant_id":   principal.TenantID,
		"roles":       roles,
		"permissions": perms,
	})
}
