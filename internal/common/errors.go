package common

import (
	"errors"
	"net/http"
)

// Error taxonomy surfaced by the identity core. Callers match with errors.Is
// and decide transport mapping; nothing below is ever swallowed into a
// generic success.
var (
	// ErrInvalidCredentials is returned for every authentication failure,
	// identical whether the email is unknown or the password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired and ErrTokenInvalid are distinguished internally for
	// logging; both surface to callers as unauthorized.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTenantCapacityExceeded blocks user creation once a tenant's active
	// user count has reached max_users.
	ErrTenantCapacityExceeded = errors.New("tenant user capacity reached")

	// ErrDuplicate maps unique-constraint violations (email, subdomain,
	// role name) on create.
	ErrDuplicate = errors.New("duplicate value violates a uniqueness constraint")

	// ErrCrossTenantViolation marks any attempt to read or write data
	// outside the caller's tenant scope. Always fatal to the request.
	ErrCrossTenantViolation = errors.New("cross-tenant access denied")

	// ErrNotFound covers both "does not exist" and "exists in another
	// tenant" so tenant existence never leaks.
	ErrNotFound = errors.New("not found")

	// ErrTenantRequired is the fail-closed result of running a
	// tenant-scoped operation with an empty tenant context.
	ErrTenantRequired = errors.New("tenant context required")
)

// HTTPStatus maps a taxonomy error onto its HTTP status. Authentication and
// authorization failures share a status and message so callers cannot probe
// which resource exists.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, ErrCrossTenantViolation),
		errors.Is(err, ErrTenantRequired):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrTenantCapacityExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the standardized error payload.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewErrorResponse builds a standardized error payload.
func NewErrorResponse(code, message string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	return &resp
}
