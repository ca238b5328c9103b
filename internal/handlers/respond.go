package handlers

import (
	"net/http"

	"convocore/internal/common"

	"github.com/labstack/echo/v4"
)

// respondError maps a service error onto the standardized payload. The code
// is derived from the HTTP status so equivalent failures are
// indistinguishable regardless of which operation produced them.
func respondError(c echo.Context, err error) error {
	status := common.HTTPStatus(err)
	return c.JSON(status, common.NewErrorResponse(errorCode(status), errorMessage(status, err)))
}

func errorCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "unprocessable"
	default:
		return "internal"
	}
}

// errorMessage hides internal detail on 5xx; taxonomy errors carry
// messages that are already safe to surface.
func errorMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
