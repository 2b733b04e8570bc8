package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/clipshare/internal/common"
	"github.com/labstack/echo/v4"
)

const msgInternal = "internal error"

// statusFor maps a service error to an HTTP status and a client-facing
// message. Unknown errors become 500 without details.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, common.Message(err, "invalid request")
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest, common.Message(err, "already exists")
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, common.Message(err, "unauthorized")
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.Message(err, "not found")
	case errors.Is(err, common.ErrorInternal):
		return http.StatusInternalServerError, common.Message(err, msgInternal)
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeError(c echo.Context, err error) error {
	status, msg := statusFor(err)
	return jsonError(c, status, msg)
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// httpErrorHandler renders echo's own errors (unknown route, bad method,
// panics recovered by middleware) in the API error shape.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := http.StatusInternalServerError, msgInternal
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = jsonError(c, status, msg)
}
