package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/todolist/todo-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs outages and unexpected errors with the request id, never echoing
//     the cause to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrSessionInvalid):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrNoEmailFromProvider):
		return http.StatusBadRequest, "identity provider did not supply a verified email"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "task not found"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusNotFound, "unknown identity provider"
	case errors.Is(err, domain.ErrInvalidOAuthFlow):
		return http.StatusBadRequest, "sign-in could not be completed"
	case errors.Is(err, domain.ErrUnavailable):
		entry(log, c).Warn().Err(err).Msg("dependency unavailable")
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	entry(log, c).Error().Err(err).Msg("unhandled error")
	return http.StatusInternalServerError, "internal server error"
}

// entry prefers the request-scoped logger, which already carries the request
// id, and adds method and path.
func entry(log zerolog.Logger, c echo.Context) *zerolog.Logger {
	var lc zerolog.Context
	if scoped := zerolog.Ctx(c.Request().Context()); scoped.GetLevel() != zerolog.Disabled {
		lc = scoped.With()
	} else {
		lc = log.With().Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
	}
	l := lc.
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Logger()
	return &l
}
