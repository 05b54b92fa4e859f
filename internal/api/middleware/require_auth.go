package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAuthenticated sends anonymous requests to loginPath. It must run
// after Session.
func RequireAuthenticated(loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := Principal(c); !ok {
				return c.Redirect(http.StatusFound, loginPath)
			}
			return next(c)
		}
	}
}
