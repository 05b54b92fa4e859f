package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/todolist/todo-service/internal/api/metrics"
	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/pkg/logger"
)

const principalKey = "principal"

// Authenticator resolves a session token to its principal.
type Authenticator interface {
	RequireAuthenticated(ctx context.Context, token string) (*domain.Principal, error)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Set writes token as an HttpOnly, SameSite=Lax cookie.
func (cc CookieConfig) Set(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cc.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cc.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie on the client.
func (cc CookieConfig) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     cc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token returns the session token sent by the client, if any.
func (cc CookieConfig) Token(c echo.Context) string {
	cookie, err := c.Cookie(cc.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Session restores the principal behind the session cookie. Requests without
// a usable session pass through anonymously; a stale cookie is cleared. A
// session store outage is reported rather than treated as anonymous.
func Session(auth Authenticator, cookies CookieConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := cookies.Token(c)
			if token == "" {
				return next(c)
			}

			principal, err := auth.RequireAuthenticated(c.Request().Context(), token)
			switch {
			case err == nil:
				SetPrincipal(c, principal)
				ctx := c.Request().Context()
				l := logger.FromContext(ctx).With().Str("user_id", principal.ID).Logger()
				c.SetRequest(c.Request().WithContext(logger.WithContext(ctx, l)))
			case errors.Is(err, domain.ErrSessionInvalid):
				metrics.SessionsTotal.WithLabelValues("rejected").Inc()
				cookies.Clear(c)
			default:
				return err
			}
			return next(c)
		}
	}
}

// SetPrincipal stores p on the request.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// Principal returns the authenticated principal, if any.
func Principal(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(principalKey).(*domain.Principal)
	return p, ok && p != nil
}
