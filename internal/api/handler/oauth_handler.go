package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/todolist/todo-service/internal/api/metrics"
	"github.com/todolist/todo-service/internal/api/middleware"
	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
	"github.com/todolist/todo-service/pkg/logger"
)

const nonceCookie = "oauth_nonce"

// ProviderRegistry looks up configured identity providers.
type ProviderRegistry interface {
	Get(name string) (ports.IdentityProvider, error)
	Names() []string
}

// StateSigner issues and checks the OAuth state parameter.
type StateSigner interface {
	Issue(provider string) (state, nonce string, err error)
	Verify(state, provider, nonce string) error
	TTL() time.Duration
}

type OAuthHandler struct {
	providers ProviderRegistry
	states    StateSigner
	resolver  ports.IdentityResolver
	sessions  ports.SessionCodec
	cookies   middleware.CookieConfig
}

func NewOAuthHandler(providers ProviderRegistry, states StateSigner, resolver ports.IdentityResolver, sessions ports.SessionCodec, cookies middleware.CookieConfig) *OAuthHandler {
	return &OAuthHandler{
		providers: providers,
		states:    states,
		resolver:  resolver,
		sessions:  sessions,
		cookies:   cookies,
	}
}

// Start redirects the browser to the provider.
//
// @Summary      Start provider sign-in
// @Tags         oauth
// @Param        provider  path  string  true  "google or github"
// @Success      302  {string}  string  "redirect"
// @Failure      404  {object}  errorResponse
// @Router       /auth/{provider} [get]
func (h *OAuthHandler) Start(c echo.Context) error {
	name := c.Param("provider")
	provider, err := h.providers.Get(name)
	if err != nil {
		return err
	}

	state, nonce, err := h.states.Issue(name)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     nonceCookie,
		Value:    nonce,
		Path:     "/auth/" + name,
		MaxAge:   int(h.states.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// Callback completes the handshake, resolves the local user and opens a
// session.
//
// @Summary      Provider callback
// @Tags         oauth
// @Param        provider  path   string  true   "google or github"
// @Param        code      query  string  false  "Authorization code"
// @Param        state     query  string  false  "Signed state"
// @Success      302  {string}  string  "redirect"
// @Failure      400  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /auth/{provider}/callback [get]
func (h *OAuthHandler) Callback(c echo.Context) error {
	name := c.Param("provider")
	provider, err := h.providers.Get(name)
	if err != nil {
		return err
	}

	nonce := ""
	if ck, err := c.Cookie(nonceCookie); err == nil {
		nonce = ck.Value
	}
	c.SetCookie(&http.Cookie{
		Name:     nonceCookie,
		Value:    "",
		Path:     "/auth/" + name,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	if c.QueryParam("error") != "" {
		metrics.AuthAttemptsTotal.WithLabelValues(name, "failure").Inc()
		return redirectLoginError(c, "oauth_denied")
	}

	if err := h.states.Verify(c.QueryParam("state"), name, nonce); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(name, "failure").Inc()
		return err
	}

	ctx := c.Request().Context()
	assertion, err := provider.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(name, attemptResult(err)).Inc()
		return err
	}

	user, err := h.resolver.Resolve(ctx, assertion)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(name, attemptResult(err)).Inc()
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues(name, "success").Inc()

	if err := openSession(ctx, c, h.sessions, h.cookies, user); err != nil {
		return fmt.Errorf("oauth %s: %w", name, err)
	}

	l := logger.FromContext(ctx)
	l.Info().Str("provider", name).Str("user_id", user.ID).Msg("provider sign-in")
	return c.Redirect(http.StatusFound, pathTodolist)
}

func attemptResult(err error) string {
	if errors.Is(err, domain.ErrUnavailable) {
		return "error"
	}
	return "failure"
}
