package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/todolist/todo-service/internal/api/metrics"
	"github.com/todolist/todo-service/internal/api/middleware"
	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
	"github.com/todolist/todo-service/pkg/logger"
)

const (
	pathHome     = "/"
	pathLogin    = "/login"
	pathTodolist = "/todolist"
)

type AuthHandler struct {
	auth      ports.AuthService
	sessions  ports.SessionCodec
	cookies   middleware.CookieConfig
	providers ProviderRegistry
}

func NewAuthHandler(auth ports.AuthService, sessions ports.SessionCodec, cookies middleware.CookieConfig, providers ProviderRegistry) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, cookies: cookies, providers: providers}
}

// Home describes the entry points.
//
// @Summary      Home
// @Tags         auth
// @Produce      json
// @Success      200  {object}  homeResponse
// @Router       / [get]
func (h *AuthHandler) Home(c echo.Context) error {
	resp := homeResponse{
		Name: "todolist",
		Links: homeLinks{
			Login:    pathLogin,
			Register: "/register",
			Todolist: pathTodolist,
			Logout:   "/logout",
		},
	}
	if p, ok := middleware.Principal(c); ok {
		resp.Authenticated = true
		resp.Email = p.Email
	}
	return c.JSON(http.StatusOK, resp)
}

// LoginForm describes the login form.
//
// @Summary      Login form
// @Tags         auth
// @Produce      json
// @Param        error  query     string  false  "Error code from a failed attempt"
// @Success      200    {object}  formResponse
// @Router       /login [get]
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.JSON(http.StatusOK, formResponse{
		Form:      "login",
		Action:    pathLogin,
		Method:    http.MethodPost,
		Fields:    credentialFields,
		Providers: h.providerNames(),
		Error:     c.QueryParam("error"),
	})
}

// RegisterForm describes the registration form.
//
// @Summary      Registration form
// @Tags         auth
// @Produce      json
// @Success      200  {object}  formResponse
// @Router       /register [get]
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return c.JSON(http.StatusOK, formResponse{
		Form:      "register",
		Action:    "/register",
		Method:    http.MethodPost,
		Fields:    credentialFields,
		Providers: h.providerNames(),
	})
}

// Register creates an account and signs it in.
//
// @Summary      Register
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Param        username  formData  string  true  "Email"
// @Param        password  formData  string  true  "Password"
// @Success      302  {string}  string  "redirect"
// @Failure      400  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	user, err := h.auth.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registrationResult(err)).Inc()
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues("created").Inc()

	if err := h.openSession(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, pathTodolist)
}

// Login authenticates with email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Param        username  formData  string  true  "Email"
// @Param        password  formData  string  true  "Password"
// @Success      302  {string}  string  "redirect"
// @Failure      503  {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("password", "failure").Inc()
		return redirectLoginError(c, "invalid_credentials")
	}

	user, err := h.auth.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AuthAttemptsTotal.WithLabelValues("password", "failure").Inc()
			return redirectLoginError(c, "invalid_credentials")
		}
		metrics.AuthAttemptsTotal.WithLabelValues("password", "error").Inc()
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("password", "success").Inc()

	if err := h.openSession(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, pathTodolist)
}

// Logout ends the session.
//
// @Summary      Logout
// @Tags         auth
// @Success      302  {string}  string  "redirect"
// @Router       /logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := h.cookies.Token(c); token != "" {
		if err := h.sessions.Destroy(c.Request().Context(), token); err != nil {
			l := logger.FromContext(c.Request().Context())
			l.Warn().Err(err).Msg("failed to destroy session on logout")
		} else {
			metrics.SessionsTotal.WithLabelValues("destroyed").Inc()
		}
	}
	h.cookies.Clear(c)
	return c.Redirect(http.StatusFound, pathHome)
}

// ResetPassword replaces the password of an existing account. The endpoint
// is unauthenticated; see DESIGN.md.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Param        username  formData  string  true  "Email"
// @Param        password  formData  string  true  "New password"
// @Success      302  {string}  string  "redirect"
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.auth.ResetPassword(c.Request().Context(), req.Username, req.Password); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, pathLogin)
}

// openSession replaces any session the browser already holds with a fresh
// one for user.
func (h *AuthHandler) openSession(c echo.Context, user *domain.User) error {
	return openSession(c.Request().Context(), c, h.sessions, h.cookies, user)
}

func openSession(ctx context.Context, c echo.Context, sessions ports.SessionCodec, cookies middleware.CookieConfig, user *domain.User) error {
	if old := cookies.Token(c); old != "" {
		_ = sessions.Destroy(ctx, old)
	}
	token, err := sessions.Encode(ctx, user)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	cookies.Set(c, token)
	middleware.SetPrincipal(c, user.Principal())
	metrics.SessionsTotal.WithLabelValues("opened").Inc()
	return nil
}

func (h *AuthHandler) providerNames() []string {
	if h.providers == nil {
		return nil
	}
	return h.providers.Names()
}

func redirectLoginError(c echo.Context, code string) error {
	return c.Redirect(http.StatusFound, pathLogin+"?error="+url.QueryEscape(code))
}

func registrationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
