package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/todolist/todo-service/internal/api/middleware"
	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

var testCookies = middleware.CookieConfig{Name: "sid", TTL: time.Hour}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == testCookies.Name {
			return ck
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Auth service
// ---------------------------------------------------------------------------

type stubAuthService struct {
	registerFn     func(ctx context.Context, email, password string) (*domain.User, error)
	authenticateFn func(ctx context.Context, email, password string) (*domain.User, error)
	resetFn        func(ctx context.Context, email, password string) error
}

func (s *stubAuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	return s.authenticateFn(ctx, email, password)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, email, password string) error {
	return s.resetFn(ctx, email, password)
}

// ---------------------------------------------------------------------------
// Session codec
// ---------------------------------------------------------------------------

type stubSessions struct {
	encodeErr error
	issued    []string
	destroyed []string
}

func (s *stubSessions) Encode(_ context.Context, user *domain.User) (string, error) {
	if s.encodeErr != nil {
		return "", s.encodeErr
	}
	token := "token-" + user.ID
	s.issued = append(s.issued, token)
	return token, nil
}

func (s *stubSessions) Decode(_ context.Context, token string) (*domain.Principal, error) {
	return nil, domain.ErrSessionInvalid
}

func (s *stubSessions) Destroy(_ context.Context, token string) error {
	s.destroyed = append(s.destroyed, token)
	return nil
}

// ---------------------------------------------------------------------------
// OAuth collaborators
// ---------------------------------------------------------------------------

type stubProvider struct {
	name      string
	assertion ports.ProviderAssertion
	err       error
	codes     []string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(_ context.Context, code string) (ports.ProviderAssertion, error) {
	p.codes = append(p.codes, code)
	return p.assertion, p.err
}

type stubRegistry struct {
	providers map[string]ports.IdentityProvider
}

func (r *stubRegistry) Get(name string) (ports.IdentityProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	return p, nil
}

func (r *stubRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	return names
}

// stubStates issues "state-<provider>" bound to nonce "n-1".
type stubStates struct{}

func (stubStates) Issue(provider string) (string, string, error) {
	return "state-" + provider, "n-1", nil
}

func (stubStates) Verify(state, provider, nonce string) error {
	if state != "state-"+provider || nonce != "n-1" {
		return domain.ErrInvalidOAuthFlow
	}
	return nil
}

func (stubStates) TTL() time.Duration { return 10 * time.Minute }

type stubResolver struct {
	user *domain.User
	err  error
}

func (r *stubResolver) Resolve(_ context.Context, a ports.ProviderAssertion) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	if a.Email == "" {
		return nil, domain.ErrNoEmailFromProvider
	}
	return r.user, nil
}

// ---------------------------------------------------------------------------
// Task service
// ---------------------------------------------------------------------------

type stubTaskService struct {
	tasks     []*domain.Task
	err       error
	created   []string
	completed []string
	deleted   []string
}

func (s *stubTaskService) List(_ context.Context, _ *domain.Principal) ([]*domain.Task, error) {
	return s.tasks, s.err
}

func (s *stubTaskService) Create(_ context.Context, p *domain.Principal, title string) (*domain.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, title)
	return &domain.Task{ID: "t1", OwnerID: p.ID, Title: title}, nil
}

func (s *stubTaskService) Complete(_ context.Context, _ *domain.Principal, id string) error {
	if s.err != nil {
		return s.err
	}
	s.completed = append(s.completed, id)
	return nil
}

func (s *stubTaskService) Delete(_ context.Context, _ *domain.Principal, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}
