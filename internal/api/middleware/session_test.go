package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/todolist/todo-service/internal/core/domain"
)

type stubAuthenticator struct {
	principals map[string]*domain.Principal
	err        error
}

func (s *stubAuthenticator) RequireAuthenticated(_ context.Context, token string) (*domain.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.principals[token]
	if !ok {
		return nil, domain.ErrSessionInvalid
	}
	return p, nil
}

var testCookies = CookieConfig{Name: "sid", TTL: time.Hour}

func newCtx(cookie string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/todolist", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: cookie})
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSession_RestoresPrincipal(t *testing.T) {
	auth := &stubAuthenticator{principals: map[string]*domain.Principal{
		"tok": {ID: "u1", Email: "alice@example.com"},
	}}
	c, _ := newCtx("tok")

	var got *domain.Principal
	h := Session(auth, testCookies)(func(c echo.Context) error {
		got, _ = Principal(c)
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got == nil || got.ID != "u1" {
		t.Fatalf("expected principal u1, got %+v", got)
	}
}

func TestSession_AnonymousWithoutCookie(t *testing.T) {
	c, _ := newCtx("")

	called := false
	h := Session(&stubAuthenticator{}, testCookies)(func(c echo.Context) error {
		called = true
		if _, ok := Principal(c); ok {
			t.Fatalf("unexpected principal")
		}
		return nil
	})
	if err := h(c); err != nil || !called {
		t.Fatalf("expected next to run, err=%v", err)
	}
}

func TestSession_StaleCookieIsCleared(t *testing.T) {
	c, rec := newCtx("expired")

	h := Session(&stubAuthenticator{}, testCookies)(func(c echo.Context) error {
		if _, ok := Principal(c); ok {
			t.Fatalf("unexpected principal")
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", cookies)
	}
}

func TestSession_StoreOutageIsReported(t *testing.T) {
	auth := &stubAuthenticator{err: fmt.Errorf("load session: %w", domain.ErrUnavailable)}
	c, _ := newCtx("tok")

	h := Session(auth, testCookies)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})
	if err := h(c); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRequireAuthenticated(t *testing.T) {
	c, rec := newCtx("")
	h := RequireAuthenticated("/login")(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/login" {
		t.Fatalf("expected redirect to /login, got %d %s", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	c, rec = newCtx("")
	SetPrincipal(c, &domain.Principal{ID: "u1"})
	called := false
	h = RequireAuthenticated("/login")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil || !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass through, err=%v code=%d", err, rec.Code)
	}
}

func TestCookieConfig_Set(t *testing.T) {
	c, rec := newCtx("")
	cc := CookieConfig{Name: "sid", Secure: true, TTL: 2 * time.Hour}
	cc.Set(c, "tok")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Value != "tok" || !ck.HttpOnly || !ck.Secure || ck.MaxAge != 7200 || ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie %+v", ck)
	}
}
