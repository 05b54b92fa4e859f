package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/todolist/todo-service/internal/core/domain"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// providerServer fakes a token endpoint plus the profile endpoints of both
// providers. badCode makes the token endpoint reject the grant.
func providerServer(t *testing.T, badCode string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") == badCode {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		writeJSON(w, map[string]any{"access_token": "access-123", "token_type": "bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{"sub": "g-1", "email": "alice@example.com", "email_verified": true})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": 42, "login": "bob"})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"email": "bob-alt@example.com", "primary": false, "verified": true},
			{"email": "bob@example.com", "primary": true, "verified": true},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEndpoint(base string) oauth2.Endpoint {
	return oauth2.Endpoint{AuthURL: base + "/auth", TokenURL: base + "/token", AuthStyle: oauth2.AuthStyleInParams}
}

var testClient = ClientConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost:4000/auth/google/callback", Timeout: 2 * time.Second}

func TestGoogle_Exchange(t *testing.T) {
	srv := providerServer(t, "")
	p := newGoogle(testClient, testEndpoint(srv.URL), srv.URL+"/userinfo")

	assertion, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, assertion.Provider)
	assert.Equal(t, "g-1", assertion.Subject)
	assert.Equal(t, "alice@example.com", assertion.Email)
	assert.True(t, assertion.EmailVerified)
}

func TestGitHub_Exchange_UsesPrimaryEmail(t *testing.T) {
	srv := providerServer(t, "")
	p := newGitHub(testClient, testEndpoint(srv.URL), srv.URL)

	assertion, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "42", assertion.Subject)
	assert.Equal(t, "bob@example.com", assertion.Email)
	assert.True(t, assertion.EmailVerified)
}

func TestExchange_RejectedCode(t *testing.T) {
	srv := providerServer(t, "bad")
	p := newGoogle(testClient, testEndpoint(srv.URL), srv.URL+"/userinfo")

	_, err := p.Exchange(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidOAuthFlow)

	_, err = p.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidOAuthFlow)
}

func TestExchange_ProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	p := newGoogle(testClient, testEndpoint(base), base+"/userinfo")
	_, err := p.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestExchange_ProfileServerError(t *testing.T) {
	srv := providerServer(t, "")
	p := newGoogle(testClient, testEndpoint(srv.URL), srv.URL+"/missing")

	_, err := p.Exchange(context.Background(), "good-code")
	assert.ErrorIs(t, err, domain.ErrInvalidOAuthFlow)
}

func TestAuthCodeURL(t *testing.T) {
	p := newGoogle(testClient, testEndpoint("https://accounts.example.com"), "")

	raw := p.AuthCodeURL("state-xyz")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "https://accounts.example.com/auth?"))
	assert.Equal(t, "state-xyz", u.Query().Get("state"))
	assert.Equal(t, "id", u.Query().Get("client_id"))
	assert.Contains(t, u.Query().Get("scope"), "email")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(NewGoogle(testClient), NewGitHub(testClient))

	p, err := r.Get("github")
	require.NoError(t, err)
	assert.Equal(t, ProviderGitHub, p.Name())

	_, err = r.Get("facebook")
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
	assert.Equal(t, []string{"github", "google"}, r.Names())
}
