// Package oauth implements the Google and GitHub redirect handshakes on top
// of golang.org/x/oauth2.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"

	defaultTimeout = 10 * time.Second

	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	githubAPIURL      = "https://api.github.com"
)

// ClientConfig holds one provider's registration.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
}

// Enabled reports whether the provider has been registered.
func (c ClientConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type profileFetcher func(ctx context.Context, client *http.Client) (ports.ProviderAssertion, error)

// Provider is one OAuth provider.
type Provider struct {
	name    string
	conf    *oauth2.Config
	http    *http.Client
	timeout time.Duration
	fetch   profileFetcher
}

var _ ports.IdentityProvider = (*Provider)(nil)

// NewGoogle builds the Google provider using the OpenID userinfo endpoint.
func NewGoogle(cfg ClientConfig) *Provider {
	return newGoogle(cfg, google.Endpoint, googleUserInfoURL)
}

// NewGitHub builds the GitHub provider. GitHub's /user often omits the email
// so the verified primary address is read from /user/emails.
func NewGitHub(cfg ClientConfig) *Provider {
	return newGitHub(cfg, github.Endpoint, githubAPIURL)
}

func newGoogle(cfg ClientConfig, endpoint oauth2.Endpoint, userInfoURL string) *Provider {
	p := newProvider(ProviderGoogle, cfg, endpoint, []string{"openid", "email", "profile"})
	p.fetch = func(ctx context.Context, client *http.Client) (ports.ProviderAssertion, error) {
		var payload struct {
			Sub           string `json:"sub"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"email_verified"`
		}
		if err := getJSON(ctx, client, userInfoURL, &payload); err != nil {
			return ports.ProviderAssertion{}, err
		}
		return ports.ProviderAssertion{
			Provider:      ProviderGoogle,
			Subject:       payload.Sub,
			Email:         payload.Email,
			EmailVerified: payload.EmailVerified,
		}, nil
	}
	return p
}

func newGitHub(cfg ClientConfig, endpoint oauth2.Endpoint, apiURL string) *Provider {
	p := newProvider(ProviderGitHub, cfg, endpoint, []string{"read:user", "user:email"})
	p.fetch = func(ctx context.Context, client *http.Client) (ports.ProviderAssertion, error) {
		var user struct {
			ID int64 `json:"id"`
		}
		if err := getJSON(ctx, client, apiURL+"/user", &user); err != nil {
			return ports.ProviderAssertion{}, err
		}

		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, apiURL+"/user/emails", &emails); err != nil {
			return ports.ProviderAssertion{}, err
		}

		assertion := ports.ProviderAssertion{Provider: ProviderGitHub}
		if user.ID != 0 {
			assertion.Subject = strconv.FormatInt(user.ID, 10)
		}
		for _, e := range emails {
			if e.Primary {
				assertion.Email = e.Email
				assertion.EmailVerified = e.Verified
				break
			}
		}
		return assertion, nil
	}
	return p
}

func newProvider(name string, cfg ClientConfig, endpoint oauth2.Endpoint, scopes []string) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Provider{
		name: name,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades code for a token and reads the profile. A rejected code
// yields domain.ErrInvalidOAuthFlow; transport failures and timeouts yield
// domain.ErrUnavailable.
func (p *Provider) Exchange(ctx context.Context, code string) (ports.ProviderAssertion, error) {
	if code == "" {
		return ports.ProviderAssertion{}, domain.ErrInvalidOAuthFlow
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)

	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return ports.ProviderAssertion{}, p.classify("token exchange", err)
	}

	assertion, err := p.fetch(ctx, p.conf.Client(ctx, token))
	if err != nil {
		return ports.ProviderAssertion{}, p.classify("fetch profile", err)
	}
	return assertion, nil
}

func (p *Provider) classify(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	var statusErr *statusError
	switch {
	case errors.As(err, &retrieveErr):
		return fmt.Errorf("%s %s: %w: %w", p.name, op, domain.ErrInvalidOAuthFlow, err)
	case errors.As(err, &statusErr) && statusErr.code < http.StatusInternalServerError:
		return fmt.Errorf("%s %s: %w: %w", p.name, op, domain.ErrInvalidOAuthFlow, err)
	default:
		return fmt.Errorf("%s %s: %w: %w", p.name, op, domain.ErrUnavailable, err)
	}
}

type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.url, e.code)
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{url: url, code: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
