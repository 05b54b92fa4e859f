package ports

import "context"

// ProviderAssertion is the claim set an OAuth provider vouches for after the
// redirect handshake completed.
type ProviderAssertion struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
}

// IdentityProvider drives one OAuth provider's redirect handshake.
type IdentityProvider interface {
	Name() string
	// AuthCodeURL is the provider URL the browser is redirected to.
	AuthCodeURL(state string) string
	// Exchange trades the callback code for the provider's verified claims.
	Exchange(ctx context.Context, code string) (ProviderAssertion, error)
}
