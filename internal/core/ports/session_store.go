package ports

import "context"

// SessionStore is opaque key-value persistence keyed by a server-issued token.
// Expiry is the store's business.
type SessionStore interface {
	// Load returns domain.ErrSessionNotFound when the token is absent or expired.
	Load(ctx context.Context, token string) ([]byte, error)
	Save(ctx context.Context, token string, data []byte) error
	Destroy(ctx context.Context, token string) error
}
