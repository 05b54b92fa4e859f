package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

const tokenBytes = 32

// sessionRecord is everything persisted for a session: the user id only.
type sessionRecord struct {
	UserID string `json:"uid"`
}

// SessionCodec stores a principal behind an opaque token and restores it on
// later requests.
type SessionCodec struct {
	sessions ports.SessionStore
	users    ports.CredentialStore
	log      zerolog.Logger
}

func NewSessionCodec(sessions ports.SessionStore, users ports.CredentialStore, log zerolog.Logger) *SessionCodec {
	return &SessionCodec{sessions: sessions, users: users, log: log}
}

// Encode issues a new token for user.
func (c *SessionCodec) Encode(ctx context.Context, user *domain.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", domain.ErrInvalidInput
	}

	token, err := newSessionToken()
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	data, err := json.Marshal(sessionRecord{UserID: user.ID})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	if err := c.sessions.Save(ctx, token, data); err != nil {
		return "", asUnavailable("save session", err)
	}
	return token, nil
}

// Decode resolves token back to a principal. Absent, expired or corrupt
// sessions and users that no longer exist all yield domain.ErrSessionInvalid.
func (c *SessionCodec) Decode(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrSessionInvalid
	}

	data, err := c.sessions.Load(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, asUnavailable("load session", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.UserID == "" {
		c.log.Warn().Msg("discarding unreadable session record")
		return nil, domain.ErrSessionInvalid
	}

	principal, err := c.users.FindPrincipal(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, err
	}
	return principal, nil
}

// Destroy forgets the session behind token. An empty token is a no-op.
func (c *SessionCodec) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := c.sessions.Destroy(ctx, token); err != nil {
		return asUnavailable("destroy session", err)
	}
	return nil
}

func newSessionToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
