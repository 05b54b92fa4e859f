package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

// IdentityResolver joins a federated sign-in to a local user by email.
//
// An existing account with the same email is returned whatever created it, so
// a locally registered user may later sign in through a provider. This trusts
// the provider's email verification: whoever controls the address there
// controls the local account.
type IdentityResolver struct {
	store ports.CredentialStore
	log   zerolog.Logger
}

func NewIdentityResolver(store ports.CredentialStore, log zerolog.Logger) *IdentityResolver {
	return &IdentityResolver{store: store, log: log}
}

func (r *IdentityResolver) Resolve(ctx context.Context, assertion ports.ProviderAssertion) (*domain.User, error) {
	email := strings.TrimSpace(assertion.Email)
	if email == "" || !assertion.EmailVerified {
		return nil, domain.ErrNoEmailFromProvider
	}

	user, err := r.store.FindByEmail(ctx, email)
	if err == nil {
		r.log.Info().
			Str("provider", assertion.Provider).
			Str("user_id", user.ID).
			Msg("federated sign-in joined existing user")
		return sanitizeUser(user), nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	created, err := r.store.Insert(ctx, email, domain.FederatedCredential)
	if errors.Is(err, domain.ErrEmailTaken) {
		// a concurrent first sign-in won the insert
		existing, findErr := r.store.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, findErr
		}
		return sanitizeUser(existing), nil
	}
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Str("provider", assertion.Provider).
		Str("user_id", created.ID).
		Msg("federated user created")
	return sanitizeUser(created), nil
}
