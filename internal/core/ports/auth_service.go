package ports

import (
	"context"

	"github.com/todolist/todo-service/internal/core/domain"
)

// AuthService covers the local password flows.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
}

// IdentityResolver maps a provider assertion to a local user.
type IdentityResolver interface {
	Resolve(ctx context.Context, assertion ProviderAssertion) (*domain.User, error)
}

// SessionCodec persists a principal into the session store and restores it.
type SessionCodec interface {
	Encode(ctx context.Context, user *domain.User) (string, error)
	Decode(ctx context.Context, token string) (*domain.Principal, error)
	Destroy(ctx context.Context, token string) error
}
