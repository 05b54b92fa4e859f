package ports

import (
	"context"

	"github.com/todolist/todo-service/internal/core/domain"
)

// CredentialStore is the durable table of user identities.
//
// Implementations must enforce email uniqueness at the store level so that
// Insert is a single atomic insert-or-fail.
type CredentialStore interface {
	// FindByEmail returns domain.ErrUserNotFound when no row matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when no row matches.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindPrincipal loads only id and email for the given user id.
	FindPrincipal(ctx context.Context, id string) (*domain.Principal, error)
	// Insert creates a user and returns it with its assigned id. A unique
	// violation on email yields domain.ErrEmailTaken.
	Insert(ctx context.Context, email, credential string) (*domain.User, error)
	// UpdateCredential replaces the stored credential. Returns
	// domain.ErrUserNotFound when the id does not resolve.
	UpdateCredential(ctx context.Context, id, credential string) error
}
