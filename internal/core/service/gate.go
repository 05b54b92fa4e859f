package service

import (
	"context"

	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

// Gate guards protected operations.
type Gate struct {
	codec ports.SessionCodec
}

func NewGate(codec ports.SessionCodec) *Gate {
	return &Gate{codec: codec}
}

// RequireAuthenticated returns the principal behind token, or
// domain.ErrSessionInvalid when the request is anonymous.
func (g *Gate) RequireAuthenticated(ctx context.Context, token string) (*domain.Principal, error) {
	return g.codec.Decode(ctx, token)
}

// RequireOwnership fails with domain.ErrForbidden unless principal owns the
// resource.
func (g *Gate) RequireOwnership(principal *domain.Principal, ownerID string) error {
	if principal == nil || principal.ID == "" || ownerID == "" || principal.ID != ownerID {
		return domain.ErrForbidden
	}
	return nil
}
