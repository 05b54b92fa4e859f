package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

const (
	defaultStoreTimeout = 3 * time.Second
	readRetryDelay      = 50 * time.Millisecond
)

// GuardedCredentialStore decorates a CredentialStore with a per-call timeout
// and a single retry on failed reads. Any failure that is not a domain
// outcome (not found / email taken) comes back wrapping domain.ErrUnavailable.
type GuardedCredentialStore struct {
	next    ports.CredentialStore
	timeout time.Duration
	log     zerolog.Logger
}

func NewGuardedCredentialStore(next ports.CredentialStore, timeout time.Duration, log zerolog.Logger) *GuardedCredentialStore {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &GuardedCredentialStore{next: next, timeout: timeout, log: log}
}

func (g *GuardedCredentialStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := g.read(ctx, "find user by email", func(ctx context.Context) error {
		var err error
		user, err = g.next.FindByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (g *GuardedCredentialStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := g.read(ctx, "find user by id", func(ctx context.Context) error {
		var err error
		user, err = g.next.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (g *GuardedCredentialStore) FindPrincipal(ctx context.Context, id string) (*domain.Principal, error) {
	var p *domain.Principal
	err := g.read(ctx, "find principal", func(ctx context.Context) error {
		var err error
		p, err = g.next.FindPrincipal(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Insert is attempted once: retrying a write whose outcome is unknown could
// report ErrEmailTaken for the caller's own row.
func (g *GuardedCredentialStore) Insert(ctx context.Context, email, credential string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	user, err := g.next.Insert(ctx, email, credential)
	if err != nil {
		return nil, g.classify("insert user", err)
	}
	return user, nil
}

func (g *GuardedCredentialStore) UpdateCredential(ctx context.Context, id, credential string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.next.UpdateCredential(ctx, id, credential); err != nil {
		return g.classify("update credential", err)
	}
	return nil
}

func (g *GuardedCredentialStore) read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(readRetryDelay))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		err := fn(callCtx)
		if err == nil || isStoreOutcome(err) {
			return err
		}
		if attempt == 1 {
			g.log.Warn().Err(err).Str("op", op).Msg("credential store read failed, retrying")
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		return g.classify(op, err)
	}
	return nil
}

func (g *GuardedCredentialStore) classify(op string, err error) error {
	if isStoreOutcome(err) {
		return err
	}
	return asUnavailable(op, err)
}

// isStoreOutcome reports errors that are answers, not failures.
func isStoreOutcome(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrEmailTaken)
}

// asUnavailable wraps err so that errors.Is(err, domain.ErrUnavailable) holds
// while the cause stays reachable for logging.
func asUnavailable(op string, err error) error {
	if errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}
