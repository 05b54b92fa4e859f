package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt work factor used when none is configured.
const DefaultHashCost = 10

// PasswordHasher produces and checks salted one-way password digests.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports false for a wrong password or a malformed digest. The
	// error is reserved for the hasher being unable to run at all.
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}

// Runner executes fn off the calling goroutine's hot path and waits for it.
// *queue.Pool satisfies it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// HasherOption customises a BcryptHasher.
type HasherOption func(*BcryptHasher)

// WithObserver registers a callback receiving the duration of every hash or
// verify ("hash" / "verify").
func WithObserver(fn func(op string, d time.Duration)) HasherOption {
	return func(h *BcryptHasher) { h.observe = fn }
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost    int
	runner  Runner
	observe func(op string, d time.Duration)
}

// NewBcryptHasher returns a hasher with the given cost. A nil runner runs the
// work inline.
func NewBcryptHasher(cost int, runner Runner, opts ...HasherOption) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	h := &BcryptHasher{cost: cost, runner: runner}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	var (
		digest []byte
		err    error
	)
	if runErr := h.run(ctx, "hash", func() {
		digest, err = bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	}); runErr != nil {
		return "", fmt.Errorf("hash password: %w", runErr)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	var match bool
	if err := h.run(ctx, "verify", func() {
		match = bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	}); err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	return match, nil
}

func (h *BcryptHasher) run(ctx context.Context, op string, fn func()) error {
	work := fn
	if h.observe != nil {
		work = func() {
			start := time.Now()
			fn()
			h.observe(op, time.Since(start))
		}
	}
	if h.runner == nil {
		work()
		return nil
	}
	return h.runner.Do(ctx, work)
}
