package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/todolist/todo-service/internal/core/domain"
)

type countingRunner struct {
	calls int
	err   error
}

func (r *countingRunner) Do(_ context.Context, fn func()) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	fn()
	return nil
}

func TestBcryptHasher_HashesAreSaltedAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, nil)
	ctx := context.Background()

	a, err := h.Hash(ctx, "pw123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := h.Hash(ctx, "pw123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatalf("expected two digests of the same input to differ")
	}
	if a == "pw123" {
		t.Fatalf("digest equals plaintext")
	}

	for _, digest := range []string{a, b} {
		ok, err := h.Verify(ctx, "pw123", digest)
		if err != nil || !ok {
			t.Fatalf("expected verify to succeed, got ok=%v err=%v", ok, err)
		}
	}

	ok, err := h.Verify(ctx, "wrong", a)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestBcryptHasher_MalformedDigestIsFalse(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, nil)

	for _, digest := range []string{domain.FederatedCredential, "", "$2a$10$short", "not-a-digest"} {
		ok, err := h.Verify(context.Background(), "google", digest)
		if err != nil {
			t.Fatalf("digest %q: unexpected error %v", digest, err)
		}
		if ok {
			t.Fatalf("digest %q: expected false", digest)
		}
	}
}

func TestBcryptHasher_DefaultCost(t *testing.T) {
	h := NewBcryptHasher(0, nil)
	digest, err := h.Hash(context.Background(), "pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != DefaultHashCost {
		t.Fatalf("expected cost %d, got %d", DefaultHashCost, cost)
	}
}

func TestBcryptHasher_UsesRunnerAndObserver(t *testing.T) {
	runner := &countingRunner{}
	var ops []string
	h := NewBcryptHasher(bcrypt.MinCost, runner, WithObserver(func(op string, d time.Duration) {
		ops = append(ops, op)
	}))

	digest, err := h.Hash(context.Background(), "pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := h.Verify(context.Background(), "pw", digest); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if runner.calls != 2 {
		t.Fatalf("expected 2 runner calls, got %d", runner.calls)
	}
	if len(ops) != 2 || ops[0] != "hash" || ops[1] != "verify" {
		t.Fatalf("unexpected observed ops: %v", ops)
	}
}

func TestBcryptHasher_RunnerFailure(t *testing.T) {
	runner := &countingRunner{err: context.DeadlineExceeded}
	h := NewBcryptHasher(bcrypt.MinCost, runner)

	if _, err := h.Hash(context.Background(), "pw"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error from Hash, got %v", err)
	}
	ok, err := h.Verify(context.Background(), "pw", "digest")
	if ok || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error from Verify, got ok=%v err=%v", ok, err)
	}
}
