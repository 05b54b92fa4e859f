package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

func googleAssertion(email string) ports.ProviderAssertion {
	return ports.ProviderAssertion{Provider: "google", Subject: "sub-" + email, Email: email, EmailVerified: true}
}

func TestIdentityResolver_CreatesFederatedUser(t *testing.T) {
	store := newStubCredentialStore()
	r := NewIdentityResolver(store, zerolog.Nop())

	user, err := r.Resolve(context.Background(), googleAssertion("fed@example.com"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user.Email != "fed@example.com" || user.ID == "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if got := store.credentialOf("fed@example.com"); got != domain.FederatedCredential {
		t.Fatalf("expected federated sentinel, got %q", got)
	}
	if user.Credential != "" {
		t.Fatalf("credential leaked from Resolve")
	}
}

func TestIdentityResolver_IsIdempotent(t *testing.T) {
	store := newStubCredentialStore()
	r := NewIdentityResolver(store, zerolog.Nop())

	first, err := r.Resolve(context.Background(), googleAssertion("fed@example.com"))
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := r.Resolve(context.Background(), googleAssertion("fed@example.com"))
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same id, got %s and %s", first.ID, second.ID)
	}
	if store.count() != 1 {
		t.Fatalf("expected one user, got %d", store.count())
	}
}

func TestIdentityResolver_JoinsLocalAccount(t *testing.T) {
	store := newStubCredentialStore()
	auth := newAuthSvc(store)
	local, err := auth.Register(context.Background(), "alice@example.com", "pw123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	r := NewIdentityResolver(store, zerolog.Nop())
	user, err := r.Resolve(context.Background(), googleAssertion("alice@example.com"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user.ID != local.ID {
		t.Fatalf("expected federated sign-in to join local user %s, got %s", local.ID, user.ID)
	}
	// the local password must be left alone
	if _, err := auth.Authenticate(context.Background(), "alice@example.com", "pw123"); err != nil {
		t.Fatalf("local password broken after federated join: %v", err)
	}
}

func TestIdentityResolver_NoEmail(t *testing.T) {
	r := NewIdentityResolver(newStubCredentialStore(), zerolog.Nop())

	cases := map[string]ports.ProviderAssertion{
		"missing":    {Provider: "google", Subject: "123", EmailVerified: true},
		"unverified": {Provider: "github", Subject: "123", Email: "x@example.com", EmailVerified: false},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := r.Resolve(context.Background(), a); !errors.Is(err, domain.ErrNoEmailFromProvider) {
				t.Fatalf("expected ErrNoEmailFromProvider, got %v", err)
			}
		})
	}
}

func TestIdentityResolver_LosesInsertRace(t *testing.T) {
	store := newStubCredentialStore()
	// another request creates the row between our lookup and our insert
	store.insertHook = func() {
		store.insertHook = nil
		_, _ = store.Insert(context.Background(), "fed@example.com", domain.FederatedCredential)
	}
	r := NewIdentityResolver(store, zerolog.Nop())

	user, err := r.Resolve(context.Background(), googleAssertion("fed@example.com"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("expected the winner's row u1, got %s", user.ID)
	}
	if store.count() != 1 {
		t.Fatalf("expected one user, got %d", store.count())
	}
}

func TestIdentityResolver_StoreFailure(t *testing.T) {
	store := newStubCredentialStore()
	store.findErr = errors.New("timeout")
	r := NewIdentityResolver(NewGuardedCredentialStore(store, 0, zerolog.Nop()), zerolog.Nop())

	if _, err := r.Resolve(context.Background(), googleAssertion("fed@example.com")); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
