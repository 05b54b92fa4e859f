package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// dummyPassword is hashed once and compared against when the email is
// unknown or has no local password, so every failure costs one bcrypt
// comparison.
const dummyPassword = "todo-service/timing-equaliser"

// AuthService implements registration, password login and password reset.
type AuthService struct {
	store  ports.CredentialStore
	hasher PasswordHasher
	log    zerolog.Logger

	dummyDigest string
}

func NewAuthService(store ports.CredentialStore, hasher PasswordHasher, log zerolog.Logger) *AuthService {
	return &AuthService{
		store:       store,
		hasher:      hasher,
		log:         log,
		dummyDigest: decoyDigest(hasher),
	}
}

// Register creates a local account. The uniqueness of email is enforced by the
// store's single insert, never by a lookup beforehand.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, asUnavailable("register", err)
	}

	user, err := s.store.Insert(ctx, email, digest)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			s.log.Info().Str("email", email).Msg("registration rejected, email taken")
		}
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return sanitizeUser(user), nil
}

// Authenticate checks an email/password pair. Unknown email and wrong password
// both yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.burnComparison(ctx, password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.HasLocalPassword() {
		s.burnComparison(ctx, password)
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, password, user.Credential)
	if err != nil {
		return nil, asUnavailable("authenticate", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

// ResetPassword overwrites the credential for email. It asks for no proof of
// the previous password.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, newPassword); err != nil {
		return err
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	digest, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return asUnavailable("reset password", err)
	}

	if err := s.store.UpdateCredential(ctx, user.ID, digest); err != nil {
		return err
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

func (s *AuthService) burnComparison(ctx context.Context, password string) {
	_, _ = s.hasher.Verify(ctx, password, s.dummyDigest)
}

// decoyDigest hashes dummyPassword at the hasher's work factor. It is built
// outside the hasher so a cancelled request can never leave it unset.
func decoyDigest(hasher PasswordHasher) string {
	cost := DefaultHashCost
	if c, ok := hasher.(interface{ Cost() int }); ok {
		cost = c.Cost()
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		digest, _ = bcrypt.GenerateFromPassword([]byte(dummyPassword), DefaultHashCost)
	}
	return string(digest)
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return domain.ErrInvalidInput
	}
	if len(password) > maxPasswordBytes {
		return domain.ErrInvalidInput
	}
	return nil
}

// sanitizeUser drops the credential before a user leaves the service.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
