package oauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/todolist/todo-service/internal/core/domain"
)

const defaultStateTTL = 10 * time.Minute

// StateSigner issues and checks the OAuth state parameter. The state is an
// HS256 token carrying the provider name and a nonce; the same nonce is kept
// in a cookie on the browser that started the flow.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is how long an issued state stays valid.
func (s *StateSigner) TTL() time.Duration { return s.ttl }

// Issue returns a signed state and the nonce to bind it to.
func (s *StateSigner) Issue(provider string) (state, nonce string, err error) {
	nonce = uuid.NewString()
	now := s.now()
	claims := jwt.MapClaims{
		"prv":   provider,
		"nonce": nonce,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}

	state, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign oauth state: %w", err)
	}
	return state, nonce, nil
}

// Verify checks signature, expiry, provider and nonce. Any mismatch is
// domain.ErrInvalidOAuthFlow.
func (s *StateSigner) Verify(state, provider, nonce string) error {
	if state == "" || nonce == "" {
		return domain.ErrInvalidOAuthFlow
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidOAuthFlow, err)
	}

	prv, _ := claims["prv"].(string)
	got, _ := claims["nonce"].(string)
	if prv != provider || got != nonce {
		return domain.ErrInvalidOAuthFlow
	}
	return nil
}
