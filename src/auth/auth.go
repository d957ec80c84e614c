package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken indicates the supplied bearer token did not resolve to an
// identity. This is a normal failure return, not an exceptional condition.
var ErrInvalidToken = errors.New("invalid token")

// Identity represents an authenticated principal bound to a session.
type Identity struct {
	UserID string
	Name   string
}

// Verifier validates an opaque bearer token and returns the identity it
// belongs to. Implementations return ErrInvalidToken for tokens that do not
// verify; any other error is an infrastructure failure.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// StaticVerifier resolves tokens from a fixed in-memory map. Useful for
// development and tests.
type StaticVerifier struct {
	tokens map[string]Identity
}

// NewStaticVerifier creates a verifier backed by the given token→identity map.
func NewStaticVerifier(tokens map[string]Identity) *StaticVerifier {
	cp := make(map[string]Identity, len(tokens))
	for k, v := range tokens {
		cp[k] = v
	}
	return &StaticVerifier{tokens: cp}
}

// Verify implements Verifier.
func (s *StaticVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	id, ok := s.tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &id, nil
}
