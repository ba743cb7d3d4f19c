package ports

import (
	"context"

	"github.com/magmutual/users-api/internal/core/domain"
)

type AuthService interface {
	// Authenticate returns a signed token for a principal whose secret matches.
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// TokenCodec signs and parses bearer tokens.
type TokenCodec interface {
	Generate(subject string, caps []domain.Capability) (string, error)
	ExtractSubject(token string) (string, error)
	ExtractCapabilities(token string) ([]domain.Capability, error)
	Validate(token, expectedSubject string) bool
}

// PrincipalDirectory resolves the configured principals.
type PrincipalDirectory interface {
	Lookup(name string) (*domain.Principal, error)
	Authenticate(name, secret string) (*domain.Principal, error)
}
