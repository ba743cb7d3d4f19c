package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/magmutual/users-api/internal/core/ports"
)

// AuthService exchanges principal credentials for a bearer token.
type AuthService struct {
	directory ports.PrincipalDirectory
	codec     ports.TokenCodec
	logger    zerolog.Logger
}

func NewAuthService(directory ports.PrincipalDirectory, codec ports.TokenCodec, logger zerolog.Logger) *AuthService {
	return &AuthService{directory: directory, codec: codec, logger: logger}
}

// Authenticate always consults the directory, even for empty input, so every
// failure returns the same error after the same amount of work.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, error) {
	principal, err := s.directory.Authenticate(username, password)
	if err != nil {
		s.logger.Info().Str("username", username).Msg("authentication failed")
		return "", err
	}

	token, err := s.codec.Generate(principal.Name, principal.Capabilities)
	if err != nil {
		return "", err
	}

	s.logger.Debug().Str("username", principal.Name).Msg("token issued")
	return token, nil
}
