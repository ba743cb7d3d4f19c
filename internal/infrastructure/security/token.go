package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magmutual/users-api/internal/core/domain"
)

// DefaultTokenTTL is used when NewTokenCodec receives a non-positive ttl.
const DefaultTokenTTL = 10 * time.Hour

// Claims is the token payload: the standard registered claims plus the
// ordered capability list under "authorities".
type Claims struct {
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 tokens with a process-wide secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the codec reading time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *TokenCodec) Generate(subject string, caps []domain.Capability) (string, error) {
	issued := c.now()
	claims := Claims{
		Authorities: domain.CapabilityNames(caps),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *TokenCodec) ExtractSubject(token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", domain.ErrTokenMalformed
	}
	return claims.Subject, nil
}

func (c *TokenCodec) ExtractCapabilities(token string) ([]domain.Capability, error) {
	claims, err := c.parse(token)
	if err != nil {
		return nil, err
	}
	return domain.ParseCapabilities(claims.Authorities), nil
}

// Validate reports whether token is correctly signed, unexpired and issued
// to expectedSubject.
func (c *TokenCodec) Validate(token, expectedSubject string) bool {
	claims, err := c.parse(token)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject
}

// parse verifies the signature before the time-based claims, so a tampered
// expired token reports a bad signature.
func (c *TokenCodec) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, domain.ErrTokenBadSignature
	default:
		return nil, domain.ErrTokenMalformed
	}
}
