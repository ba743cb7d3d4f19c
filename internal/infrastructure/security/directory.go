package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/magmutual/users-api/internal/core/domain"
)

// PrincipalSpec is the plaintext description of a principal, hashed once by
// NewDirectory.
type PrincipalSpec struct {
	Name         string
	Secret       string
	Capabilities []domain.Capability
}

// DefaultPrincipals returns the two built-in accounts: "user" may read,
// "admin" may do everything.
func DefaultPrincipals(userSecret, adminSecret string) []PrincipalSpec {
	return []PrincipalSpec{
		{
			Name:         domain.PrincipalUser,
			Secret:       userSecret,
			Capabilities: []domain.Capability{domain.CapGetUsers},
		},
		{
			Name:   domain.PrincipalAdmin,
			Secret: adminSecret,
			Capabilities: []domain.Capability{
				domain.CapGetUsers,
				domain.CapPostUsers,
				domain.CapPutUsers,
				domain.CapDeleteUsers,
			},
		},
	}
}

// Directory is an immutable, in-memory principal table.
type Directory struct {
	principals map[string]domain.Principal
	// dummyHash is compared against when the name is unknown so both failure
	// paths cost one bcrypt comparison.
	dummyHash []byte
}

func NewDirectory(cost int, specs ...PrincipalSpec) (*Directory, error) {
	d := &Directory{principals: make(map[string]domain.Principal, len(specs))}

	for _, s := range specs {
		if s.Name == "" || s.Secret == "" {
			return nil, fmt.Errorf("principal %q: name and secret are required", s.Name)
		}
		if _, dup := d.principals[s.Name]; dup {
			return nil, fmt.Errorf("principal %q declared twice", s.Name)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Secret), cost)
		if err != nil {
			return nil, fmt.Errorf("hash secret for %q: %w", s.Name, err)
		}
		caps := make([]domain.Capability, len(s.Capabilities))
		copy(caps, s.Capabilities)
		d.principals[s.Name] = domain.Principal{Name: s.Name, SecretHash: hash, Capabilities: caps}
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("no-such-principal"), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy secret: %w", err)
	}
	d.dummyHash = dummy

	return d, nil
}

// Lookup is an exact, case-sensitive match.
func (d *Directory) Lookup(name string) (*domain.Principal, error) {
	p, ok := d.principals[name]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return clonePrincipal(p), nil
}

// Authenticate returns domain.ErrInvalidCredentials for an unknown name and
// for a wrong secret alike.
func (d *Directory) Authenticate(name, secret string) (*domain.Principal, error) {
	p, ok := d.principals[name]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(d.dummyHash, []byte(secret))
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(p.SecretHash, []byte(secret)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return clonePrincipal(p), nil
}

func clonePrincipal(p domain.Principal) *domain.Principal {
	caps := make([]domain.Capability, len(p.Capabilities))
	copy(caps, p.Capabilities)
	p.Capabilities = caps
	return &p
}
