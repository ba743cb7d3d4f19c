package domain

import "context"

// Capability names one class of operation on users.
type Capability string

const (
	CapGetUsers    Capability = "GET_USERS"
	CapPostUsers   Capability = "POST_USERS"
	CapPutUsers    Capability = "PUT_USERS"
	CapDeleteUsers Capability = "DELETE_USERS"
)

const (
	PrincipalUser  = "user"
	PrincipalAdmin = "admin"
)

// Principal is a statically configured account. Immutable after startup.
type Principal struct {
	Name         string
	SecretHash   []byte
	Capabilities []Capability
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	Subject      string
	Capabilities []Capability
}

// Has reports whether the identity holds capability c.
func (i Identity) Has(c Capability) bool {
	for _, have := range i.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// CapabilityNames converts capabilities to their string form, keeping order.
func CapabilityNames(caps []Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}

// ParseCapabilities is the inverse of CapabilityNames.
func ParseCapabilities(names []string) []Capability {
	out := make([]Capability, len(names))
	for i, n := range names {
		out[i] = Capability(n)
	}
	return out
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity installed in ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
