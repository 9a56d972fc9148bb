package resolver

import (
	"context"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
	"github.com/hqdung24/Nestjs-auth/internal/directory"
)

// Resolver determines which internal user an identity belongs to.
// It is the ONLY place where identity-to-user mapping logic lives.
type Resolver interface {
	// ResolveFederated maps verified federated claims to exactly one
	// user record, creating one on first login. isNew reports whether
	// the record was created by this call.
	ResolveFederated(ctx context.Context, claims *auth.FederatedClaims) (user *directory.User, isNew bool, err error)

	// ResolveLocal authenticates an email-or-username identifier
	// against the stored password hash.
	ResolveLocal(ctx context.Context, identifier, password string) (*directory.User, error)

	// RegisterLocal creates a password-based account.
	RegisterLocal(ctx context.Context, in Registration) (*directory.User, error)
}

// Registration holds the fields of a local signup.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string
}
