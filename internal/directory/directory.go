package directory

import (
	"context"
	"fmt"
	"time"
)

// User is the internal user record. At least one of PasswordHash or
// FederatedID is set for an active account; Email is unique across all
// non-deleted records, case-insensitively.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Username     string // optional, unique when present
	PasswordHash string // absent for purely federated accounts
	FederatedID  string // optional, unique when present
	AvatarURL    string
	Bio          string
	Role         string
	IsVerified   bool
	IsActive     bool
	LastSeenAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time // soft-delete marker
}

// NewUser holds the fields required to create a record. Optional string
// fields left empty are stored as NULL so the partial unique indexes
// do not collide on empty values.
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	Username     string
	PasswordHash string
	FederatedID  string
	AvatarURL    string
	IsVerified   bool
}

// Update lists the mutable fields. Nil pointers are left untouched.
type Update struct {
	FirstName    *string
	LastName     *string
	Username     *string
	PasswordHash *string
	FederatedID  *string
	AvatarURL    *string
	Bio          *string
	IsVerified   *bool
	IsActive     *bool
	LastSeenAt   *time.Time
}

// Directory is the lookup/create/update surface consumed by the
// identity resolver and token issuer. Lookups report absence as a nil
// user with a nil error; only Create surfaces a typed conflict.
type Directory interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByFederatedID(ctx context.Context, federatedID string) (*User, error)
	Create(ctx context.Context, n NewUser) (*User, error)
	Update(ctx context.Context, id string, u Update) (int64, error)
}

// ConflictError reports a unique-constraint violation on Create. The
// constraint name identifies which uniqueness rule was hit.
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("directory: unique constraint violated: %s", e.Constraint)
}
