package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
	"github.com/hqdung24/Nestjs-auth/internal/auth/credentials"
	"github.com/hqdung24/Nestjs-auth/internal/directory"
	"github.com/hqdung24/Nestjs-auth/internal/logger"
)

// DirectoryResolver resolves identities against the user directory.
// This is the canonical resolver.
type DirectoryResolver struct {
	dir directory.Directory
	now func() time.Time
}

func NewDirectoryResolver(dir directory.Directory) *DirectoryResolver {
	return &DirectoryResolver{
		dir: dir,
		now: time.Now,
	}
}

// ResolveFederated reuses the record matching the federated subject, or
// creates one on first login. An existing local account with the same
// email is reported as a conflict, never silently duplicated or
// auto-linked: linking a password account to an external identity is a
// decision the account owner has to make, not the resolver.
func (r *DirectoryResolver) ResolveFederated(
	ctx context.Context,
	claims *auth.FederatedClaims,
) (*directory.User, bool, error) {

	if claims == nil || claims.SubjectID == "" {
		return nil, false, fmt.Errorf("%w: missing subject", auth.ErrIncompleteClaims)
	}

	// 1. Known federated identity: terminal.
	user, err := r.dir.FindByFederatedID(ctx, claims.SubjectID)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	// 2. First login needs enough claims to build a profile.
	if claims.Email == "" || claims.GivenName == "" || claims.FamilyName == "" {
		return nil, false, fmt.Errorf("%w: email or name missing", auth.ErrIncompleteClaims)
	}

	// 3. A local account already owning this email is a conflict.
	existing, err := r.dir.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return nil, false, auth.ErrEmailAlreadyRegistered
	}

	// 4. Create; a racing request may win the same creation.
	created, err := r.dir.Create(ctx, directory.NewUser{
		FirstName:   claims.GivenName,
		LastName:    claims.FamilyName,
		Email:       claims.Email,
		FederatedID: claims.SubjectID,
		AvatarURL:   claims.Picture,
		IsVerified:  claims.EmailVerified,
	})
	if err == nil {
		return created, true, nil
	}

	var conflict *directory.ConflictError
	if !errors.As(err, &conflict) {
		return nil, false, err
	}

	// A concurrent request created the same federated identity between
	// our lookup and our insert. One re-lookup resolves to that record.
	user, lookupErr := r.dir.FindByFederatedID(ctx, claims.SubjectID)
	if lookupErr != nil {
		return nil, false, lookupErr
	}
	if user != nil {
		return user, false, nil
	}

	if strings.Contains(conflict.Constraint, "email") {
		return nil, false, auth.ErrEmailAlreadyRegistered
	}
	return nil, false, fmt.Errorf("%w: %v", auth.ErrConflictRetryExhausted, conflict)
}

// ResolveLocal authenticates a local credential. The identifier is an
// email when it contains '@', a username otherwise. The mismatch and
// missing-hash paths both cost one bcrypt comparison.
func (r *DirectoryResolver) ResolveLocal(
	ctx context.Context,
	identifier string,
	password string,
) (*directory.User, error) {

	var (
		user *directory.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = r.dir.FindByEmail(ctx, identifier)
	} else {
		user, err = r.dir.FindByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, auth.ErrUserNotFound
	}
	if !user.IsActive || user.DeletedAt != nil {
		return nil, auth.ErrAccountInactive
	}

	if user.PasswordHash == "" {
		// Purely federated account; no password to check.
		credentials.BurnComparison(password)
		return nil, auth.ErrInvalidCredentials
	}
	if err := credentials.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	r.touchLastSeen(ctx, user)
	return user, nil
}

// RegisterLocal creates a password-based account.
func (r *DirectoryResolver) RegisterLocal(
	ctx context.Context,
	in Registration,
) (*directory.User, error) {

	hash, err := credentials.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidCredentials, err)
	}

	created, err := r.dir.Create(ctx, directory.NewUser{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
	})
	if err == nil {
		return created, nil
	}

	var conflict *directory.ConflictError
	if errors.As(err, &conflict) {
		return nil, auth.ErrEmailAlreadyRegistered
	}
	return nil, err
}

// touchLastSeen records a successful login. Best-effort: a failed
// timestamp update never fails the login itself.
func (r *DirectoryResolver) touchLastSeen(ctx context.Context, user *directory.User) {
	seen := r.now()
	if _, err := r.dir.Update(ctx, user.ID, directory.Update{LastSeenAt: &seen}); err != nil {
		logger.Warn("failed to update last_seen_at", map[string]any{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return
	}
	user.LastSeenAt = &seen
}
