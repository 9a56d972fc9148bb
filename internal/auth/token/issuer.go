package token

import (
	"context"
	"fmt"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
	"github.com/hqdung24/Nestjs-auth/internal/directory"
)

// Pair bundles a short-lived access token and a long-lived refresh
// token. Pairs are never persisted; the server holds no session table.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// UserLookup is the slice of the directory the issuer needs to confirm
// an account still exists before honouring a refresh.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*directory.User, error)
}

// Issuer mints token pairs for resolved users and redeems refresh
// tokens for fresh pairs.
type Issuer struct {
	signer          *Signer
	users           UserLookup
	rotations       RotationStore
	rotationEnabled bool
}

func NewIssuer(signer *Signer, users UserLookup, rotations RotationStore, rotationEnabled bool) *Issuer {
	return &Issuer{
		signer:          signer,
		users:           users,
		rotations:       rotations,
		rotationEnabled: rotationEnabled,
	}
}

// IssueFor mints an access/refresh pair for the given user. With
// rotation enabled the refresh token carries the next rotation
// identifier, invalidating all previously issued refresh tokens.
func (i *Issuer) IssueFor(ctx context.Context, user *directory.User) (*Pair, error) {
	var rotation int64
	if i.rotationEnabled {
		var err error
		rotation, err = i.rotations.Next(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("issue tokens: %w", err)
		}
	}

	access, err := i.signer.Sign(user.ID, user.Role, KindAccess, 0)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := i.signer.Sign(user.ID, user.Role, KindRefresh, rotation)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh verifies a refresh token, re-resolves the user to confirm the
// account still exists and is active, and issues a brand-new pair.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string) (*Pair, error) {
	claims, err := i.signer.Verify(refreshToken, KindRefresh)
	if err != nil {
		return nil, err
	}

	user, err := i.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, auth.ErrUserNotFound
	}
	if !user.IsActive || user.DeletedAt != nil {
		return nil, auth.ErrAccountInactive
	}

	if i.rotationEnabled {
		current, err := i.rotations.Current(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("refresh tokens: %w", err)
		}
		if claims.Rotation < current {
			return nil, auth.ErrTokenSuperseded
		}
	}

	return i.IssueFor(ctx, user)
}
