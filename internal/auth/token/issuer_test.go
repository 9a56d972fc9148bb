package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
	"github.com/hqdung24/Nestjs-auth/internal/directory"
)

type fakeLookup struct {
	user *directory.User
	err  error
}

func (f *fakeLookup) FindByID(context.Context, string) (*directory.User, error) {
	return f.user, f.err
}

func activeUser() *directory.User {
	return &directory.User{
		ID:       "u-1",
		Email:    "a@x.com",
		Role:     "user",
		IsActive: true,
	}
}

func TestIssueFor_PairVerifies(t *testing.T) {
	t.Parallel()

	now := time.Now()
	signer := newTestSigner(t, &now)
	user := activeUser()
	issuer := NewIssuer(signer, &fakeLookup{user: user}, NewMemoryRotationStore(), false)

	pair, err := issuer.IssueFor(context.Background(), user)
	require.NoError(t, err)

	access, err := signer.Verify(pair.AccessToken, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, access.UserID)
	assert.Equal(t, user.Role, access.Role)

	refresh, err := signer.Verify(pair.RefreshToken, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, refresh.UserID)
}

func TestRefresh_IssuesNewPair(t *testing.T) {
	t.Parallel()

	now := time.Now()
	signer := newTestSigner(t, &now)
	user := activeUser()
	issuer := NewIssuer(signer, &fakeLookup{user: user}, NewMemoryRotationStore(), false)

	pair, err := issuer.IssueFor(context.Background(), user)
	require.NoError(t, err)

	now = now.Add(time.Minute)

	next, err := issuer.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	claims, err := signer.Verify(next.AccessToken, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	t.Parallel()

	now := time.Now()
	signer := newTestSigner(t, &now)
	user := activeUser()
	issuer := NewIssuer(signer, &fakeLookup{user: user}, NewMemoryRotationStore(), false)

	pair, err := issuer.IssueFor(context.Background(), user)
	require.NoError(t, err)

	// refresh TTL is 7 days; redeem at day 8
	now = now.Add(8 * 24 * time.Hour)

	_, err = issuer.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	now := time.Now()
	signer := newTestSigner(t, &now)
	user := activeUser()
	issuer := NewIssuer(signer, &fakeLookup{user: user}, NewMemoryRotationStore(), false)

	pair, err := issuer.IssueFor(context.Background(), user)
	require.NoError(t, err)

	_, err = issuer.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenKindMismatch)
}

func TestRefresh_UserGone(t *testing.T) {
	t.Parallel()

	now := time.Now()
	signer := newTestSigner(t, &now)
	user := activeUser()
	lookup := &fakeLookup{user: user}
	issuer := NewIssuer(signer, lookup, NewMemoryRotationStore(), false)

	pair, err := issuer.IssueFor(context.Background(), user)
	require.NoError(t, err)

	lookup.user = nil

	_, err = issuer.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestRefresh_InactiveAccount(t *testing.T) {
	t.Parallel()

	now := time.Now()
	signer := newTestSigner(t, &now)
	user := activeUser()
	lookup := &fakeLookup{user: user}
	issuer := NewIssuer(signer, lookup, NewMemoryRotationStore(), false)

	pair, err := issuer.IssueFor(context.Background(), user)
	require.NoError(t, err)

	inactive := *user
	inactive.IsActive = false
	lookup.user = &inactive

	_, err = issuer.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrAccountInactive)
}

func TestRefresh_RotationSupersedesOldToken(t *testing.T) {
	t.Parallel()

	now := time.Now()
	signer := newTestSigner(t, &now)
	user := activeUser()
	issuer := NewIssuer(signer, &fakeLookup{user: user}, NewMemoryRotationStore(), true)

	first, err := issuer.IssueFor(context.Background(), user)
	require.NoError(t, err)

	// redeeming advances the counter
	second, err := issuer.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)

	// the redeemed token is now stale
	_, err = issuer.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenSuperseded)

	// the fresh one still works
	_, err = issuer.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_RotationDisabledAllowsReuse(t *testing.T) {
	t.Parallel()

	now := time.Now()
	signer := newTestSigner(t, &now)
	user := activeUser()
	issuer := NewIssuer(signer, &fakeLookup{user: user}, NewMemoryRotationStore(), false)

	pair, err := issuer.IssueFor(context.Background(), user)
	require.NoError(t, err)

	_, err = issuer.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	_, err = issuer.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
}
