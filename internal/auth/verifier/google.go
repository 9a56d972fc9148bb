package verifier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
)

const (
	discoveryTimeout = 10 * time.Second
	keyFetchTimeout  = 5 * time.Second
)

// GoogleVerifier validates Google-issued ID tokens against the issuer's
// published key set. The key set is cached and considered stale after
// cacheTTL; refresh swaps an immutable snapshot so concurrent readers
// never observe a partially-updated key set.
type GoogleVerifier struct {
	issuer   string
	audience string
	jwksURL  string
	cacheTTL time.Duration
	now      func() time.Time

	refreshMu sync.Mutex // single writer on snapshot rebuild
	snapshot  atomic.Pointer[keySnapshot]
}

type keySnapshot struct {
	verifier  *oidc.IDTokenVerifier
	fetchedAt time.Time
}

func NewGoogleVerifier(
	ctx context.Context,
	issuer string,
	audience string,
	cacheTTL time.Duration,
) (*GoogleVerifier, error) {

	if issuer == "" || audience == "" {
		return nil, errors.New("verifier: issuer and audience are required")
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}

	discCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()

	provider, err := oidc.NewProvider(discCtx, issuer)
	if err != nil {
		return nil, fmt.Errorf("verifier: issuer discovery: %w", err)
	}

	var disc struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := provider.Claims(&disc); err != nil || disc.JWKSURL == "" {
		return nil, fmt.Errorf("verifier: discovery document has no jwks_uri")
	}

	v := &GoogleVerifier{
		issuer:   issuer,
		audience: audience,
		jwksURL:  disc.JWKSURL,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
	v.snapshot.Store(&keySnapshot{
		verifier:  provider.Verifier(&oidc.Config{ClientID: audience}),
		fetchedAt: v.now(),
	})
	return v, nil
}

// Verify validates the assertion's signature, audience, expiry, and
// issuer, and extracts the identity claims.
func (g *GoogleVerifier) Verify(ctx context.Context, rawAssertion string) (*auth.FederatedClaims, error) {
	idToken, err := g.current().Verify(ctx, rawAssertion)
	if err != nil {
		return nil, classifyVerifyError(err)
	}

	var payload googleClaims
	if err := idToken.Claims(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %v", auth.ErrInvalidAssertion, err)
	}
	return claimsFromPayload(payload)
}

// current returns the cached token verifier, rebuilding the key set
// snapshot once it is stale. Readers racing a rebuild keep using the
// previous snapshot.
func (g *GoogleVerifier) current() *oidc.IDTokenVerifier {
	snap := g.snapshot.Load()
	if g.now().Sub(snap.fetchedAt) < g.cacheTTL {
		return snap.verifier
	}

	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()

	snap = g.snapshot.Load()
	if g.now().Sub(snap.fetchedAt) < g.cacheTTL {
		return snap.verifier
	}

	// The remote key set fetches lazily; a fresh one forces a refetch
	// on the next verification. Fetch failures surface per-call from
	// Verify and are classified as transient.
	fetchCtx := oidc.ClientContext(
		context.Background(),
		&http.Client{Timeout: keyFetchTimeout},
	)
	keySet := oidc.NewRemoteKeySet(fetchCtx, g.jwksURL)
	fresh := &keySnapshot{
		verifier:  oidc.NewVerifier(g.issuer, keySet, &oidc.Config{ClientID: g.audience}),
		fetchedAt: g.now(),
	}
	g.snapshot.Store(fresh)
	return fresh.verifier
}

type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func claimsFromPayload(payload googleClaims) (*auth.FederatedClaims, error) {
	if payload.Subject == "" || payload.Email == "" {
		return nil, fmt.Errorf("%w: subject or email missing", auth.ErrIncompleteClaims)
	}
	return &auth.FederatedClaims{
		SubjectID:     payload.Subject,
		Email:         payload.Email,
		GivenName:     payload.GivenName,
		FamilyName:    payload.FamilyName,
		Picture:       payload.Picture,
		EmailVerified: payload.EmailVerified,
	}, nil
}

// classifyVerifyError separates transient key-fetch failures, which
// callers may retry, from assertion rejections, which are terminal.
func classifyVerifyError(err error) error {
	var expired *oidc.TokenExpiredError
	if errors.As(err, &expired) {
		return fmt.Errorf("%w: assertion expired", auth.ErrInvalidAssertion)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", auth.ErrVerifierUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", auth.ErrVerifierUnavailable, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", auth.ErrVerifierUnavailable, err)
	}
	// go-oidc exports no typed error for key-fetch failures; as of
	// v3.11 remoteKeySet.verify wraps them as "fetching keys <err>".
	if strings.Contains(err.Error(), "fetching keys") {
		return fmt.Errorf("%w: %v", auth.ErrVerifierUnavailable, err)
	}
	return fmt.Errorf("%w: %v", auth.ErrInvalidAssertion, err)
}
