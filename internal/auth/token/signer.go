package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
)

// Kind distinguishes the two credentials a signer can mint. Each kind
// uses its own secret and TTL so that compromise of one does not
// compromise the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims carries the signed facts of either token kind. Rotation is
// only meaningful on refresh tokens and only when rotation is enabled.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	Role     string `json:"role"`
	Kind     string `json:"kind"`
	Rotation int64  `json:"rot,omitempty"`
}

// Signer mints and verifies HS256 tokens. Signing depends only on the
// inputs, the clock, and the configured secrets; no external state.
type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type SignerConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

func NewSigner(cfg SignerConfig) (*Signer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: both signing secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: TTLs must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Signer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           now,
	}, nil
}

func (s *Signer) secretFor(kind Kind) []byte {
	if kind == KindRefresh {
		return s.refreshSecret
	}
	return s.accessSecret
}

func (s *Signer) ttlFor(kind Kind) time.Duration {
	if kind == KindRefresh {
		return s.refreshTTL
	}
	return s.accessTTL
}

// Sign mints a token of the given kind. rotation is carried on refresh
// tokens when rotation is enabled and ignored otherwise.
func (s *Signer) Sign(userID, role string, kind Kind, rotation int64) (string, error) {
	if userID == "" {
		return "", errors.New("token: userID is required")
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttlFor(kind))),
		},
		UserID: userID,
		Role:   role,
		Kind:   string(kind),
	}
	if kind == KindRefresh {
		claims.Rotation = rotation
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secretFor(kind))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token of the expected kind. Failures
// are distinguishable: expired, malformed, bad signature, and a valid
// token of the other kind each map to their own error.
func (s *Signer) Verify(tokenString string, kind Kind) (*Claims, error) {
	claims, err := s.parse(tokenString, kind)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", auth.ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, auth.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			// A structurally valid token signed with the other kind's
			// secret is a kind mismatch, not a forgery.
			if s.isOtherKind(tokenString, kind) {
				return nil, auth.ErrTokenKindMismatch
			}
			return nil, auth.ErrTokenSignatureInvalid
		default:
			return nil, fmt.Errorf("%w: %v", auth.ErrTokenMalformed, err)
		}
	}

	if claims.Kind != string(kind) {
		return nil, auth.ErrTokenKindMismatch
	}
	return claims, nil
}

func (s *Signer) parse(tokenString string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secretFor(kind), nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

func (s *Signer) isOtherKind(tokenString string, kind Kind) bool {
	other := KindRefresh
	if kind == KindRefresh {
		other = KindAccess
	}
	_, err := s.parse(tokenString, other)
	// An expired token of the other kind is still the other kind.
	return err == nil || errors.Is(err, jwt.ErrTokenExpired)
}
