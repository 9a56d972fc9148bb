package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
	"github.com/hqdung24/Nestjs-auth/internal/auth/provider"
	"github.com/hqdung24/Nestjs-auth/internal/auth/resolver"
	"github.com/hqdung24/Nestjs-auth/internal/auth/token"
	"github.com/hqdung24/Nestjs-auth/internal/auth/verifier"
	"github.com/hqdung24/Nestjs-auth/internal/directory"
	"github.com/hqdung24/Nestjs-auth/internal/logger"
)

// TokenIssuer is the slice of the issuer the handlers need.
type TokenIssuer interface {
	IssueFor(ctx context.Context, user *directory.User) (*token.Pair, error)
	Refresh(ctx context.Context, refreshToken string) (*token.Pair, error)
}

type Handler struct {
	verifier  verifier.Verifier
	resolver  resolver.Resolver
	issuer    TokenIssuer
	providers *provider.Registry
	directory directory.Directory
}

func NewHandler(
	v verifier.Verifier,
	r resolver.Resolver,
	issuer TokenIssuer,
	providers *provider.Registry,
	dir directory.Directory,
) *Handler {
	return &Handler{
		verifier:  v,
		resolver:  r,
		issuer:    issuer,
		providers: providers,
		directory: dir,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/auth/federated", h.Federated)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/refresh", h.Refresh)

	r.GET("/oauth/login/:provider", h.oauthLogin)
	r.GET("/oauth/callback/:provider", h.oauthCallback)
}

// userResponse is the client-visible projection of a user record.
// PasswordHash never leaves the service.
type userResponse struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	Username   string     `json:"username,omitempty"`
	AvatarURL  string     `json:"avatarUrl,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	Role       string     `json:"role"`
	IsVerified bool       `json:"isVerified"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func toUserResponse(u *directory.User) userResponse {
	return userResponse{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Username:   u.Username,
		AvatarURL:  u.AvatarURL,
		Bio:        u.Bio,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		LastSeenAt: u.LastSeenAt,
		CreatedAt:  u.CreatedAt,
	}
}

func (h *Handler) respondTokens(c *gin.Context, pair *token.Pair, user *directory.User, status int) {
	setRefreshCookie(c.Writer, pair.RefreshToken)

	body := gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}
	if user != nil {
		body["user"] = toUserResponse(user)
	}
	c.JSON(status, body)
}

type errorMapping struct {
	sentinel error
	status   int
	kind     string
}

var errorMappings = []errorMapping{
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrInvalidAssertion, http.StatusUnauthorized, "invalid_assertion"},
	{auth.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
	{auth.ErrTokenMalformed, http.StatusUnauthorized, "token_malformed"},
	{auth.ErrTokenSignatureInvalid, http.StatusUnauthorized, "token_signature_invalid"},
	{auth.ErrTokenKindMismatch, http.StatusUnauthorized, "token_kind_mismatch"},
	{auth.ErrTokenSuperseded, http.StatusUnauthorized, "token_superseded"},
	{auth.ErrAccountInactive, http.StatusForbidden, "account_inactive"},
	{auth.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{auth.ErrEmailAlreadyRegistered, http.StatusConflict, "email_already_registered"},
	{auth.ErrConflictRetryExhausted, http.StatusConflict, "conflict_retry_exhausted"},
	{auth.ErrIncompleteClaims, http.StatusUnprocessableEntity, "incomplete_claims"},
	{auth.ErrVerifierUnavailable, http.StatusServiceUnavailable, "verifier_unavailable"},
	{auth.ErrDirectoryUnavailable, http.StatusServiceUnavailable, "directory_unavailable"},
}

// respondError maps error kinds to HTTP statuses. Kinds are never
// collapsed: callers differentiate "bad password" from "try later".
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			c.JSON(m.status, gin.H{"error": m.kind})
			return
		}
	}

	logger.Error("unhandled auth error", map[string]any{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	})
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
