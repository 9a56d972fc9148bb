package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hqdung24/Nestjs-auth/internal/auth/token"
)

// unexported, collision-proof context keys
type userIDContextKeyType struct{}
type roleContextKeyType struct{}

var (
	userIDKey = userIDContextKeyType{}
	roleKey   = roleContextKeyType{}
)

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// RoleFromContext extracts the authenticated user's role from context.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}

// TokenVerifier is the slice of the signer the middleware needs.
type TokenVerifier interface {
	Verify(tokenString string, kind token.Kind) (*token.Claims, error)
}

type AuthMiddleware struct {
	Tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{Tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer access token and
// attaches the token's user ID and role to the request context. Refresh
// tokens are rejected here; they only buy new access tokens.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read bearer token
		raw := bearerToken(r)
		if raw == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 2. Verify as an access token
		claims, err := a.Tokens.Verify(raw, token.KindAccess)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 3. Attach identity to context
		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, roleKey, claims.Role)

		// 4. Continue request
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
