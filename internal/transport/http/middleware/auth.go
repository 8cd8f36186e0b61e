package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"deadpoets/internal/httputil"
	"deadpoets/internal/model"
	"deadpoets/internal/service"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for the authenticated user's claims
	ClaimsKey contextKey = "auth_claims"
)

// AuthMiddleware creates a middleware that validates bearer tokens.
// The request either carries a well-formed "Authorization: Bearer <token>"
// header that verifies, or it is rejected with 401; on success the token's
// claims are attached to the request context.
func AuthMiddleware(tokens *service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.WriteUnauthorized(w, "No authorization token provided")
				return
			}

			// Expected format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				httputil.WriteUnauthorized(w, "Invalid authorization header format. Use: Bearer <token>")
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				switch {
				case errors.Is(err, model.ErrTokenExpired):
					httputil.WriteUnauthorized(w, "Token expired, please login again")
				case errors.Is(err, model.ErrTokenSignatureInvalid):
					httputil.WriteUnauthorized(w, "Invalid token signature - please login again")
				default:
					httputil.WriteUnauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaimsFromContext extracts the authenticated claims from the request
// context. Returns the claims and true if found, or nil and false if not.
func GetClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*model.AuthClaims)
	return claims, ok
}
