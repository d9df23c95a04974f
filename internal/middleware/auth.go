package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/phototrail/phototrail-api/internal/pkg/identity"
	"github.com/phototrail/phototrail-api/internal/pkg/response"
)

type contextKey string

const (
	ProfileKey contextKey = "profile"
	TokenKey   contextKey = "token"
)

// Auth returns middleware that decodes the bearer identity token. Signature
// verification already happened at the identity provider; here the token is
// unpacked into a profile and checked for expiry.
func Auth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			// Check Bearer prefix
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			profile, _, err := identity.DecodeProfile(parts[1])
			if err != nil {
				if err == identity.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ProfileKey, profile)
			ctx = context.WithValue(ctx, TokenKey, parts[1])

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MockAuth returns middleware that injects a fixed profile. Used when the
// service runs without a real identity provider.
func MockAuth(profile *identity.Profile) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ProfileKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetProfile extracts the signed-in profile from context, nil without one.
func GetProfile(ctx context.Context) *identity.Profile {
	if p, ok := ctx.Value(ProfileKey).(*identity.Profile); ok {
		return p
	}
	return nil
}

// GetToken extracts the raw bearer token from context.
func GetToken(ctx context.Context) string {
	if t, ok := ctx.Value(TokenKey).(string); ok {
		return t
	}
	return ""
}
