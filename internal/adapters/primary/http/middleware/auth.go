package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hdesk/helpdesk-backend/internal/auth"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// IdentityKey is the key used to store the caller identity in the request context.
const IdentityKey contextKey = "identity"

// JWTMiddleware validates the JWT token from the Authorization header and
// stores the resulting identity in the request context. A token query
// parameter is accepted as a fallback for clients that cannot set headers,
// such as browser-initiated file downloads.
func JWTMiddleware(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")

			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					writeAuthError(w, "Authorization header format must be Bearer {token}")
					return
				}
				token = parts[1]
			}

			if token == "" {
				writeAuthError(w, "Authorization header is required")
				return
			}

			claims, err := tm.Validate(token)
			if err != nil {
				writeAuthError(w, "Invalid or expired token")
				return
			}

			identity := ports.Identity{
				UserID:   claims.UserID,
				Username: claims.Username,
				Role:     claims.ParsedRole(),
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the authenticated identity from the context.
func GetIdentity(ctx context.Context) (ports.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(ports.Identity)
	return identity, ok
}

// RequireStaff rejects requests from callers without a technician or admin role.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentity(r.Context())
		if !ok {
			writeAuthError(w, "Authentication required")
			return
		}
		if !identity.Role.IsStaff() {
			writeForbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentity(r.Context())
		if !ok {
			writeAuthError(w, "Authentication required")
			return
		}
		if !identity.Role.IsAdmin() {
			writeForbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `","code":"UNAUTHORIZED"}`))
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"You do not have permission to perform this action","code":"FORBIDDEN"}`))
}
