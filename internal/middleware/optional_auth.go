package middleware

import (
	"net/http"

	"github.com/pantera3000/sistema-dental-01/internal/auth"
)

// OptionalAuth attaches claims when a valid bearer token is present and
// lets anonymous requests through. Used by frontend error ingestion.
func OptionalAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := extractBearer(r); raw != "" {
				if claims, err := auth.ParseJWT(secret, raw); err == nil {
					r = r.WithContext(auth.WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
