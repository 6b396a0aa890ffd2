package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/cache"
)

// AccountLookup returns the current role and active flag of userID.
// A missing account is reported as inactive, not as an error.
type AccountLookup func(ctx context.Context, userID string) (role string, active bool, err error)

func AccountCacheKey(userID string) string { return "account:" + userID }

// RequireActiveAccount rejects tokens whose account was deactivated, deleted or
// given another role after the token was issued. Lookups are cached in c for
// its TTL; a nil cache checks every request. Must run after RequireAuth.
func RequireActiveAccount(lookup AccountLookup, c *cache.TTL) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := auth.UserIDFrom(r.Context())
			if uid == "" {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			role, cached := "", false
			if c != nil {
				if b, ok := c.Get(AccountCacheKey(uid)); ok {
					role, cached = string(b), true
				}
			}
			if !cached {
				current, active, err := lookup(r.Context(), uid)
				if err != nil {
					log.Error().Err(err).Str("user_id", uid).Msg("[auth] account lookup")
					http.Error(w, `{"error":"internal"}`, http.StatusServiceUnavailable)
					return
				}
				if active {
					role = current
				}
				if c != nil {
					c.Set(AccountCacheKey(uid), []byte(role))
				}
			}
			if role == "" || role != auth.RoleFrom(r.Context()) {
				http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
