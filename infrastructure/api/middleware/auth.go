package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/vitae-dev/vitae/domain/user"
)

// HeaderAPIKey carries the caller's key on every authenticated request.
const HeaderAPIKey = "X-API-KEY"

// ErrUnauthorized is returned by Authenticator implementations for keys
// that match no user.
var ErrUnauthorized = errors.New("unknown api key")

// Authenticator resolves a request API key to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (user.User, error)
}

type contextKey int

const userContextKey contextKey = iota

// RequireUser authenticates the X-API-KEY header and stores the resolved
// user on the request context. Missing or unknown keys get a 401.
func RequireUser(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := auth.Authenticate(r.Context(), r.Header.Get(HeaderAPIKey))
			if err != nil {
				RespondError(w, http.StatusUnauthorized, "unauthorized", "a valid X-API-KEY header is required")
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
		})
	}
}

// AdminOnly guards provisioning endpoints with the configured admin keys.
// With no keys configured the endpoints are disabled outright.
func AdminOnly(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(keys) == 0 {
				RespondError(w, http.StatusForbidden, "forbidden", "no admin keys are configured")
				return
			}
			presented := r.Header.Get(HeaderAPIKey)
			for _, key := range keys {
				if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			RespondError(w, http.StatusUnauthorized, "unauthorized", "a valid admin X-API-KEY header is required")
		})
	}
}

func withUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFrom returns the authenticated user stored by RequireUser.
func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userContextKey).(user.User)
	return u, ok
}
