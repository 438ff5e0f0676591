package middleware

import (
	"net/http"
	"strconv"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/contextkeys"
)

// Guards are pure predicates over the identity the authentication
// middleware attached to the request context. They compose onto
// individual routes after authentication, before the handler.

// RequireRole allows only requests whose identity has exactly the given
// role.
func RequireRole(role int) func(http.Handler) http.Handler {
	return RequireRoleWithStatus(role, http.StatusUnauthorized)
}

// RequireRoleWithStatus is RequireRole with a custom rejection status
func RequireRoleWithStatus(role int, status int) func(http.Handler) http.Handler {
	return guard(status, func(id *auth.Identity) bool { return id.Role == role })
}

// RequireMinimumRole allows only requests whose identity's role is at
// least the given role.
func RequireMinimumRole(role int) func(http.Handler) http.Handler {
	return RequireMinimumRoleWithStatus(role, http.StatusUnauthorized)
}

// RequireMinimumRoleWithStatus is RequireMinimumRole with a custom
// rejection status.
func RequireMinimumRoleWithStatus(role int, status int) func(http.Handler) http.Handler {
	return guard(status, func(id *auth.Identity) bool { return id.Role >= role })
}

// RequireAccount allows only requests authenticated as the given account
func RequireAccount(name string) func(http.Handler) http.Handler {
	return RequireAccountWithStatus(name, http.StatusUnauthorized)
}

// RequireAccountWithStatus is RequireAccount with a custom rejection
// status.
func RequireAccountWithStatus(name string, status int) func(http.Handler) http.Handler {
	return guard(status, func(id *auth.Identity) bool { return id.Account == name })
}

func guard(status int, allow func(*auth.Identity) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := contextkeys.GetIdentity(r.Context())
			if id == nil || !allow(id) {
				guardReject(w, status)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func guardReject(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":` + strconv.Quote("insufficient permissions") + `}`))
}
