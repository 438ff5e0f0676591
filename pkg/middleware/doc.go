// Package middleware provides HTTP middleware for header-based API-key
// authentication and route-level authorization guards.
//
// # Overview
//
// AuthMiddleware intercepts every request, resolves the account and API
// key carried in two configurable headers against the credential store,
// enforces key expiration and sliding re-validation, and attaches the
// resolved identity to the request context. Exempt paths bypass
// authentication entirely.
//
// # Components
//
// AuthMiddleware: header-pair authentication
//
//	m := middleware.NewAuthMiddleware(matcher, cache, store, config, logger, metrics)
//	router.Use(m.Handler)
//	// Reads the account/key headers, validates against the store,
//	// adds the identity to the request context
//
// Route guards: per-route authorization predicates
//
//	router.Handle("/admin", middleware.RequireMinimumRole(5)(handler))
//	router.Handle("/me", middleware.RequireAccount("alice")(handler))
//
// Guards run after authentication and reject with 401 by default; the
// WithStatus variants take a custom status code.
//
// LoginLimiter: sign-in brute-force throttling
//
//	limiter := middleware.NewLoginLimiter(nil)
//	router.Handle("/v1/sessions", limiter.Handler(signInHandler)).Methods("POST")
//
// # Related Packages
//
//   - pkg/sessions: key-validity timing decisions
//   - pkg/cache: identity resolution
//   - pkg/pathmatch: exemption rules
package middleware
