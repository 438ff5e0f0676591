// Package api provides the HTTP API for account and session management.
//
// # Overview
//
// The server exposes sign-up, sign-in and session management endpoints on
// a gorilla/mux router, wrapped in the full middleware chain: panic
// recovery, request IDs, logging, metrics, CORS, body limits and
// header-based authentication.
//
// # Routes
//
// Unauthenticated (must be listed in the path exemption rules):
//
//	POST /v1/accounts   sign up
//	POST /v1/sessions   sign in, returns a fresh API key
//	GET  /healthz       liveness probe
//
// Authenticated:
//
//	GET    /v1/whoami                    resolved identity
//	DELETE /v1/sessions/current          revoke the presented key
//	DELETE /v1/sessions/all              revoke every key for the account
//	PUT    /v1/accounts/{name}/password  self or admin
//	PUT    /v1/accounts/{name}/role      admin only
//	DELETE /v1/accounts/{name}           self or admin
//
// # Related Packages
//
//   - pkg/middleware: the authentication chain the server mounts
//   - pkg/sessions: account and key lifecycle operations
package api
