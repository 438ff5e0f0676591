// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined
// here. This prevents typos, documents dependencies, and makes key usage
// discoverable. The resolved identity travels through the context as a
// typed value; handlers read it back with GetIdentity instead of casting
// out of an untyped bag.
package contextkeys

import (
	"context"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains *auth.Identity
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: route guards, all protected endpoints
	IdentityKey Key = "identity"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: logger, response headers
	RequestIDKey Key = "request_id"
)

// WithIdentity attaches the resolved identity to the context
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentity retrieves the resolved identity from the context, or nil
// when the request was not authenticated (exempt path or no middleware).
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(IdentityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
