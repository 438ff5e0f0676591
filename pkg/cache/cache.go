// Package cache provides the read-through identity cache mapping account
// names to their resolved identifier and role. Caching here is a store
// optimization: correctness only requires that an invalidation after a
// role update is visible to the next read.
package cache

import (
	"context"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
)

// IdentityCache resolves an account name to its identity, caching the
// result. Implementations are safe for arbitrary concurrent use.
type IdentityCache interface {
	// Resolve returns the identity for an account name, querying the
	// credential store on a miss. Store errors (including not-found)
	// propagate to the caller unchanged.
	Resolve(ctx context.Context, accountName string) (*auth.Identity, error)
	// Invalidate drops the cached entry for an account name so the next
	// Resolve re-reads the store.
	Invalidate(accountName string)
	// Close releases cache resources.
	Close() error
}
