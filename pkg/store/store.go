package store

import (
	"context"
	"errors"
	"time"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
)

// Sentinel errors returned by Store implementations. Callers distinguish
// "row absent" from infrastructure failure with errors.Is; anything that
// is neither nil nor ErrNotFound is a store failure and the caller decides
// how to fold it (the middleware fails closed).
var (
	// ErrNotFound indicates the requested account or key does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique constraint violation (account name)
	ErrDuplicate = errors.New("already exists")
)

// Store is the credential persistence contract: durable account and
// session-key storage, queryable by exact account name. Implementations
// must tolerate concurrent key inserts and deletes for the same account;
// conflicting timestamp writes resolve last-write-wins.
type Store interface {
	// CreateAccount inserts a new account. Returns ErrDuplicate if the
	// account name is already taken.
	CreateAccount(ctx context.Context, acct *auth.Account) error
	// AccountByName fetches an account by its unique name.
	AccountByName(ctx context.Context, name string) (*auth.Account, error)
	// UpdateRole sets the role of the named account.
	UpdateRole(ctx context.Context, name string, role int) error
	// UpdatePassword replaces the password digest of the named account.
	UpdatePassword(ctx context.Context, name string, passwordHash string) error
	// DeleteAccount removes an account and all of its session keys. Keys
	// are removed before the account row so no key can outlive its account.
	DeleteAccount(ctx context.Context, name string) error

	// CreateKey inserts a session key for an account.
	CreateKey(ctx context.Context, accountID, key string, lastValidated time.Time) error
	// KeyTimestamp fetches the last-validated timestamp of a key.
	KeyTimestamp(ctx context.Context, accountID, key string) (time.Time, error)
	// TouchKey refreshes the last-validated timestamp of a key.
	TouchKey(ctx context.Context, accountID, key string, lastValidated time.Time) error
	// DeleteKey removes a single session key.
	DeleteKey(ctx context.Context, accountID, key string) error
	// DeleteAccountKeys removes every session key of an account.
	DeleteAccountKeys(ctx context.Context, accountID string) error
	// DeleteExpiredKeys removes all keys across all accounts with a
	// last-validated timestamp older than the cutoff, returning the number
	// of keys removed.
	DeleteExpiredKeys(ctx context.Context, olderThan time.Time) (int64, error)

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error
	// Close releases database resources.
	Close() error
}
