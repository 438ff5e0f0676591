package auth

import "time"

// Account represents a registered identity
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         int       `json:"role"`
	PasswordHash string    `json:"-"` // Never expose the digest
	CreatedAt    time.Time `json:"created_at"`
}

// SessionKey represents one authenticated session for an account.
// Multiple keys per account represent concurrent sessions or devices.
type SessionKey struct {
	AccountID     string    `json:"account_id"`
	Key           string    `json:"-"` // Never expose the bearer token
	LastValidated time.Time `json:"last_validated"`
}

// Identity holds the resolved identity attached to a request after
// successful authentication. It is recomputed every request and never
// persisted; the role a handler sees is consistent for the whole request.
type Identity struct {
	ID      string `json:"id"`
	Account string `json:"account"`
	Role    int    `json:"role"`
}
