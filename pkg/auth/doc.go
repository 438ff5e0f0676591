// Package auth defines the account and identity types shared across the
// authentication layer, session key generation, and password hashing.
//
// Accounts carry an opaque unique identifier, a unique human-chosen name,
// an integer role (larger conventionally means more privileged, but sign
// and magnitude are caller-defined), and a password digest. Session keys
// are opaque bearer tokens generated with crypto/rand; passwords are
// hashed with bcrypt and never stored or logged in plaintext.
package auth
