// Package store defines the credential store contract consumed by the
// authentication middleware and session service, with PostgreSQL and
// SQLite implementations in subpackages.
package store
