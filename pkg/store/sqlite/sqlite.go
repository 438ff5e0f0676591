package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	role          INTEGER NOT NULL DEFAULT 0,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS session_keys (
	account_id     TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	key            TEXT NOT NULL,
	last_validated TIMESTAMP NOT NULL,
	PRIMARY KEY (account_id, key)
);

CREATE INDEX IF NOT EXISTS idx_session_keys_last_validated ON session_keys(last_validated);
`

// Store is a SQLite-backed credential store, suitable for development and
// single-node deployments.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database at the given path and applies the schema.
// Use ":memory:" for an in-process database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; serializing through one connection
	// avoids SQLITE_BUSY under concurrent request load.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// CreateAccount inserts a new account row
func (s *Store) CreateAccount(ctx context.Context, acct *auth.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		acct.ID, acct.Name, acct.Role, acct.PasswordHash, acct.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("account %q: %w", acct.Name, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// AccountByName fetches an account by its unique name
func (s *Store) AccountByName(ctx context.Context, name string) (*auth.Account, error) {
	var acct auth.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, role, password_hash, created_at FROM accounts WHERE name = ?`,
		name).Scan(&acct.ID, &acct.Name, &acct.Role, &acct.PasswordHash, &acct.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %q: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acct, nil
}

// UpdateRole sets the role of the named account
func (s *Store) UpdateRole(ctx context.Context, name string, role int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET role = ? WHERE name = ?`, role, name)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return checkAffected(result, name)
}

// UpdatePassword replaces the password digest of the named account
func (s *Store) UpdatePassword(ctx context.Context, name string, passwordHash string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ? WHERE name = ?`, passwordHash, name)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return checkAffected(result, name)
}

// DeleteAccount removes all of an account's keys and then the account row
// in one transaction.
func (s *Store) DeleteAccount(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_keys WHERE account_id = (SELECT id FROM accounts WHERE name = ?)`,
		name); err != nil {
		return fmt.Errorf("failed to delete account keys: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if err := checkAffected(result, name); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// CreateKey inserts a session key for an account
func (s *Store) CreateKey(ctx context.Context, accountID, key string, lastValidated time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_keys (account_id, key, last_validated) VALUES (?, ?, ?)`,
		accountID, key, lastValidated)
	if err != nil {
		return fmt.Errorf("failed to create key: %w", err)
	}
	return nil
}

// KeyTimestamp fetches the last-validated timestamp of a key
func (s *Store) KeyTimestamp(ctx context.Context, accountID, key string) (time.Time, error) {
	var ts time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT last_validated FROM session_keys WHERE account_id = ? AND key = ?`,
		accountID, key).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("session key: %w", store.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get key timestamp: %w", err)
	}
	return ts.UTC(), nil
}

// TouchKey refreshes the last-validated timestamp of a key
func (s *Store) TouchKey(ctx context.Context, accountID, key string, lastValidated time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE session_keys SET last_validated = ? WHERE account_id = ? AND key = ?`,
		lastValidated, accountID, key)
	if err != nil {
		return fmt.Errorf("failed to touch key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to touch key: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session key: %w", store.ErrNotFound)
	}
	return nil
}

// DeleteKey removes a single session key
func (s *Store) DeleteKey(ctx context.Context, accountID, key string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM session_keys WHERE account_id = ? AND key = ?`,
		accountID, key)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session key: %w", store.ErrNotFound)
	}
	return nil
}

// DeleteAccountKeys removes every session key of an account
func (s *Store) DeleteAccountKeys(ctx context.Context, accountID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_keys WHERE account_id = ?`, accountID); err != nil {
		return fmt.Errorf("failed to delete account keys: %w", err)
	}
	return nil
}

// DeleteExpiredKeys removes all keys older than the cutoff across all accounts
func (s *Store) DeleteExpiredKeys(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM session_keys WHERE last_validated < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired keys: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired keys: %w", err)
	}
	return affected, nil
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases database resources
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for health checks
func (s *Store) DB() *sql.DB {
	return s.db
}

func checkAffected(result sql.Result, name string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("account %q: %w", name, store.ErrNotFound)
	}
	return nil
}
