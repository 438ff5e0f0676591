package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store"
)

// ErrInvalidCredentials is returned by SignIn when the account does not
// exist or the password does not match. Callers must not distinguish the
// two cases.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Invalidator drops a cached identity so the next read sees store state
type Invalidator interface {
	Invalidate(accountName string)
}

// Service implements account and session-key lifecycle on top of the
// credential store.
type Service struct {
	store       store.Store
	keys        *auth.KeyGenerator
	invalidator Invalidator

	now func() time.Time
}

// NewService creates a session service. The invalidator may be nil when no
// identity cache is in play.
func NewService(s store.Store, keys *auth.KeyGenerator, invalidator Invalidator) *Service {
	return &Service{
		store:       s,
		keys:        keys,
		invalidator: invalidator,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SignUp creates an account with the default role. The password is stored
// only as a bcrypt hash. Returns store.ErrDuplicate when the name is taken.
func (s *Service) SignUp(ctx context.Context, name, password string) (*auth.Account, error) {
	if name == "" {
		return nil, errors.New("account name must not be empty")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	acct := &auth.Account{
		ID:           uuid.New().String(),
		Name:         name,
		Role:         0,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// SignIn verifies the password and mints a fresh API key with its
// last-validated timestamp set to now.
func (s *Service) SignIn(ctx context.Context, name, password string) (string, error) {
	acct, err := s.store.AccountByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !auth.VerifyPassword(acct.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	key, err := s.keys.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	if err := s.store.CreateKey(ctx, acct.ID, key, s.now()); err != nil {
		return "", err
	}
	return key, nil
}

// SignOut removes a single API key for an account
func (s *Service) SignOut(ctx context.Context, accountID, key string) error {
	return s.store.DeleteKey(ctx, accountID, key)
}

// SignOutAll removes every API key for an account
func (s *Service) SignOutAll(ctx context.Context, accountID string) error {
	return s.store.DeleteAccountKeys(ctx, accountID)
}

// UpdateRole changes an account's role and invalidates its cached
// identity so the change is visible to the next authenticated request.
func (s *Service) UpdateRole(ctx context.Context, name string, role int) error {
	if err := s.store.UpdateRole(ctx, name, role); err != nil {
		return err
	}
	s.invalidate(name)
	return nil
}

// ChangePassword replaces an account's password hash. Existing API keys
// stay valid; call SignOutAll to revoke them.
func (s *Service) ChangePassword(ctx context.Context, name, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.store.UpdatePassword(ctx, name, hash)
}

// DeleteAccount removes an account and all of its API keys. Keys go first
// so a failure never strands keys without an owning account.
func (s *Service) DeleteAccount(ctx context.Context, name string) error {
	acct, err := s.store.AccountByName(ctx, name)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAccountKeys(ctx, acct.ID); err != nil {
		return err
	}
	if err := s.store.DeleteAccount(ctx, name); err != nil {
		return err
	}
	s.invalidate(name)
	return nil
}

func (s *Service) invalidate(name string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(name)
	}
}
