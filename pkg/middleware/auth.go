package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/cache"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/contextkeys"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/observability"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/pathmatch"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/sessions"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store"
)

// Default header names carrying the credential pair
const (
	DefaultAccountHeader = "Account-Auth-Account"
	DefaultKeyHeader     = "Account-Auth-ApiKey"
)

// Rejection bodies are fixed: nothing below the middleware may leak
// implementation detail into a response.
const (
	msgAccountNotFound = "Account does not exist."
	msgKeyNotFound     = "API key does not exist."
	msgSessionExpired  = "Time has run out. Please sign in again."
	msgMissingGeneric  = "Missing header(s)."
)

// Config is the construction-time authentication configuration. It is
// immutable once the middleware is built.
type Config struct {
	AccountHeader string
	KeyHeader     string

	// Expiration is the absolute key lifetime since last validation.
	// Zero disables expiry entirely.
	Expiration time.Duration
	// Revalidation is the sliding window after which a passing key gets
	// its timestamp refreshed. Zero disables refreshing.
	Revalidation time.Duration

	// DisableHeaderInfo suppresses the configured header names in the
	// missing-header rejection body.
	DisableHeaderInfo bool
}

func (c Config) withDefaults() Config {
	if c.AccountHeader == "" {
		c.AccountHeader = DefaultAccountHeader
	}
	if c.KeyHeader == "" {
		c.KeyHeader = DefaultKeyHeader
	}
	return c
}

// AuthMiddleware authenticates requests by an account/API-key header pair
// checked against the credential store.
type AuthMiddleware struct {
	matcher *pathmatch.Matcher
	cache   cache.IdentityCache
	store   store.Store
	config  Config
	logger  *observability.Logger
	metrics *observability.Metrics

	now func() time.Time
}

// NewAuthMiddleware creates the authentication middleware. Metrics may be
// nil.
func NewAuthMiddleware(matcher *pathmatch.Matcher, c cache.IdentityCache, s store.Store, config Config, logger *observability.Logger, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		matcher: matcher,
		cache:   c,
		store:   s,
		config:  config.withDefaults(),
		logger:  logger,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Handler wraps an HTTP handler with authentication. Exempt paths pass
// through untouched; everything else either forwards with the resolved
// identity on the request context or is rejected with a 401.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.matcher.Exempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		account := r.Header.Get(m.config.AccountHeader)
		key := r.Header.Get(m.config.KeyHeader)
		if account == "" || key == "" {
			m.reject(w, "missing_headers", m.missingHeadersMessage())
			return
		}

		identity, err := m.cache.Resolve(r.Context(), account)
		if err != nil {
			// Store failures reject exactly like an unknown account:
			// fail closed, log the real cause.
			if !errors.Is(err, store.ErrNotFound) {
				m.logger.WithError(err).WithField("account", account).Error("identity lookup failed")
				m.recordStoreError("account_lookup")
			}
			m.reject(w, "account_not_found", msgAccountNotFound)
			return
		}

		lastValidated, err := m.store.KeyTimestamp(r.Context(), identity.ID, key)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				m.logger.WithError(err).WithField("account", account).Error("key lookup failed")
				m.recordStoreError("key_lookup")
			}
			m.reject(w, "key_not_found", msgKeyNotFound)
			return
		}

		now := m.now()
		switch sessions.Decide(now, lastValidated, m.config.Expiration, m.config.Revalidation) {
		case sessions.Pass:

		case sessions.ReValidate:
			// The write must survive a client disconnect mid-request.
			if err := m.store.TouchKey(context.WithoutCancel(r.Context()), identity.ID, key, now); err != nil {
				m.logger.WithError(err).WithField("account", account).Error("key revalidation failed")
				m.recordStoreError("touch_key")
			} else if m.metrics != nil {
				m.metrics.KeysRevalidatedTotal.Inc()
			}

		case sessions.Expire:
			m.sweepExpired(context.WithoutCancel(r.Context()))
			m.reject(w, "session_expired", msgSessionExpired)
			return
		}

		ctx := contextkeys.WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sweepExpired removes every key older than the expiration window, not
// just the one that tripped expiry.
func (m *AuthMiddleware) sweepExpired(ctx context.Context) {
	cutoff := m.now().Add(-m.config.Expiration)
	removed, err := m.store.DeleteExpiredKeys(ctx, cutoff)
	if err != nil {
		m.logger.WithError(err).Error("expired key sweep failed")
		m.recordStoreError("delete_expired")
		return
	}
	if removed > 0 && m.metrics != nil {
		m.metrics.KeysExpiredTotal.Add(float64(removed))
	}
}

func (m *AuthMiddleware) missingHeadersMessage() string {
	if m.config.DisableHeaderInfo {
		return msgMissingGeneric
	}
	return fmt.Sprintf("Missing required headers %q and %q.", m.config.AccountHeader, m.config.KeyHeader)
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, reason, message string) {
	if m.metrics != nil {
		m.metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":` + strconv.Quote(message) + `}`))
}

func (m *AuthMiddleware) recordStoreError(operation string) {
	if m.metrics != nil {
		m.metrics.StoreErrorsTotal.WithLabelValues(operation).Inc()
	}
}
