package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/observability"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store"
)

const cacheNameMemory = "memory"

// Memory is an in-process bounded LRU identity cache with TTL
type Memory struct {
	store   store.Store
	cache   *lru.LRU[string, auth.Identity]
	metrics *observability.Metrics
}

// MemoryConfig holds sizing for the in-process cache
type MemoryConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// DefaultMemoryConfig returns the default cache sizing
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		MaxEntries: 10000,
		TTL:        5 * time.Minute,
	}
}

// NewMemory creates an in-process identity cache backed by the credential
// store. Metrics may be nil.
func NewMemory(s store.Store, config MemoryConfig, metrics *observability.Metrics) *Memory {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMemoryConfig().MaxEntries
	}
	return &Memory{
		store:   s,
		cache:   lru.NewLRU[string, auth.Identity](config.MaxEntries, nil, config.TTL),
		metrics: metrics,
	}
}

// Resolve returns the identity for an account name, populating the cache
// on a miss.
func (m *Memory) Resolve(ctx context.Context, accountName string) (*auth.Identity, error) {
	if id, ok := m.cache.Get(accountName); ok {
		m.recordHit()
		return &id, nil
	}
	m.recordMiss()

	acct, err := m.store.AccountByName(ctx, accountName)
	if err != nil {
		return nil, err
	}
	id := auth.Identity{ID: acct.ID, Account: acct.Name, Role: acct.Role}
	m.cache.Add(accountName, id)
	return &id, nil
}

// Invalidate drops the cached entry for an account name
func (m *Memory) Invalidate(accountName string) {
	m.cache.Remove(accountName)
}

// Close purges the cache
func (m *Memory) Close() error {
	m.cache.Purge()
	return nil
}

func (m *Memory) recordHit() {
	if m.metrics != nil {
		m.metrics.CacheHitsTotal.WithLabelValues(cacheNameMemory).Inc()
	}
}

func (m *Memory) recordMiss() {
	if m.metrics != nil {
		m.metrics.CacheMissesTotal.WithLabelValues(cacheNameMemory).Inc()
	}
}
