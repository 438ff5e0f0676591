package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/observability"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store"
)

const cacheNameRedis = "redis"

// Redis is an identity cache shared across instances through Redis.
// Invalidations after a role update are visible to every instance, which
// the in-process cache cannot offer.
type Redis struct {
	store   store.Store
	client  *redis.Client
	ttl     time.Duration
	prefix  string
	metrics *observability.Metrics
}

// NewRedis creates a Redis-backed identity cache. Metrics may be nil.
func NewRedis(s store.Store, client *redis.Client, ttl time.Duration, metrics *observability.Metrics) *Redis {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{
		store:   s,
		client:  client,
		ttl:     ttl,
		prefix:  "identity:",
		metrics: metrics,
	}
}

// Resolve returns the identity for an account name, populating Redis on a
// miss. Redis failures degrade to a plain store read; the cache never
// turns a reachable store into an error.
func (r *Redis) Resolve(ctx context.Context, accountName string) (*auth.Identity, error) {
	payload, err := r.client.Get(ctx, r.prefix+accountName).Bytes()
	if err == nil {
		var id auth.Identity
		if jsonErr := json.Unmarshal(payload, &id); jsonErr == nil {
			r.recordHit()
			return &id, nil
		}
		// Unparseable entry: treat as a miss and overwrite below.
	}
	r.recordMiss()

	acct, storeErr := r.store.AccountByName(ctx, accountName)
	if storeErr != nil {
		return nil, storeErr
	}
	id := auth.Identity{ID: acct.ID, Account: acct.Name, Role: acct.Role}

	if payload, err := json.Marshal(id); err == nil {
		// Best effort: a failed SET just means the next read misses again.
		r.client.Set(ctx, r.prefix+accountName, payload, r.ttl)
	}
	return &id, nil
}

// Invalidate drops the cached entry for an account name
func (r *Redis) Invalidate(accountName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r.client.Del(ctx, r.prefix+accountName)
}

// Close closes the Redis client
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) recordHit() {
	if r.metrics != nil {
		r.metrics.CacheHitsTotal.WithLabelValues(cacheNameRedis).Inc()
	}
}

func (r *Redis) recordMiss() {
	if r.metrics != nil {
		r.metrics.CacheMissesTotal.WithLabelValues(cacheNameRedis).Inc()
	}
}
