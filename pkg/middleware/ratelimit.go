package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// LoginLimitConfig defines throttling for credential-bearing endpoints
type LoginLimitConfig struct {
	// AttemptsPerWindow is the max sign-in attempts allowed per client in
	// the time window.
	AttemptsPerWindow int
	// WindowDuration is the refill window
	WindowDuration time.Duration
	// BurstSize allows temporary bursts above the rate
	BurstSize int
}

// DefaultLoginLimitConfig returns default sign-in throttle settings
func DefaultLoginLimitConfig() *LoginLimitConfig {
	return &LoginLimitConfig{
		AttemptsPerWindow: 10,
		WindowDuration:    time.Minute,
		BurstSize:         5,
	}
}

// LoginLimiter throttles password-guessing using a token bucket per
// client address. It guards the sign-in route only; authenticated
// traffic is never throttled here.
type LoginLimiter struct {
	config  *LoginLimitConfig
	buckets map[string]*bucket
	mu      sync.RWMutex
}

type bucket struct {
	tokens     int
	lastUpdate time.Time
	mu         sync.Mutex
}

// NewLoginLimiter creates a sign-in throttle
func NewLoginLimiter(config *LoginLimitConfig) *LoginLimiter {
	if config == nil {
		config = DefaultLoginLimitConfig()
	}
	return &LoginLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
	}
}

// Allow checks if an attempt is allowed for the given key
func (rl *LoginLimiter) Allow(key string) bool {
	rl.mu.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{
			tokens:     rl.config.AttemptsPerWindow + rl.config.BurstSize,
			lastUpdate: time.Now(),
		}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastUpdate)

	// Refill tokens based on elapsed time
	tokensToAdd := int(elapsed.Seconds() * float64(rl.config.AttemptsPerWindow) / rl.config.WindowDuration.Seconds())
	if tokensToAdd > 0 {
		b.tokens += tokensToAdd
		maxTokens := rl.config.AttemptsPerWindow + rl.config.BurstSize
		if b.tokens > maxTokens {
			b.tokens = maxTokens
		}
		b.lastUpdate = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// Remaining returns the number of remaining attempts for a key
func (rl *LoginLimiter) Remaining(key string) int {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()

	if !exists {
		return rl.config.AttemptsPerWindow + rl.config.BurstSize
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

// Cleanup removes buckets idle for two full windows
func (rl *LoginLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if now.Sub(b.lastUpdate) > rl.config.WindowDuration*2 {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

// StartCleanup starts a background goroutine to drop idle buckets
func (rl *LoginLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.config.WindowDuration)
	go func() {
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

// Handler wraps a sign-in handler with per-client throttling
func (rl *LoginLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + clientIP(r)

		if !rl.Allow(key) {
			rl.limitExceeded(w)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.AttemptsPerWindow))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining(key)))
		next.ServeHTTP(w, r)
	})
}

func (rl *LoginLimiter) limitExceeded(w http.ResponseWriter) {
	retryAfter := rl.config.WindowDuration.Seconds()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.AttemptsPerWindow))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"too many sign-in attempts","retry_after":` + fmt.Sprintf("%.0f", retryAfter) + `}`))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
