package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter provides global and per-client rate limiting. The global
// limiter spans every client a builder produces; per-client limiters are
// created lazily on first use.
type RateLimiter struct {
	global   *rate.Limiter
	perKey   map[string]*rate.Limiter
	mu       sync.RWMutex
	keyRPS   float64
	keyBurst int
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	GlobalRPS   float64 // Global requests per second (0 = unlimited)
	GlobalBurst int
	KeyRPS      float64 // Per-client requests per second (0 = unlimited)
	KeyBurst    int
}

// NewRateLimiter creates a rate limiter. Zero RPS values disable the
// corresponding limit.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		perKey:   make(map[string]*rate.Limiter),
		keyRPS:   cfg.KeyRPS,
		keyBurst: cfg.KeyBurst,
	}
	if cfg.GlobalRPS > 0 {
		rl.global = rate.NewLimiter(rate.Limit(cfg.GlobalRPS), cfg.GlobalBurst)
	}
	return rl
}

// Wait blocks until both global and per-client limits allow.
func (r *RateLimiter) Wait(ctx context.Context, key string) error {
	if r.global != nil {
		if err := r.global.Wait(ctx); err != nil {
			return err
		}
	}
	if limiter := r.getOrCreate(key); limiter != nil {
		return limiter.Wait(ctx)
	}
	return nil
}

// Allow returns true if a request is allowed without blocking.
func (r *RateLimiter) Allow(key string) bool {
	if r.global != nil && !r.global.Allow() {
		return false
	}
	if limiter := r.getOrCreate(key); limiter != nil {
		return limiter.Allow()
	}
	return true
}

func (r *RateLimiter) getOrCreate(key string) *rate.Limiter {
	if r.keyRPS <= 0 {
		return nil
	}

	r.mu.RLock()
	limiter, exists := r.perKey[key]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = r.perKey[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(r.keyRPS), r.keyBurst)
	r.perKey[key] = limiter
	return limiter
}
