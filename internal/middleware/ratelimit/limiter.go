// Package ratelimit implements the per-route token-bucket rate limiter.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ajju10/portiq/internal/middleware"
)

// KeySourceKind selects how a rate-limit bucket key is derived from a request.
type KeySourceKind string

const (
	KeySourceIP            KeySourceKind = "ip"
	KeySourceRequestHeader KeySourceKind = "request_header"
)

// KeySource describes one bucket-key derivation strategy.
type KeySource struct {
	Kind   KeySourceKind
	Header string // optional for IP, required for RequestHeader
}

// Config configures one rate-limit middleware instance.
type Config struct {
	Limit  int // bucket capacity
	Period time.Duration
	Source KeySource
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
	fullSince  time.Time // zero means "not currently at capacity"
}

// TokenBucket implements a keyed token-bucket limiter: capacity=Limit,
// refill_rate=Limit/Period.Seconds(). A bucket is created full on first
// sight of its key.
type TokenBucket struct {
	capacity   float64
	refillRate float64 // tokens per second
	period     time.Duration
	buckets    *shardedMap

	stop chan struct{}
}

// NewTokenBucket builds a limiter and starts its background idle sweep.
func NewTokenBucket(limit int, period time.Duration) *TokenBucket {
	tb := &TokenBucket{
		capacity:   float64(limit),
		refillRate: float64(limit) / period.Seconds(),
		period:     period,
		buckets:    newShardedMap(),
		stop:       make(chan struct{}),
	}
	go tb.sweepIdle()
	return tb
}

// Close stops the background sweep goroutine. Allow remains usable on a
// closed limiter; only the idle eviction stops.
func (tb *TokenBucket) Close() error {
	close(tb.stop)
	return nil
}

// Allow consumes one token for key if available. It returns whether the
// request is admitted and the tokens remaining in the bucket afterward
// (used to compute Retry-After when denied).
func (tb *TokenBucket) Allow(key string) (allowed bool, available float64) {
	now := time.Now()
	s := tb.buckets.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.items[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, lastRefill: now, fullSince: now}
		s.items[key] = b
	} else {
		elapsed := now.Sub(b.lastRefill).Seconds()
		b.tokens += elapsed * tb.refillRate
		if b.tokens >= tb.capacity {
			b.tokens = tb.capacity
			if b.fullSince.IsZero() {
				b.fullSince = now
			}
		} else {
			b.fullSince = time.Time{}
		}
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		allowed = true
		if b.tokens < tb.capacity {
			b.fullSince = time.Time{}
		}
	}
	available = b.tokens

	// fullSince is cleared whenever a request takes a token, and a bucket
	// at capacity always has a token to give, so this check does not evict
	// a bucket that is still receiving requests. Keys that stop receiving
	// requests are removed by sweepIdle.
	if !b.fullSince.IsZero() && now.Sub(b.fullSince) >= 10*tb.period {
		delete(s.items, key)
	}

	return allowed, available
}

// sweepIdle periodically evicts buckets that have received no traffic at
// all for a long while, catching entries the opportunistic check in
// Allow never revisits because nothing calls Allow for that key anymore.
func (tb *TokenBucket) sweepIdle() {
	interval := tb.period * 2
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 10*time.Minute {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-tb.stop:
			return
		case <-ticker.C:
			cutoff := 10 * tb.period
			tb.buckets.deleteFunc(func(_ string, b *bucket) bool {
				return time.Since(b.lastRefill) >= cutoff
			})
		}
	}
}

// RetryAfterSeconds computes the ceil((1-available)/refill_rate) delay,
// in whole seconds, for a denied request.
func (tb *TokenBucket) RetryAfterSeconds(available float64) int {
	seconds := math.Ceil((1 - available) / tb.refillRate)
	if seconds < 1 {
		seconds = 1
	}
	return int(seconds)
}

// keyFunc derives a bucket key from a request per the configured source.
func keyFunc(src KeySource) func(*http.Request) string {
	switch src.Kind {
	case KeySourceRequestHeader:
		return func(r *http.Request) string {
			if v := r.Header.Get(src.Header); v != "" {
				return v
			}
			return "-"
		}
	default: // KeySourceIP
		if src.Header == "" {
			return func(r *http.Request) string {
				return middleware.ClientIP(r)
			}
		}
		return func(r *http.Request) string {
			if v := r.Header.Get(src.Header); v != "" {
				return v
			}
			return middleware.ClientIP(r)
		}
	}
}

// New builds the rate-limit middleware described by cfg. The returned
// TokenBucket owns the bucket map and its background sweep; the caller
// must Close it when the configuration generation that built it is
// discarded.
func New(cfg Config) (middleware.Middleware, *TokenBucket) {
	tb := NewTokenBucket(cfg.Limit, cfg.Period)
	key := keyFunc(cfg.Source)

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, available := tb.Allow(key(r))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(tb.RetryAfterSeconds(available)))
				w.Header().Set("Server", "portiq")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	return mw, tb
}
