package ratelimit

import (
	"math"
	"sync"
	"time"
)

const (
	// DefaultMaxTokens is the bucket capacity applied when the config is unset.
	DefaultMaxTokens = 10
	// DefaultWindow is the refill window applied when the config is unset.
	DefaultWindow = 10 * time.Minute
)

// Config holds the token-bucket parameters. A full window of idle time refills
// an empty bucket back to MaxTokens.
type Config struct {
	MaxTokens float64
	Window    time.Duration
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Limiter performs per-identity admission control with continuous-refill token
// buckets. Buckets are created lazily on first use and live for the process
// lifetime; idle identities are an accepted memory trade-off at this scale.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	max     float64
	window  time.Duration

	now func() time.Time // test seam
}

// New creates a Limiter, falling back to the default capacity and window for
// unset or invalid values.
func New(cfg Config) *Limiter {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		max:     cfg.MaxTokens,
		window:  cfg.Window,
		now:     time.Now,
	}
}

// Consume attempts to take one token for identity. The bucket is refilled for
// the elapsed time on every call, admitted or not, so denials still persist
// the refreshed state.
func (l *Limiter) Consume(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketLocked(identity)
	l.refillLocked(b)
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Remaining reports the current token count for identity after applying refill.
// Unknown identities report a full bucket.
func (l *Limiter) Remaining(identity string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketLocked(identity)
	l.refillLocked(b)
	return b.tokens
}

// RetryAfter reports how long identity must wait before one whole token is
// available. Zero means a consume would already succeed.
func (l *Limiter) RetryAfter(identity string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketLocked(identity)
	l.refillLocked(b)
	if b.tokens >= 1 {
		return 0
	}
	deficit := 1 - b.tokens
	secondsPerToken := l.window.Seconds() / l.max
	return time.Duration(deficit * secondsPerToken * float64(time.Second))
}

// bucketLocked returns the bucket for identity, creating it full on first use.
// Callers must hold l.mu.
func (l *Limiter) bucketLocked(identity string) *bucket {
	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{tokens: l.max, lastRefill: l.now()}
		l.buckets[identity] = b
	}
	return b
}

// refillLocked adds elapsed-time tokens capped at the bucket capacity and
// advances the refill timestamp. Callers must hold l.mu.
func (l *Limiter) refillLocked(b *bucket) {
	now := l.now()
	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 {
		b.tokens = math.Min(l.max, b.tokens+elapsed.Seconds()*(l.max/l.window.Seconds()))
	}
	b.lastRefill = now
}
