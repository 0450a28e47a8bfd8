package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenLimiter is a per-key token bucket refilling Max tokens per Window.
// A Max of zero disables it.
type TokenLimiter struct {
	policy Policy
	every  rate.Limit
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewTokenLimiter(policy Policy, clock func() time.Time) *TokenLimiter {
	if clock == nil {
		clock = time.Now
	}
	var every rate.Limit
	if policy.Max > 0 {
		every = rate.Every(policy.Window / time.Duration(policy.Max))
	}
	return &TokenLimiter{
		policy:  policy,
		every:   every,
		now:     clock,
		buckets: make(map[string]*bucket),
	}
}

func (l *TokenLimiter) Policy() Policy { return l.policy }

func (l *TokenLimiter) Allow(key string) Decision {
	now := l.now()
	if l.policy.Max <= 0 {
		return Decision{Allowed: true}
	}

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.policy.Max)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)

	perToken := l.policy.Window / time.Duration(l.policy.Max)
	missing := 1 - tokens
	if missing < 0 {
		missing = 0
	}
	return Decision{
		Allowed:   allowed,
		Limit:     l.policy.Max,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		Reset:     time.Duration(missing * float64(perToken)),
	}
}

// Sweep forgets buckets idle for a full window; they would be full again.
func (l *TokenLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.policy.Window {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

func (l *TokenLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
