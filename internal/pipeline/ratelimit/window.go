package ratelimit

import (
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline"
)

// Policy describes one limiting regime.
type Policy struct {
	Name    string
	Window  time.Duration
	Max     int
	Message string
	// Skip bypasses the policy for a request when it returns true.
	Skip func(*pipeline.Context) bool
}

// Presets mirror the two regimes the service ships with.
func APIPolicy(window time.Duration, max int) Policy {
	return Policy{
		Name:    "api",
		Window:  window,
		Max:     max,
		Message: "Too many requests from this IP, please try again later",
	}
}

func StrictPolicy() Policy {
	return Policy{
		Name:    "strict",
		Window:  time.Minute,
		Max:     10,
		Message: "Too many requests from this IP, please try again later",
	}
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is the time left until the budget is replenished.
	Reset time.Duration
}

// Limiter admits or rejects one request for a key.
type Limiter interface {
	Allow(key string) Decision
	Policy() Policy
}

type window struct {
	mu    sync.Mutex
	start time.Time
	count int
	// dead is set once Sweep has removed the window from the map.
	dead bool
}

// WindowLimiter counts requests per key in fixed windows. Each key has its
// own lock so hot keys do not serialise unrelated clients.
type WindowLimiter struct {
	policy Policy
	now    func() time.Time

	mu      sync.RWMutex
	windows map[string]*window

	// afterLookup runs between the map lookup and the window lock; tests only.
	afterLookup func()
}

func NewWindowLimiter(policy Policy, clock func() time.Time) *WindowLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &WindowLimiter{
		policy:  policy,
		now:     clock,
		windows: make(map[string]*window),
	}
}

func (l *WindowLimiter) Policy() Policy { return l.policy }

func (l *WindowLimiter) Allow(key string) Decision {
	var w *window
	for {
		w = l.window(key)
		if l.afterLookup != nil {
			l.afterLookup()
		}
		w.mu.Lock()
		if !w.dead {
			break
		}
		w.mu.Unlock()
	}
	defer w.mu.Unlock()
	now := l.now()

	if w.start.IsZero() || now.Sub(w.start) >= l.policy.Window {
		w.start = now
		w.count = 0
	}
	w.count++

	remaining := l.policy.Max - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   w.count <= l.policy.Max,
		Limit:     l.policy.Max,
		Remaining: remaining,
		Reset:     w.start.Add(l.policy.Window).Sub(now),
	}
}

func (l *WindowLimiter) window(key string) *window {
	l.mu.RLock()
	w, ok := l.windows[key]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok = l.windows[key]; ok {
		return w
	}
	w = &window{}
	l.windows[key] = w
	return w
}

// Sweep drops windows that have expired and returns how many were removed.
func (l *WindowLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		w.mu.Lock()
		expired := now.Sub(w.start) >= l.policy.Window
		if expired {
			w.dead = true
		}
		w.mu.Unlock()
		if expired {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys.
func (l *WindowLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}
