package ratelimit

import (
	"math"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline"
)

// Table picks the limiter for a request: an exact "METHOD /route" override
// when one exists, the default otherwise.
type Table struct {
	def       Limiter
	overrides map[string]Limiter
}

func NewTable(def Limiter) *Table {
	return &Table{def: def, overrides: make(map[string]Limiter)}
}

// Override assigns limiter to a "METHOD /route/pattern" entry.
func (t *Table) Override(route string, limiter Limiter) {
	t.overrides[normaliseRoute(route)] = limiter
}

func (t *Table) For(c *pipeline.Context) Limiter {
	if l, ok := t.overrides[c.Method+" "+c.Route]; ok {
		return l
	}
	return t.def
}

func normaliseRoute(route string) string {
	fields := strings.Fields(route)
	if len(fields) != 2 {
		return route
	}
	return strings.ToUpper(fields[0]) + " " + fields[1]
}

// StageConfig configures a limiting stage.
type StageConfig struct {
	Name string
	// Resolve returns the limiter for a request; nil skips limiting.
	Resolve func(*pipeline.Context) Limiter
	// Headers publishes RateLimit-* headers on every limited response.
	Headers bool
	// OnReject, when set, is told the policy name of every rejected request.
	OnReject func(policy string)
}

// Fixed resolves every request to the same limiter.
func Fixed(l Limiter) func(*pipeline.Context) Limiter {
	return func(*pipeline.Context) Limiter { return l }
}

func Stage(cfg StageConfig) pipeline.Stage {
	return pipeline.NewStage(cfg.Name, func(c *pipeline.Context) error {
		limiter := cfg.Resolve(c)
		if limiter == nil {
			return nil
		}
		policy := limiter.Policy()
		if policy.Skip != nil && policy.Skip(c) {
			return nil
		}

		d := limiter.Allow(policy.Name + ":" + c.ClientKey)
		resetIn := int(math.Ceil(d.Reset.Seconds()))
		if resetIn < 0 {
			resetIn = 0
		}
		if cfg.Headers {
			h := c.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(resetIn))
		}
		if d.Allowed {
			return nil
		}

		c.Header().Set("Retry-After", strconv.Itoa(resetIn))
		c.Logger.Warn("Rate limit exceeded",
			"policy", policy.Name,
			"ip", c.ClientKey,
			"method", c.Method,
			"path", c.Path,
			"user_agent", c.Request().UserAgent(),
		)
		if cfg.OnReject != nil {
			cfg.OnReject(policy.Name)
		}
		return pipeline.RateLimited(policy.Message)
	})
}
