package security

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/entity-service/config"
	"github.com/GoSim-25-26J-441/entity-service/internal/logging"
	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline"
)

// DefaultMultiValueParams may legitimately repeat in a query string.
var DefaultMultiValueParams = []string{"sort", "fields", "page", "limit"}

type Config struct {
	Environment    string
	AllowedOrigins []string
	// MultiValueParams defaults to DefaultMultiValueParams.
	MultiValueParams []string
	// Hardening is the coarse per-client limiter run inside the gate.
	Hardening pipeline.Stage
	Logger    *slog.Logger
}

// Gate enforces origin policy, request hardening and input sanitisation
// before any route logic runs.
type Gate struct {
	environment string
	origins     map[string]struct{}
	allowAll    bool
	multiValue  map[string]struct{}
	hardening   pipeline.Stage
	logger      *slog.Logger
}

func NewGate(cfg Config) *Gate {
	g := &Gate{
		environment: cfg.Environment,
		origins:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
		multiValue:  make(map[string]struct{}),
		hardening:   cfg.Hardening,
		logger:      cfg.Logger,
	}
	if g.logger == nil {
		g.logger = logging.Nop()
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			g.allowAll = true
		}
		g.origins[o] = struct{}{}
	}
	params := cfg.MultiValueParams
	if params == nil {
		params = DefaultMultiValueParams
	}
	for _, p := range params {
		g.multiValue[p] = struct{}{}
	}
	return g
}

// Stages returns the gate in execution order.
func (g *Gate) Stages() []pipeline.Stage {
	return []pipeline.Stage{Headers(), g.Origin(), g.hardening, g.Query()}
}

// AllowOrigin reports whether a cross-origin caller is permitted. Requests
// without an Origin header are always allowed.
func (g *Gate) AllowOrigin(origin string) bool {
	if origin == "" || g.allowAll || g.environment == config.EnvDevelopment {
		return true
	}
	_, ok := g.origins[origin]
	return ok
}

func (g *Gate) Origin() pipeline.Stage {
	return pipeline.NewStage("security.origin", func(c *pipeline.Context) error {
		origin := c.Request().Header.Get("Origin")
		if g.AllowOrigin(origin) {
			return nil
		}
		c.Logger.Warn("Blocked by CORS", "origin", origin, "ip", c.ClientKey)
		return pipeline.Forbidden("Not allowed by CORS")
	})
}

// Query rewrites injection keys and rejects repeated parameters outside the
// multi-value whitelist.
func (g *Gate) Query() pipeline.Stage {
	return pipeline.NewStage("security.query", func(c *pipeline.Context) error {
		for key, values := range c.Query {
			clean := SanitizeKey(key)
			if clean == key {
				continue
			}
			c.Logger.Warn("Sanitized request data", "key", key, "location", "query", "ip", c.ClientKey)
			delete(c.Query, key)
			c.Query[clean] = append(c.Query[clean], values...)
		}

		var repeated []string
		for key, values := range c.Query {
			if _, ok := g.multiValue[key]; ok || len(values) < 2 {
				continue
			}
			repeated = append(repeated, key)
		}
		if len(repeated) == 0 {
			return nil
		}
		sort.Strings(repeated)

		c.Logger.Warn("HTTP parameter pollution blocked", "params", repeated, "ip", c.ClientKey)
		violations := make([]pipeline.FieldViolation, len(repeated))
		for i, key := range repeated {
			violations[i] = pipeline.FieldViolation{
				Field:    key,
				Location: "query",
				Message:  fmt.Sprintf("Duplicate query parameter '%s' is not allowed", key),
			}
		}
		return pipeline.Validation(violations)
	})
}

// SanitizeBody rewrites injection keys in the decoded body.
func (g *Gate) SanitizeBody() pipeline.Stage {
	return pipeline.NewStage("security.body", func(c *pipeline.Context) error {
		for _, key := range SanitizeValue(c.Body) {
			c.Logger.Warn("Sanitized request data", "key", key, "location", "body", "ip", c.ClientKey)
		}
		return nil
	})
}

// CORS answers preflight requests and decorates allowed cross-origin
// responses using the same origin predicate as the gate.
func (g *Gate) CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc: g.AllowOrigin,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders: []string{
			"X-Total-Count", "X-Page-Count", "X-Request-ID",
			"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
}
