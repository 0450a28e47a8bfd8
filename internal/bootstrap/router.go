package bootstrap

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/entity-service/config"
	httpapi "github.com/GoSim-25-26J-441/entity-service/internal/api/http"
	"github.com/GoSim-25-26J-441/entity-service/internal/api/http/middleware"
	cronjob "github.com/GoSim-25-26J-441/entity-service/internal/cron"
	"github.com/GoSim-25-26J-441/entity-service/internal/logging"
	"github.com/GoSim-25-26J-441/entity-service/internal/metrics"
	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline"
	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline/ratelimit"
	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline/security"
	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline/validate"
	tehttp "github.com/GoSim-25-26J-441/entity-service/internal/test_entities/http"
	"github.com/GoSim-25-26J-441/entity-service/internal/test_entities/repository"
	"github.com/GoSim-25-26J-441/entity-service/internal/test_entities/service"
)

const hardeningWindow = 15 * time.Minute

type RouterDeps struct {
	ServiceName string
	Config      config.Config
	Logger      *slog.Logger
	// Repo defaults to a fresh in-memory repository.
	Repo *repository.EntityRepository
	// Clock drives rate limiting and timestamps; defaults to time.Now.
	Clock func() time.Time
	// Scheduler, when set, sweeps limiter state periodically.
	Scheduler *cronjob.Scheduler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	cfg := dep.Config
	logger := dep.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	repo := dep.Repo
	if repo == nil {
		repo = repository.NewEntityRepository(dep.Clock)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Warn("Invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	d := pipeline.NewDispatcher(pipeline.NewTranslator(cfg.App.Environment), logger)
	svc := service.NewEntityService(repo, logger)
	rec := metrics.New(svc.Count)

	limits := newLimiters(cfg, dep.Clock)
	if dep.Scheduler != nil {
		dep.Scheduler.Register("hardening", limits.hardening)
		dep.Scheduler.Register("api", limits.api)
		dep.Scheduler.Register("strict", limits.strict)
	}

	gate := security.NewGate(security.Config{
		Environment:    cfg.App.Environment,
		AllowedOrigins: cfg.Security.CORSOrigins,
		Hardening: ratelimit.Stage(ratelimit.StageConfig{
			Name:     "security.hardening",
			Resolve:  ratelimit.Fixed(limits.hardening),
			OnReject: rec.RateLimited,
		}),
		Logger: logger,
	})

	r.Use(
		rec.Middleware(),
		middleware.RequestIDMiddleware(logger, !cfg.IsTest()),
		d.Recovery(),
		d.Chain(gate.Stages()...),
		gate.CORS(),
		d.Chain(
			ratelimit.Stage(ratelimit.StageConfig{
				Name:     "ratelimit",
				Resolve:  limits.table.For,
				Headers:  true,
				OnReject: rec.RateLimited,
			}),
			pipeline.DecodeBody(cfg.Security.BodyLimitBytes),
			gate.SanitizeBody(),
		),
	)
	r.NoRoute(d.NoRoute())

	healthHandler := httpapi.NewHealthHandler(httpapi.HealthConfig{
		ServiceName: dep.ServiceName,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		Checks: []httpapi.ReadinessCheck{{
			Name: "repository",
			Check: func(context.Context) error {
				repo.Count()
				return nil
			},
		}},
		Entities: svc.Count,
	}, d)
	healthHandler.RegisterRoutes(r)
	if cfg.Server.MetricsPath != "" {
		r.GET(cfg.Server.MetricsPath, gin.WrapH(rec.Handler()))
	}

	api := r.Group(cfg.Server.APIPrefix)
	api.GET("", d.Handle(welcome(cfg)))

	entityHandler := tehttp.New(svc, validate.New(), d)
	entityHandler.Register(api)

	return r
}

type limiters struct {
	hardening *ratelimit.TokenLimiter
	api       *ratelimit.WindowLimiter
	strict    *ratelimit.WindowLimiter
	table     *ratelimit.Table
}

// newLimiters builds the two independent policies: the coarse hardening
// bucket skipped for loopback clients in development, and the api window
// (with its strict preset) skipped in the test environment.
func newLimiters(cfg config.Config, clock func() time.Time) limiters {
	hardeningPolicy := ratelimit.Policy{
		Name:    "hardening",
		Window:  hardeningWindow,
		Max:     cfg.Security.HardeningMax,
		Message: "Too many requests from this IP, please try again later",
		Skip: func(c *pipeline.Context) bool {
			return cfg.IsDevelopment() && isLoopback(c.ClientKey)
		},
	}

	skipAPI := func(c *pipeline.Context) bool {
		return cfg.IsTest() || isHealthProbe(c.Route) ||
			(cfg.Server.MetricsPath != "" && c.Route == cfg.Server.MetricsPath)
	}
	apiPolicy := ratelimit.APIPolicy(cfg.RateLimit.Window(), cfg.RateLimit.MaxRequests)
	apiPolicy.Skip = skipAPI
	strictPolicy := ratelimit.StrictPolicy()
	strictPolicy.Skip = skipAPI

	l := limiters{
		hardening: ratelimit.NewTokenLimiter(hardeningPolicy, clock),
		api:       ratelimit.NewWindowLimiter(apiPolicy, clock),
		strict:    ratelimit.NewWindowLimiter(strictPolicy, clock),
	}
	l.table = ratelimit.NewTable(l.api)
	for _, route := range cfg.RateLimit.StrictRoutes {
		l.table.Override(route, l.strict)
	}
	return l
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

func isHealthProbe(route string) bool {
	return route == "/health" || route == "/healthz" || strings.HasPrefix(route, "/health/")
}

func welcome(cfg config.Config) pipeline.Action {
	prefix := cfg.Server.APIPrefix
	return func(c *pipeline.Context) (*pipeline.Result, error) {
		return pipeline.OK(map[string]any{
			"message": "Welcome to the API",
			"version": cfg.App.Version,
			"endpoints": map[string]string{
				"health":       "/health",
				"readiness":    "/health/readiness",
				"liveness":     "/health/liveness",
				"status":       "/health/status",
				"testEntities": prefix + "/test-entities",
			},
		}, "API is operational"), nil
	}
}
