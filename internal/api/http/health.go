package http

import (
	"context"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline"
)

type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Version     string    `json:"version"`
	Environment string    `json:"environment,omitempty"`
	Uptime      float64   `json:"uptime"`
}

type ReadinessResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

type StatusResponse struct {
	HealthResponse
	Runtime  RuntimeStatus `json:"runtime"`
	Entities int           `json:"entities"`
}

type RuntimeStatus struct {
	GoVersion  string `json:"goVersion"`
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heapAllocBytes"`
	HeapSys    uint64 `json:"heapSysBytes"`
	NumGC      uint32 `json:"numGC"`
	NumCPU     int    `json:"numCPU"`
	GOMAXPROCS int    `json:"gomaxprocs"`
}

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	serviceName string
	version     string
	environment string
	started     time.Time
	checks      []ReadinessCheck
	entities    func() int
	dispatcher  *pipeline.Dispatcher
}

type HealthConfig struct {
	ServiceName string
	Version     string
	Environment string
	Checks      []ReadinessCheck
	// Entities reports the stored entity count for the status endpoint.
	Entities func() int
}

func NewHealthHandler(cfg HealthConfig, d *pipeline.Dispatcher) *HealthHandler {
	return &HealthHandler{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		environment: cfg.Environment,
		started:     time.Now(),
		checks:      cfg.Checks,
		entities:    cfg.Entities,
		dispatcher:  d,
	}
}

func (h *HealthHandler) health() HealthResponse {
	return HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Service:     h.serviceName,
		Version:     h.version,
		Environment: h.environment,
		Uptime:      time.Since(h.started).Seconds(),
	}
}

func (h *HealthHandler) HealthCheck(c *pipeline.Context) (*pipeline.Result, error) {
	return pipeline.OK(h.health(), "Service is running"), nil
}

func (h *HealthHandler) Liveness(c *pipeline.Context) (*pipeline.Result, error) {
	return pipeline.OK(map[string]any{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	}, "Service is alive"), nil
}

func (h *HealthHandler) Readiness(c *pipeline.Context) (*pipeline.Result, error) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
	defer cancel()

	checks := map[string]string{"server": "ok"}
	ready := true
	for _, rc := range h.checks {
		if err := rc.Check(ctx); err != nil {
			checks[rc.Name] = "down"
			ready = false
			c.Logger.Warn("Readiness check failed", "check", rc.Name, "error", err)
			continue
		}
		checks[rc.Name] = "ok"
	}

	if !ready {
		return nil, pipeline.Unavailable("Service not ready", map[string]any{"checks": checks})
	}
	return pipeline.OK(ReadinessResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}, "Service is ready"), nil
}

func (h *HealthHandler) Status(c *pipeline.Context) (*pipeline.Result, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := StatusResponse{
		HealthResponse: h.health(),
		Runtime: RuntimeStatus{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			HeapAlloc:  mem.HeapAlloc,
			HeapSys:    mem.HeapSys,
			NumGC:      mem.NumGC,
			NumCPU:     runtime.NumCPU(),
			GOMAXPROCS: runtime.GOMAXPROCS(0),
		},
	}
	if h.entities != nil {
		resp.Entities = h.entities()
	}
	return pipeline.OK(resp, "System status retrieved successfully"), nil
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	d := h.dispatcher
	r.GET("/health", d.Handle(h.HealthCheck))
	r.GET("/healthz", d.Handle(h.HealthCheck))
	r.GET("/health/liveness", d.Handle(h.Liveness))
	r.GET("/health/readiness", d.Handle(h.Readiness))
	r.GET("/health/status", d.Handle(h.Status))
}
