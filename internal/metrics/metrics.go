// Package metrics exposes request and rate-limit counters in the Prometheus
// text format.
//
// Labels follow one convention throughout: method is the upper-case HTTP
// method, path is the matched route pattern ("unmatched" when no route
// matched) and status is the numeric response code.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "entity_service"

// Recorder owns a private registry so several routers can coexist in one
// process (tests build many).
type Recorder struct {
	registry *prometheus.Registry

	// requests counts handled requests. Labels: method, path, status.
	requests *prometheus.CounterVec
	// duration tracks request latency in seconds. Labels: method, path.
	duration *prometheus.HistogramVec
	// rejections counts rate-limited requests. Labels: policy.
	rejections *prometheus.CounterVec
}

// New builds a recorder. entities, when set, backs a gauge of stored entities
// read at scrape time.
func New(entities func() int) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by a rate-limit policy.",
		}, []string{"policy"}),
	}

	r.registry.MustRegister(
		r.requests,
		r.duration,
		r.rejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if entities != nil {
		r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "test_entities",
			Help:      "Number of stored test entities.",
		}, func() float64 { return float64(entities()) }))
	}
	return r
}

// Middleware observes every request after the rest of the chain has run.
func (r *Recorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		r.requests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		r.duration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RateLimited records one rejection by the named policy.
func (r *Recorder) RateLimited(policy string) {
	r.rejections.WithLabelValues(policy).Inc()
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
