package bootstrap

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/entity-service/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestRouter(t *testing.T, mutate func(*config.Config)) (*gin.Engine, *fakeClock) {
	t.Helper()
	cfg := config.Default()
	cfg.App.Environment = config.EnvTest
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	clock := &fakeClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	r := BuildRouter(RouterDeps{ServiceName: "entity-service-test", Config: cfg, Clock: clock.Now})
	return r, clock
}

func do(r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/test-entities", `{"name":"Test Entity","value":100}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, true, created["success"])
	assert.Equal(t, "Test entity created successfully", created["message"])
	entity := created["data"].(map[string]any)
	assert.Equal(t, float64(1), entity["id"])

	w = do(r, http.MethodGet, "/api/test-entities/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, entity["id"], got["id"])
	assert.Equal(t, "Test Entity", got["name"])
	assert.Equal(t, float64(100), got["value"])
	assert.Equal(t, entity["createdAt"], got["createdAt"])
}

func TestNotFoundVersusMalformed(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/api/test-entities/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid ID format", decode(t, w)["error"])

	w = do(r, http.MethodGet, "/api/test-entities/999999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Test entity not found", decode(t, w)["error"])

	w = do(r, http.MethodDelete, "/api/test-entities/0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidationAggregation(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/test-entities", `{"name":"","value":"abc"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Name is required, Value must be a number", body["error"])

	details := body["details"].([]any)
	require.GreaterOrEqual(t, len(details), 2)
	fields := map[string]bool{}
	for _, d := range details {
		fields[d.(map[string]any)["field"].(string)] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["value"])
}

func TestProductionHidesDetails(t *testing.T) {
	r, _ := newTestRouter(t, func(c *config.Config) { c.App.Environment = config.EnvProduction })

	w := do(r, http.MethodPost, "/api/test-entities", `{"name":"","value":"abc"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.NotContains(t, body, "details")
	assert.Equal(t, "Name is required, Value must be a number", body["error"])
}

func TestRateLimiting(t *testing.T) {
	r, clock := newTestRouter(t, func(c *config.Config) {
		c.App.Environment = config.EnvDevelopment
		c.RateLimit.MaxRequests = 5
		c.RateLimit.WindowMs = 60000
	})

	for i := 1; i <= 5; i++ {
		w := do(r, http.MethodGet, "/api/test-entities", "")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
		assert.Equal(t, fmt.Sprint(5-i), w.Header().Get("RateLimit-Remaining"))
	}

	w := do(r, http.MethodGet, "/api/test-entities", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests from this IP, please try again later", decode(t, w)["error"])
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code, "health probes are exempt")

	clock.Advance(60 * time.Second)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/test-entities", "").Code)
}

func TestRateLimitingSkippedInTestEnvironment(t *testing.T) {
	r, _ := newTestRouter(t, func(c *config.Config) { c.RateLimit.MaxRequests = 1 })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/test-entities", "").Code)
	}
}

func TestStrictRouteOverride(t *testing.T) {
	r, _ := newTestRouter(t, func(c *config.Config) {
		c.App.Environment = config.EnvDevelopment
		c.RateLimit.StrictRoutes = []string{"POST /api/test-entities"}
	})

	for i := 0; i < 10; i++ {
		w := do(r, http.MethodPost, "/api/test-entities", fmt.Sprintf(`{"name":"Entity %d"}`, i))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/api/test-entities", `{"name":"One more"}`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/test-entities", "").Code)
}

func TestHardeningHeaders(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	for _, path := range []string{"/health", "/api/test-entities/abc", "/nowhere"} {
		w := do(r, http.MethodGet, path, "")
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), path)
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"), path)
		assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"), path)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"), path)
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Route not found: GET /api/nope", body["error"])
}

func TestForbiddenOrigin(t *testing.T) {
	r, _ := newTestRouter(t, func(c *config.Config) {
		c.App.Environment = config.EnvProduction
		c.Security.CORSOrigins = []string{"https://app.example"}
	})

	w := do(r, http.MethodGet, "/api/test-entities", "", "Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Not allowed by CORS", decode(t, w)["error"])

	w = do(r, http.MethodGet, "/api/test-entities", "", "Origin", "https://app.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/test-entities", "").Code, "no origin header")
}

func TestUpdateFlow(t *testing.T) {
	r, clock := newTestRouter(t, nil)

	created := decode(t, do(r, http.MethodPost, "/api/test-entities", `{"name":"Original","status":"active","tags":["a"]}`))["data"].(map[string]any)
	clock.Advance(time.Minute)

	w := do(r, http.MethodPut, "/api/test-entities/1", `{"description":"X"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Test entity updated successfully", body["message"])
	updated := body["data"].(map[string]any)
	assert.Equal(t, created["id"], updated["id"])
	assert.Equal(t, created["createdAt"], updated["createdAt"])
	assert.NotEqual(t, created["updatedAt"], updated["updatedAt"])
	assert.Equal(t, "X", updated["description"])
	assert.Equal(t, "Original", updated["name"])
	assert.Equal(t, []any{"a"}, updated["tags"])

	w = do(r, http.MethodPut, "/api/test-entities/1", `{"unknown":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "At least one valid field must be provided for update", decode(t, w)["error"])

	w = do(r, http.MethodPut, "/api/test-entities/1", `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Status must be one of: active, inactive, pending", decode(t, w)["error"])

	w = do(r, http.MethodPut, "/api/test-entities/999999", `{"name":"Nobody"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteFlow(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	do(r, http.MethodPost, "/api/test-entities", `{"name":"Doomed"}`)

	w := do(r, http.MethodDelete, "/api/test-entities/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Contains(t, body, "data")
	assert.Nil(t, body["data"])
	assert.Equal(t, "Test entity deleted successfully", body["message"])

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/test-entities/1", "").Code)
}

func TestListing(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	for _, payload := range []string{
		`{"name":"Charlie","status":"active","value":3}`,
		`{"name":"Alpha","status":"pending","value":1}`,
		`{"name":"Bravo","status":"active","value":2}`,
	} {
		require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/test-entities", payload).Code)
	}

	w := do(r, http.MethodGet, "/api/test-entities", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["data"], 3)
	assert.NotContains(t, body, "pagination")
	assert.Equal(t, "3", w.Header().Get("X-Total-Count"))

	w = do(r, http.MethodGet, "/api/test-entities?page=1&limit=2&sortBy=name", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	items := body["data"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Alpha", items[0].(map[string]any)["name"])
	p := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), p["totalPages"])
	assert.Equal(t, true, p["hasNextPage"])
	assert.Equal(t, false, p["hasPrevPage"])
	assert.Equal(t, "2", w.Header().Get("X-Page-Count"))

	w = do(r, http.MethodGet, "/api/test-entities?status=active&sortBy=value&sortOrder=desc", "")
	items = decode(t, w)["data"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Charlie", items[0].(map[string]any)["name"])

	w = do(r, http.MethodGet, "/api/test-entities?page=2", "")
	p = decode(t, w)["pagination"].(map[string]any)
	assert.Equal(t, float64(10), p["limit"])

	w = do(r, http.MethodGet, "/api/test-entities?limit=500&sortOrder=up", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Limit must be between 1 and 100, SortOrder must be either asc or desc", decode(t, w)["error"])

	w = do(r, http.MethodGet, "/api/test-entities?status=active&status=pending", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndWelcome(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	do(r, http.MethodPost, "/api/test-entities", `{"name":"Counted"}`)

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["data"].(map[string]any)["status"])

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/liveness", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/readiness", "").Code)

	w = do(r, http.MethodGet, "/health/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["data"].(map[string]any)["entities"])

	w = do(r, http.MethodGet, "/api", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "API is operational", decode(t, w)["message"])
}

func TestInjectionKeysSanitized(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/test-entities", `{"name":"Safe","metadata":{"$where":"1","a.b":2}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	meta := decode(t, w)["data"].(map[string]any)["metadata"].(map[string]any)
	assert.Equal(t, map[string]any{"_where": "1", "a_b": float64(2)}, meta)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, func(c *config.Config) {
		c.App.Environment = config.EnvDevelopment
		c.RateLimit.MaxRequests = 1
	})

	do(r, http.MethodGet, "/api/test-entities", "")
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/api/test-entities", "").Code)

	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `entity_service_http_requests_total{method="GET",path="/api/test-entities",status="429"} 1`)
	assert.Contains(t, body, `entity_service_rate_limit_rejections_total{policy="api"} 1`)
	assert.Contains(t, body, "entity_service_test_entities 0")
}

func TestMetricsDisabled(t *testing.T) {
	r, _ := newTestRouter(t, func(c *config.Config) { c.Server.MetricsPath = "" })
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/metrics", "").Code)
}

func TestListHugePageIsRejected(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	for i := 0; i < 3; i++ {
		do(r, http.MethodPost, "/api/test-entities", fmt.Sprintf(`{"name":"Entity %d"}`, i))
	}

	w := do(r, http.MethodGet, "/api/test-entities?page=4611686018427387904&limit=4", "")
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "Page must be a positive integer", decode(t, w)["error"])

	w = do(r, http.MethodGet, "/api/test-entities?page=2147483647&limit=100", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Empty(t, body["data"])
	assert.Equal(t, float64(3), body["pagination"].(map[string]any)["total"])
}

func doFrom(r *gin.Engine, remoteAddr, path string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestHardeningLimitInProduction(t *testing.T) {
	r, _ := newTestRouter(t, func(c *config.Config) {
		c.App.Environment = config.EnvProduction
		c.Security.HardeningMax = 2
	})

	assert.Equal(t, http.StatusOK, doFrom(r, "203.0.113.7:4000", "/health"))
	assert.Equal(t, http.StatusOK, doFrom(r, "203.0.113.7:4000", "/api/test-entities"))
	assert.Equal(t, http.StatusTooManyRequests, doFrom(r, "203.0.113.7:4000", "/health"))
	assert.Equal(t, http.StatusOK, doFrom(r, "203.0.113.8:4000", "/health"), "buckets are per client")
}

func TestHardeningSkipsLoopbackInDevelopment(t *testing.T) {
	r, _ := newTestRouter(t, func(c *config.Config) {
		c.App.Environment = config.EnvDevelopment
		c.Security.HardeningMax = 2
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doFrom(r, "127.0.0.1:5000", "/health"), "request %d", i+1)
	}

	assert.Equal(t, http.StatusOK, doFrom(r, "203.0.113.7:4000", "/health"))
	assert.Equal(t, http.StatusOK, doFrom(r, "203.0.113.7:4000", "/health"))
	assert.Equal(t, http.StatusTooManyRequests, doFrom(r, "203.0.113.7:4000", "/health"))
}
