package pipeline

import (
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
)

const contextKey = "pipeline.context"

// Context carries one request through the stage chain. Stages read and
// enrich it; it never outlives the request.
type Context struct {
	gin *gin.Context

	RequestID string
	Method    string
	Path      string
	// Route is the matched route pattern, empty for unknown routes.
	Route     string
	ClientKey string
	StartedAt time.Time

	Params map[string]string
	Query  url.Values
	Body   map[string]any

	// Valid holds validated and coerced values keyed by field name.
	Valid      map[string]any
	Violations []FieldViolation

	Result *Result
	Err    error

	Logger *slog.Logger
}

func newContext(c *gin.Context, logger *slog.Logger) *Context {
	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}
	return &Context{
		gin:       c,
		RequestID: c.GetString(RequestIDKey),
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		Route:     c.FullPath(),
		ClientKey: clientKey(c),
		StartedAt: time.Now(),
		Params:    params,
		Query:     c.Request.URL.Query(),
		Body:      map[string]any{},
		Valid:     map[string]any{},
		Logger:    logger,
	}
}

// RequestIDKey is where the request id middleware stores the id.
const RequestIDKey = "request_id"

// Request returns the underlying HTTP request.
func (c *Context) Request() *http.Request { return c.gin.Request }

// Header returns the response headers.
func (c *Context) Header() http.Header { return c.gin.Writer.Header() }

func (c *Context) Gin() *gin.Context { return c.gin }

// String returns a validated string value.
func (c *Context) String(name string) (string, bool) {
	v, ok := c.Valid[name].(string)
	return v, ok
}

// Int returns a validated integer value.
func (c *Context) Int(name string) (int, bool) {
	v, ok := c.Valid[name].(int)
	return v, ok
}

// ID returns a validated identifier.
func (c *Context) ID(name string) (int64, bool) {
	v, ok := c.Valid[name].(int64)
	return v, ok
}

func (c *Context) Has(name string) bool {
	_, ok := c.Valid[name]
	return ok
}

func clientKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil && host != "" {
		return host
	}
	return "unknown"
}
