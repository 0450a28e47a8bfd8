package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/entity-service/internal/logging"
	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline"
)

const requestIDHeader = "X-Request-Id"

// requestIDKey is the key used to store request ID in context
type requestIDKey struct{}

// RequestIDMiddleware ensures every request has a stable request ID.
// - Reads X-Request-Id header if present, otherwise generates a new one
// - Stores it in the Gin context and the request context
// - Attaches a request-scoped logger carrying the id
// - Echoes it back in response header X-Request-Id
// - Logs method, path, status and latency when accessLog is set
func RequestIDMiddleware(logger *slog.Logger, accessLog bool) gin.HandlerFunc {
	if logger == nil {
		logger = logging.Nop()
	}
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}

		reqLogger := logger.With("request_id", rid)

		c.Set(pipeline.RequestIDKey, rid)
		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, rid)
		ctx = logging.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set(requestIDHeader, rid)

		start := time.Now()
		c.Next()

		if !accessLog {
			return
		}
		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		reqLogger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)
	}
}

// GetRequestID extracts the request ID from a standard context
func GetRequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}
