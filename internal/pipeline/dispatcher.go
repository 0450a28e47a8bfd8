package pipeline

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/entity-service/internal/logging"
)

// StageFunc inspects or enriches the request context. A non-nil error
// stops the chain and is rendered as the response.
type StageFunc func(*Context) error

// Stage is a named step of the request pipeline.
type Stage struct {
	Name string
	Run  StageFunc
}

func NewStage(name string, fn StageFunc) Stage {
	return Stage{Name: name, Run: fn}
}

// Action executes the operation for a matched route.
type Action func(*Context) (*Result, error)

// Dispatcher runs stage chains on top of gin and renders their outcome.
type Dispatcher struct {
	translator *Translator
	logger     *slog.Logger
}

func NewDispatcher(translator *Translator, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{translator: translator, logger: logger}
}

// Context returns the pipeline context for c, creating it on first use.
func (d *Dispatcher) Context(c *gin.Context) *Context {
	if v, ok := c.Get(contextKey); ok {
		if pc, ok := v.(*Context); ok {
			return pc
		}
	}
	pc := newContext(c, logging.FromContext(c.Request.Context(), d.logger))
	c.Set(contextKey, pc)
	return pc
}

// Chain runs stages in order as gin middleware.
func (d *Dispatcher) Chain(stages ...Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		pc := d.Context(c)
		if !d.run(c, pc, stages) {
			return
		}
		c.Next()
	}
}

// Handle runs the route stages, then the action, then formats the result.
func (d *Dispatcher) Handle(action Action, stages ...Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		pc := d.Context(c)
		if !d.run(c, pc, stages) {
			return
		}

		res, err := action(pc)
		if err != nil {
			d.Fail(c, tagStage("handler", err))
			return
		}
		if res == nil {
			d.Fail(c, tagStage("handler", fmt.Errorf("action returned no result")))
			return
		}
		pc.Result = res
		writeResult(c, res)
	}
}

func (d *Dispatcher) run(c *gin.Context, pc *Context, stages []Stage) bool {
	for _, s := range stages {
		if s.Run == nil {
			continue
		}
		if err := s.Run(pc); err != nil {
			d.Fail(c, tagStage(s.Name, err))
			return false
		}
	}
	return true
}

// Fail renders err as an error envelope and aborts the gin chain.
func (d *Dispatcher) Fail(c *gin.Context, err error) {
	pc := d.Context(c)
	pc.Err = err
	tr := d.translator.Translate(err)

	attrs := []any{
		"kind", tr.Kind.String(),
		"status", tr.Status,
		"method", pc.Method,
		"path", pc.Path,
		"ip", pc.ClientKey,
	}
	if pe, ok := err.(*Error); ok && pe.Stage != "" {
		attrs = append(attrs, "stage", pe.Stage)
	}
	if tr.Status >= http.StatusInternalServerError {
		pc.Logger.Error("Request failed", append(attrs, "error", err.Error())...)
	} else {
		pc.Logger.Warn("Request rejected", append(attrs, "error", tr.Message)...)
	}

	if c.Writer.Written() {
		c.Abort()
		return
	}
	writeError(c, tr)
}

// NoRoute answers requests that matched no route.
func (d *Dispatcher) NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		d.Fail(c, tagStage("router", NotFound(fmt.Sprintf("Route not found: %s %s", c.Request.Method, c.Request.URL.RequestURI()))))
	}
}

// Recovery converts panics in later handlers into Internal errors.
func (d *Dispatcher) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if r == http.ErrAbortHandler {
					panic(r)
				}
				d.Context(c).Logger.Error("Panic recovered", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
				d.Fail(c, tagStage("recovery", fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}
