package pipeline

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuccessEnvelope is the body of every successful response.
type SuccessEnvelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data"`
	Message    string      `json:"message"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

// Result is what an action hands back to the formatter.
type Result struct {
	Status     int
	Data       any
	Message    string
	Pagination *Pagination
}

func OK(data any, message string) *Result {
	return &Result{Status: http.StatusOK, Data: data, Message: message}
}

func Created(data any, message string) *Result {
	return &Result{Status: http.StatusCreated, Data: data, Message: message}
}

func Paginated(data any, p Pagination, message string) *Result {
	return &Result{Status: http.StatusOK, Data: data, Message: message, Pagination: &p}
}

func (r *Result) Envelope() SuccessEnvelope {
	return SuccessEnvelope{Success: true, Data: r.Data, Message: r.Message, Pagination: r.Pagination}
}

func (t Translation) Envelope() ErrorEnvelope {
	return ErrorEnvelope{Success: false, Error: t.Message, Details: t.Details}
}

func writeResult(c *gin.Context, r *Result) {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, r.Envelope())
}

func writeError(c *gin.Context, t Translation) {
	c.AbortWithStatusJSON(t.Status, t.Envelope())
}
