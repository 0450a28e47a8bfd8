package http

import (
	"errors"
	"strconv"

	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline"
	"github.com/GoSim-25-26J-441/entity-service/internal/test_entities/domain"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// Create creates a new test entity
func (h *Handler) Create(c *pipeline.Context) (*pipeline.Result, error) {
	e, err := h.svc.Create(fieldsFrom(c))
	if err != nil {
		return nil, translate(err)
	}
	return pipeline.Created(e, "Test entity created successfully"), nil
}

// List lists test entities, paginated when page or limit is given
func (h *Handler) List(c *pipeline.Context) (*pipeline.Result, error) {
	q := domain.ListQuery{}
	q.Status, _ = c.String("status")
	q.Search, _ = c.String("search")
	if sortBy, ok := c.String("sortBy"); ok {
		q.SortBy = domain.SortField(sortBy)
	}
	if order, _ := c.String("sortOrder"); order == "desc" {
		q.Descending = true
	}

	paginated := c.Has("page") || c.Has("limit")
	if paginated {
		q.Page, q.Limit = defaultPage, defaultLimit
		if page, ok := c.Int("page"); ok {
			q.Page = page
		}
		if limit, ok := c.Int("limit"); ok {
			q.Limit = limit
		}
	}

	res := h.svc.List(q)
	c.Header().Set("X-Total-Count", strconv.Itoa(res.Total))

	if !paginated {
		return pipeline.OK(res.Items, "Test entities retrieved successfully"), nil
	}
	p := pipeline.NewPagination(q.Page, q.Limit, res.Total)
	c.Header().Set("X-Page-Count", strconv.Itoa(p.TotalPages))
	return pipeline.Paginated(res.Items, p, "Test entities retrieved successfully"), nil
}

// Get retrieves a test entity by id
func (h *Handler) Get(c *pipeline.Context) (*pipeline.Result, error) {
	id, _ := c.ID("id")
	e, err := h.svc.Get(id)
	if err != nil {
		return nil, translate(err)
	}
	return pipeline.OK(e, "Test entity retrieved successfully"), nil
}

// Update applies a partial update to a test entity
func (h *Handler) Update(c *pipeline.Context) (*pipeline.Result, error) {
	id, _ := c.ID("id")
	e, err := h.svc.Update(id, fieldsFrom(c))
	if err != nil {
		return nil, translate(err)
	}
	return pipeline.OK(e, "Test entity updated successfully"), nil
}

// Delete removes a test entity
func (h *Handler) Delete(c *pipeline.Context) (*pipeline.Result, error) {
	id, _ := c.ID("id")
	if err := h.svc.Delete(id); err != nil {
		return nil, translate(err)
	}
	return pipeline.OK(nil, "Test entity deleted successfully"), nil
}

func fieldsFrom(c *pipeline.Context) domain.Fields {
	var f domain.Fields
	if v, ok := c.String("name"); ok {
		f.Name = &v
	}
	if v, ok := c.String("description"); ok {
		f.Description = &v
	}
	if v, ok := c.String("status"); ok {
		f.Status = &v
	}
	if v, ok := c.Valid["value"].(float64); ok {
		f.Value = &v
	}
	if v, ok := c.Valid["tags"].([]string); ok {
		f.Tags = v
	}
	if v, ok := c.Valid["metadata"].(map[string]any); ok {
		f.Metadata = v
	}
	return f
}

func translate(err error) error {
	switch {
	case errors.Is(err, domain.ErrEntityNotFound):
		return pipeline.NotFound("Test entity not found")
	case errors.Is(err, domain.ErrNoFields):
		return pipeline.Validation([]pipeline.FieldViolation{{
			Field:    "body",
			Location: "body",
			Message:  "At least one valid field must be provided for update",
		}})
	case errors.Is(err, domain.ErrNameRequired):
		return pipeline.Validation([]pipeline.FieldViolation{{
			Field:    "name",
			Location: "body",
			Message:  "Name is required",
		}})
	default:
		return pipeline.Internal(err)
	}
}
