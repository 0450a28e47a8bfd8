package domain

import (
	"encoding/json"
	"math"
	"time"
)

// TestEntity is the single resource managed by the service
type TestEntity struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Status      *string        `json:"status,omitempty"` // active, inactive, pending
	Value       *float64       `json:"value,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// Statuses lists every accepted status value
var Statuses = []string{StatusActive, StatusInactive, StatusPending}

// Fields is a partial set of entity attributes. Nil means "not provided";
// an empty non-nil Tags or Metadata replaces the stored value with an empty one.
type Fields struct {
	Name        *string
	Description *string
	Status      *string
	Value       *float64
	Tags        []string
	Metadata    map[string]any
}

// Empty reports whether no attribute is provided
func (f Fields) Empty() bool {
	return f.Name == nil && f.Description == nil && f.Status == nil &&
		f.Value == nil && f.Tags == nil && f.Metadata == nil
}

// Clone returns a deep copy so callers never share mutable state with storage
func (e TestEntity) Clone() TestEntity {
	out := e
	if e.Description != nil {
		d := *e.Description
		out.Description = &d
	}
	if e.Status != nil {
		s := *e.Status
		out.Status = &s
	}
	if e.Value != nil {
		v := *e.Value
		out.Value = &v
	}
	if e.Tags != nil {
		out.Tags = append([]string{}, e.Tags...)
	}
	if e.Metadata != nil {
		out.Metadata = cloneMap(e.Metadata)
	}
	return out
}

// Apply overwrites the attributes present in f
func (e *TestEntity) Apply(f Fields) {
	if f.Name != nil {
		e.Name = *f.Name
	}
	if f.Description != nil {
		d := *f.Description
		e.Description = &d
	}
	if f.Status != nil {
		s := *f.Status
		e.Status = &s
	}
	if f.Value != nil {
		v := *f.Value
		e.Value = &v
	}
	if f.Tags != nil {
		e.Tags = append([]string{}, f.Tags...)
	}
	if f.Metadata != nil {
		e.Metadata = cloneMap(f.Metadata)
	}
}

// cloneMap deep copies JSON-shaped values; anything else is copied through
// a JSON round trip.
func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64, int, int64, json.Number:
		return t
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return t
		}
		var copied any
		if err := json.Unmarshal(raw, &copied); err != nil {
			return t
		}
		return copied
	}
}

// SortField names an attribute entities can be ordered by
type SortField string

const (
	SortByID        SortField = "id"
	SortByName      SortField = "name"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByValue     SortField = "value"
	SortByStatus    SortField = "status"
)

// ListQuery filters, orders and pages a listing. Zero Limit disables paging.
type ListQuery struct {
	Status     string
	Search     string
	SortBy     SortField
	Descending bool
	Page       int
	Limit      int
}

// Paginated reports whether the query selects a page
func (q ListQuery) Paginated() bool {
	return q.Limit > 0
}

// Offset returns the index of the first entity on the page, saturating at
// math.MaxInt instead of overflowing.
func (q ListQuery) Offset() int {
	if !q.Paginated() || q.Page < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}
