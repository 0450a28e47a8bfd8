package repository

import (
	"cmp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/entity-service/internal/test_entities/domain"
)

// EntityRepository is the exclusive in-memory owner of test entities.
// A single lock guards the map and the id counter together.
type EntityRepository struct {
	mu     sync.RWMutex
	items  map[int64]domain.TestEntity
	nextID int64
	now    func() time.Time
}

// NewEntityRepository creates an empty repository. A nil clock uses time.Now.
func NewEntityRepository(clock func() time.Time) *EntityRepository {
	if clock == nil {
		clock = time.Now
	}
	return &EntityRepository{
		items:  make(map[int64]domain.TestEntity),
		nextID: 1,
		now:    clock,
	}
}

// Create stores a new entity with a freshly allocated id
func (r *EntityRepository) Create(f domain.Fields) domain.TestEntity {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e := domain.TestEntity{ID: r.nextID, CreatedAt: now, UpdatedAt: now}
	e.Apply(f)
	r.nextID++

	r.items[e.ID] = e
	return e.Clone()
}

// FindByID returns a copy of the entity, or false when absent
func (r *EntityRepository) FindByID(id int64) (domain.TestEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok {
		return domain.TestEntity{}, false
	}
	return e.Clone(), true
}

// FindAll returns the page selected by q and the number of entities that
// matched the filter before paging. Without a sort field entities come back
// in insertion order.
func (r *EntityRepository) FindAll(q domain.ListQuery) ([]domain.TestEntity, int) {
	r.mu.RLock()
	matched := make([]domain.TestEntity, 0, len(r.items))
	for _, e := range r.items {
		if matches(e, q) {
			matched = append(matched, e.Clone())
		}
	}
	r.mu.RUnlock()

	sortEntities(matched, q.SortBy, q.Descending)

	total := len(matched)
	if !q.Paginated() {
		return matched, total
	}
	start := q.Offset()
	if start >= total {
		return []domain.TestEntity{}, total
	}
	end := total
	if q.Limit < total-start {
		end = start + q.Limit
	}
	return matched[start:end], total
}

// Update merges f onto the stored entity, keeping id and createdAt
func (r *EntityRepository) Update(id int64, f domain.Fields) (domain.TestEntity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]
	if !ok {
		return domain.TestEntity{}, false
	}

	merged := e.Clone()
	merged.Apply(f)
	merged.ID = e.ID
	merged.CreatedAt = e.CreatedAt

	now := r.now()
	if now.Before(e.UpdatedAt) {
		now = e.UpdatedAt
	}
	merged.UpdatedAt = now

	r.items[id] = merged
	return merged.Clone(), true
}

// Delete removes the entity and reports whether it existed
func (r *EntityRepository) Delete(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	return true
}

// Count returns the number of stored entities
func (r *EntityRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Reset clears all entities and restarts ids at 1. Intended for tests.
func (r *EntityRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[int64]domain.TestEntity)
	r.nextID = 1
}

func matches(e domain.TestEntity, q domain.ListQuery) bool {
	if q.Status != "" && (e.Status == nil || *e.Status != q.Status) {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	if strings.Contains(strings.ToLower(e.Name), needle) {
		return true
	}
	return e.Description != nil && strings.Contains(strings.ToLower(*e.Description), needle)
}

// sortEntities orders by field with ascending id as the tie breaker. Ids
// grow with insertion, so sorting by id restores insertion order.
func sortEntities(items []domain.TestEntity, field domain.SortField, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		c := compareBy(field, a, b)
		if c == 0 && (field == "" || field == domain.SortByID) {
			c = cmp.Compare(a.ID, b.ID)
		}
		if c == 0 {
			return a.ID < b.ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareBy(field domain.SortField, a, b domain.TestEntity) int {
	switch field {
	case domain.SortByName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case domain.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case domain.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case domain.SortByValue:
		return compareOptional(a.Value, b.Value, cmp.Compare[float64])
	case domain.SortByStatus:
		return compareOptional(a.Status, b.Status, strings.Compare)
	}
	return 0
}

// compareOptional orders absent values before present ones.
func compareOptional[T any](a, b *T, compare func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compare(*a, *b)
}
