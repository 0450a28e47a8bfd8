package service

import (
	"log/slog"

	"github.com/GoSim-25-26J-441/entity-service/internal/logging"
	"github.com/GoSim-25-26J-441/entity-service/internal/test_entities/domain"
)

// Repository is the storage the service needs
type Repository interface {
	Create(f domain.Fields) domain.TestEntity
	FindByID(id int64) (domain.TestEntity, bool)
	FindAll(q domain.ListQuery) ([]domain.TestEntity, int)
	Update(id int64, f domain.Fields) (domain.TestEntity, bool)
	Delete(id int64) bool
	Count() int
}

// ListResult is one listing with the count before paging
type ListResult struct {
	Items []domain.TestEntity
	Total int
	Query domain.ListQuery
}

// EntityService handles business logic for test entities
type EntityService struct {
	repo   Repository
	logger *slog.Logger
}

// NewEntityService creates a new EntityService
func NewEntityService(repo Repository, logger *slog.Logger) *EntityService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &EntityService{repo: repo, logger: logger}
}

// Create stores a new entity
func (s *EntityService) Create(f domain.Fields) (domain.TestEntity, error) {
	if f.Name == nil {
		return domain.TestEntity{}, domain.ErrNameRequired
	}
	e := s.repo.Create(f)
	s.logger.Info("Test entity created", "id", e.ID, "name", e.Name)
	return e, nil
}

// Get retrieves an entity by id
func (s *EntityService) Get(id int64) (domain.TestEntity, error) {
	e, ok := s.repo.FindByID(id)
	if !ok {
		return domain.TestEntity{}, domain.ErrEntityNotFound
	}
	return e, nil
}

// List returns the entities selected by q
func (s *EntityService) List(q domain.ListQuery) ListResult {
	items, total := s.repo.FindAll(q)
	return ListResult{Items: items, Total: total, Query: q}
}

// Update merges the provided fields onto an existing entity
func (s *EntityService) Update(id int64, f domain.Fields) (domain.TestEntity, error) {
	if f.Empty() {
		return domain.TestEntity{}, domain.ErrNoFields
	}
	e, ok := s.repo.Update(id, f)
	if !ok {
		return domain.TestEntity{}, domain.ErrEntityNotFound
	}
	s.logger.Info("Test entity updated", "id", e.ID)
	return e, nil
}

// Delete removes an entity
func (s *EntityService) Delete(id int64) error {
	if !s.repo.Delete(id) {
		return domain.ErrEntityNotFound
	}
	s.logger.Info("Test entity deleted", "id", id)
	return nil
}

// Count returns the number of stored entities
func (s *EntityService) Count() int {
	return s.repo.Count()
}
