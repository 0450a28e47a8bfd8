package http

import (
	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline"
	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline/validate"
	"github.com/GoSim-25-26J-441/entity-service/internal/test_entities/service"
)

// Handler handles HTTP requests for test entities
type Handler struct {
	svc        *service.EntityService
	validator  *validate.Validator
	dispatcher *pipeline.Dispatcher
}

// New creates a new Handler
func New(svc *service.EntityService, v *validate.Validator, d *pipeline.Dispatcher) *Handler {
	return &Handler{svc: svc, validator: v, dispatcher: d}
}
