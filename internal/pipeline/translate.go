package pipeline

import (
	"errors"

	"github.com/GoSim-25-26J-441/entity-service/config"
)

const productionInternalMessage = "An unexpected error occurred"

// Translation is the client-facing rendering of an error.
type Translation struct {
	Status  int
	Kind    Kind
	Message string
	Details any
}

// Translator maps pipeline errors to status codes and client messages.
type Translator struct {
	environment string
}

func NewTranslator(environment string) *Translator {
	return &Translator{environment: environment}
}

func (t *Translator) production() bool {
	return t.environment == config.EnvProduction
}

// exposeDetails is true only for an explicitly named non-production environment.
func (t *Translator) exposeDetails() bool {
	return t.environment != "" && !t.production()
}

func (t *Translator) Translate(err error) Translation {
	var pe *Error
	if !errors.As(err, &pe) {
		pe = Internal(err)
	}

	tr := Translation{
		Status:  pe.Kind.Status(),
		Kind:    pe.Kind,
		Message: pe.Message,
		Details: pe.Details,
	}
	if tr.Message == "" {
		tr.Message = pe.Kind.defaultMessage()
	}

	if pe.Kind == KindInternal {
		if t.production() {
			tr.Message = productionInternalMessage
		} else if tr.Details == nil && pe.Err != nil {
			tr.Details = map[string]string{"cause": pe.Err.Error()}
		}
	}

	if !t.exposeDetails() {
		tr.Details = nil
	}
	return tr
}
