package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies every error the pipeline can produce.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindMalformedIdentifier
	KindNotFound
	KindRateLimitExceeded
	KindForbidden
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindMalformedIdentifier:
		return "MalformedIdentifier"
	case KindNotFound:
		return "NotFound"
	case KindRateLimitExceeded:
		return "RateLimitExceeded"
	case KindForbidden:
		return "Forbidden"
	case KindConflict:
		return "Conflict"
	case KindUnavailable:
		return "Unavailable"
	default:
		return "Internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindMalformedIdentifier:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimitExceeded:
		return http.StatusTooManyRequests
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) defaultMessage() string {
	switch k {
	case KindValidation:
		return "Validation failed"
	case KindMalformedIdentifier:
		return "Invalid ID format"
	case KindNotFound:
		return "Resource not found"
	case KindRateLimitExceeded:
		return "Too many requests from this IP, please try again later"
	case KindForbidden:
		return "Access forbidden"
	case KindConflict:
		return "Duplicate entry - resource already exists"
	case KindUnavailable:
		return "Service not ready"
	default:
		return "Internal server error"
	}
}

// FieldViolation is one failed validation rule.
type FieldViolation struct {
	Field    string `json:"field"`
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

// Error is the single error type stages and actions return.
type Error struct {
	Kind    Kind
	Message string
	Details any
	// Stage names the pipeline stage that raised the error.
	Stage string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.defaultMessage()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err; errors that are not *Error are Internal.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// Validation aggregates violations into one ValidationError. The message joins
// every violation so it stays informative when details are withheld.
func Validation(violations []FieldViolation) *Error {
	msgs := make([]string, 0, len(violations))
	for _, v := range violations {
		msgs = append(msgs, v.Message)
	}
	msg := strings.Join(msgs, ", ")
	if msg == "" {
		msg = KindValidation.defaultMessage()
	}
	return &Error{Kind: KindValidation, Message: msg, Details: violations}
}

func MalformedIdentifier(message string, violations []FieldViolation) *Error {
	e := &Error{Kind: KindMalformedIdentifier, Message: message}
	if len(violations) > 0 {
		e.Details = violations
	}
	return e
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimitExceeded, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Unavailable(message string, details any) *Error {
	return &Error{Kind: KindUnavailable, Message: message, Details: details}
}

// Internal wraps an unanticipated failure.
func Internal(err error) *Error {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}

// tagStage records the stage on err, wrapping foreign errors as Internal.
func tagStage(stage string, err error) *Error {
	var pe *Error
	if !errors.As(err, &pe) {
		pe = Internal(err)
	}
	if pe.Stage == "" {
		pe.Stage = stage
	}
	return pe
}
