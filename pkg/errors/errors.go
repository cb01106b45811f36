// Package errors provides the application's error taxonomy.
package errors

import (
	"fmt"
)

// Severity classifies how urgently an error deserves operator attention.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Kind enumerates the error kinds the recommendation core is allowed to
// produce. No other kind is ever returned by internal/recommend.
type Kind string

const (
	// EmbeddingUnavailable is raised when the external embedding provider
	// call fails or times out. The orchestrator never retries.
	EmbeddingUnavailable Kind = "embedding_unavailable"
	// InvalidConfiguration is raised at startup when config validation fails.
	InvalidConfiguration Kind = "invalid_configuration"
	// CatalogCorrupt is raised when the catalog snapshot is built from a
	// vector of the wrong dimension or an embedding for an unknown movie.
	CatalogCorrupt Kind = "catalog_corrupt"

	// ServiceUnavailable and the unexported kinds below back internal
	// plumbing (circuit breaker, validation framework, timeout manager);
	// they never cross the core boundary under their own name, since callers
	// at the embedding call site translate a timeout into EmbeddingUnavailable.
	ServiceUnavailable Kind = "service_unavailable"
	internalErrorKind  Kind = "internal"
	validationKind     Kind = "validation"
	timeoutKind        Kind = "timeout"
)

// ApplicationError is the single concrete error type used across the module.
// It carries enough structure for logs and MCP tool error payloads without
// resorting to string matching on Error().
type ApplicationError struct {
	Kind      Kind
	Message   string
	Severity  Severity
	Component string
	Details   map[string]interface{}
	cause     error
}

// Error implements the error interface.
func (e *ApplicationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying cause.
func (e *ApplicationError) Unwrap() error {
	return e.cause
}

// WithSeverity sets the error's severity and returns it for chaining.
func (e *ApplicationError) WithSeverity(s Severity) *ApplicationError {
	e.Severity = s
	return e
}

// WithComponent records which subsystem raised the error.
func (e *ApplicationError) WithComponent(component string) *ApplicationError {
	e.Component = component
	return e
}

// WithDetails attaches structured diagnostic data.
func (e *ApplicationError) WithDetails(details map[string]interface{}) *ApplicationError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error.
func (e *ApplicationError) WithCause(cause error) *ApplicationError {
	e.cause = cause
	return e
}

func newApplicationError(kind Kind, message string) *ApplicationError {
	return &ApplicationError{Kind: kind, Message: message, Severity: SeverityMedium}
}

// NewEmbeddingUnavailable builds the one error kind the embedding adapter
// may raise: the provider call failed or its deadline expired.
func NewEmbeddingUnavailable(message string, cause error) *ApplicationError {
	return newApplicationError(EmbeddingUnavailable, message).
		WithSeverity(SeverityHigh).
		WithComponent("embedding").
		WithCause(cause)
}

// NewInvalidConfiguration builds the error kind startup config validation
// raises.
func NewInvalidConfiguration(message string, details map[string]interface{}) *ApplicationError {
	return newApplicationError(InvalidConfiguration, message).
		WithSeverity(SeverityHigh).
		WithComponent("config").
		WithDetails(details)
}

// NewCatalogCorrupt builds the error kind raised while building the catalog
// snapshot when a stored embedding is unusable (wrong dimension, or no
// matching movie), a precomputation pipeline defect, never a user-facing
// condition.
func NewCatalogCorrupt(message string, movieID int) *ApplicationError {
	return newApplicationError(CatalogCorrupt, message).
		WithSeverity(SeverityHigh).
		WithComponent("catalog").
		WithDetails(map[string]interface{}{"movie_id": movieID})
}

// NewValidationError backs the pkg/validation framework. Config validation
// wraps it as InvalidConfiguration before it reaches a caller; request
// validation (on UserRequest) is advisory only and never blocks a call.
func NewValidationError(message string, field string, details interface{}) *ApplicationError {
	return newApplicationError(validationKind, message).
		WithSeverity(SeverityMedium).
		WithComponent("validation").
		WithDetails(map[string]interface{}{"field": field, "details": details})
}

// NewTimeoutError backs pkg/timeout. Callers at the embedding boundary
// translate it into EmbeddingUnavailable rather than surfacing it directly.
func NewTimeoutError(operation string, timeout interface{}) *ApplicationError {
	return newApplicationError(timeoutKind, fmt.Sprintf("operation %q timed out", operation)).
		WithSeverity(SeverityHigh).
		WithComponent("timeout").
		WithDetails(map[string]interface{}{"operation": operation, "timeout": timeout})
}

// NewApplicationError is the generic constructor used by internal plumbing
// (circuit breaker, graceful shutdown) that does not map to one of the
// core's three public kinds.
func NewApplicationError(kind Kind, message string) *ApplicationError {
	return newApplicationError(kind, message)
}

// InternalError is the generic internal-error kind used by plumbing that
// has no more specific classification.
const InternalError Kind = internalErrorKind

// Is reports whether err is an *ApplicationError of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := err.(*ApplicationError)
	if !ok {
		return false
	}
	return appErr.Kind == kind
}
