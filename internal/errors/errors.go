// Package errors provides error handling utilities.
package errors

import (
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeFetch indicates a download failure for a service offer file
	TypeFetch Type = "FETCH_FAILURE"

	// TypeUnmappableUnit indicates a vendor unit with no canonical mapping
	TypeUnmappableUnit Type = "UNMAPPABLE_UNIT"

	// TypeUnmappableRegion indicates a location with no region code mapping
	TypeUnmappableRegion Type = "UNMAPPABLE_REGION"

	// TypeTierContinuity indicates a gap or overlap in pricing tier bounds
	TypeTierContinuity Type = "TIER_CONTINUITY_VIOLATION"

	// TypeSchema indicates normalized output violating the canonical schema
	TypeSchema Type = "SCHEMA_VIOLATION"

	// TypeNumericAnomaly indicates a rate outside its plausible bounds
	TypeNumericAnomaly Type = "NUMERIC_ANOMALY"

	// TypeParity indicates a downloaded/processed service set mismatch
	TypeParity Type = "PARITY_MISMATCH"

	// TypeStateTransition indicates an illegal service state transition
	TypeStateTransition Type = "STATE_TRANSITION_VIOLATION"

	// TypeVersionCollision indicates an attempt to rewrite an existing version
	TypeVersionCollision Type = "VERSION_DIRECTORY_COLLISION"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeParsing indicates a parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == t
	}
	return false
}

// FetchFailure creates a fetch error for a service
func FetchFailure(service string, cause error) *Error {
	return Wrapf(TypeFetch, cause, "failed to download offer file for %s", service).
		WithContext("service", service)
}

// UnmappableUnit creates an unmappable unit error
func UnmappableUnit(service, sku, unit string) *Error {
	return Newf(TypeUnmappableUnit, "no canonical mapping for unit %q", unit).
		WithContext("service", service).
		WithContext("sku", sku).
		WithContext("unit", unit)
}

// TierContinuity creates a tier continuity error
func TierContinuity(service, component, detail string) *Error {
	return Newf(TypeTierContinuity, "tier bounds for %s are not contiguous: %s", component, detail).
		WithContext("service", service).
		WithContext("component", component)
}

// SchemaViolation creates a schema violation error
func SchemaViolation(service, path, detail string) *Error {
	return Newf(TypeSchema, "schema violation at %s: %s", path, detail).
		WithContext("service", service).
		WithContext("path", path)
}

// NumericAnomaly creates a numeric anomaly error
func NumericAnomaly(service, component, detail string) *Error {
	return Newf(TypeNumericAnomaly, "implausible rate for %s: %s", component, detail).
		WithContext("service", service).
		WithContext("component", component)
}

// ParityMismatch creates a parity mismatch error
func ParityMismatch(missing, unexpected []string) *Error {
	return New(TypeParity, "downloaded and processed service sets differ").
		WithContext("missing", missing).
		WithContext("unexpected", unexpected)
}

// StateTransition creates a state transition error
func StateTransition(service string, cause error) *Error {
	return Wrapf(TypeStateTransition, cause, "illegal state transition for %s", service).
		WithContext("service", service)
}

// VersionCollision creates a version directory collision error
func VersionCollision(path string) *Error {
	return Newf(TypeVersionCollision, "version directory already exists: %s", path).
		WithContext("path", path)
}

// Config creates a configuration error
func Config(message string) *Error {
	return New(TypeConfig, message)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
