// LOCATION: internal/errors/errors.go
//
// This file provides:
// - Sentinel errors for all error conditions of the benchmark pipeline
// - Error category checking functions
// - Error wrapping utilities
// - A validation error collector used by the config layer

package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Not found errors
	ErrNotFound         = errors.New("not found")
	ErrManifestNotFound = errors.New("manifest not found")
	ErrSourceNotFound   = errors.New("source file not found")

	// Precondition errors
	ErrPrerequisiteMissing = errors.New("prerequisite missing")

	// Validation errors
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidMonthRange = errors.New("invalid month range")
	ErrInvalidSampleSize = errors.New("invalid sample size")
	ErrUnknownAdapter    = errors.New("unknown adapter")
	ErrUnknownSource     = errors.New("unknown source kind")
	ErrMissingField      = errors.New("missing required field")

	// Data errors
	ErrInsufficientRows = errors.New("insufficient source rows")
	ErrRowCountMismatch = errors.New("row count mismatch")
	ErrMalformedRecord  = errors.New("malformed record")

	// Runtime errors
	ErrConversion  = errors.New("conversion failed")
	ErrSourceFetch = errors.New("source fetch failed")
	ErrInternal    = errors.New("internal error")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// Join is a convenience wrapper for errors.Join
var Join = errors.Join

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrManifestNotFound) ||
		errors.Is(err, ErrSourceNotFound)
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidMonthRange) ||
		errors.Is(err, ErrInvalidSampleSize) ||
		errors.Is(err, ErrUnknownAdapter) ||
		errors.Is(err, ErrUnknownSource) ||
		errors.Is(err, ErrMissingField)
}

// IsPrerequisite returns true if err reports a missing earlier stage.
func IsPrerequisite(err error) bool {
	return errors.Is(err, ErrPrerequisiteMissing)
}

// IsConversion returns true if err came from a conversion adapter.
func IsConversion(err error) bool {
	return errors.Is(err, ErrConversion)
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// Error constructors with context
// ============================================================================

// NewNotFound creates a not-found error with context.
func NewNotFound(entityType, identifier string) error {
	return fmt.Errorf("%s '%s': %w", entityType, identifier, ErrNotFound)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// NewInvalidValue creates an invalid value error.
func NewInvalidValue(field string, value interface{}, reason string) error {
	return fmt.Errorf("invalid %s '%v': %s: %w", field, value, reason, ErrInvalidConfig)
}

// NewPrerequisite creates an error telling the operator which stage to run first.
func NewPrerequisite(what, hint string) error {
	return fmt.Errorf("required %s not found, %s: %w", what, hint, ErrPrerequisiteMissing)
}

// ============================================================================
// Validation Errors Collection
// ============================================================================

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// AddMissing adds a missing field error.
func (v *ValidationErrors) AddMissing(field string) {
	v.Errors = append(v.Errors, NewMissingField(field))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap returns the collected errors for errors.Is/As support.
func (v *ValidationErrors) Unwrap() []error {
	return v.Errors
}
