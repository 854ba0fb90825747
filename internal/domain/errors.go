package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur while assembling datasets and rankings.
var (
	// ErrEmptyValue indicates that a required value is empty or nil.
	ErrEmptyValue = errors.New("empty value")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidScore indicates that a judgment score is NaN or infinite.
	ErrInvalidScore = errors.New("invalid score")

	// ErrLanguagePairMismatch indicates that a judgment was added to a dataset
	// built for a different language pair.
	ErrLanguagePairMismatch = errors.New("language pair mismatch")

	// ErrDomainConflict indicates that one segment was reported under two
	// different domains within a language pair.
	ErrDomainConflict = errors.New("segment assigned to conflicting domains")

	// ErrUnknownSystem indicates that a system is not part of a dataset or matrix.
	ErrUnknownSystem = errors.New("unknown system")

	// ErrSelfComparison indicates an attempt to store or query a system
	// against itself in a p-value matrix.
	ErrSelfComparison = errors.New("system compared with itself")

	// ErrInvalidPValue indicates a p-value outside [0, 1].
	ErrInvalidPValue = errors.New("p-value outside [0, 1]")

	// ErrInsufficientVolume indicates that a language pair has too few
	// annotations per system to be ranked.
	ErrInsufficientVolume = errors.New("insufficient annotation volume")
)

// DatasetError represents an error that occurred while building or reading
// a per-language-pair dataset.
type DatasetError struct {
	// LanguagePair is the dataset the failed operation targeted.
	LanguagePair LanguagePair

	// Operation describes what was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for DatasetError.
func (e *DatasetError) Error() string {
	return fmt.Sprintf("dataset error: operation=%s, language_pair=%s, err=%v", e.Operation, e.LanguagePair, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *DatasetError) Unwrap() error { return e.Err }

// NewDatasetError creates a new DatasetError with the given details.
func NewDatasetError(lp LanguagePair, operation string, err error) *DatasetError {
	return &DatasetError{
		LanguagePair: lp,
		Operation:    operation,
		Err:          err,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
