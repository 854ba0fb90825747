package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur while reading inputs and
// writing results.
var (
	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrMalformedRecord indicates that an input record could not be parsed.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrSourceUnavailable indicates that an input file or workbook could
	// not be opened.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnsupportedFormat indicates that an output format is not known.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// DataError represents a data-integrity failure in an input file. Data
// errors are fatal for the file they occur in.
type DataError struct {
	// Source is the file or sheet the record came from.
	Source string

	// Line is the 1-based line or row number, or 0 when unknown.
	Line int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for DataError.
func (e *DataError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("data error: source=%s, line=%d, err=%v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("data error: source=%s, err=%v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *DataError) Unwrap() error { return e.Err }

// NewDataError creates a new DataError with the given details.
func NewDataError(source string, line int, err error) *DataError {
	return &DataError{
		Source: source,
		Line:   line,
		Err:    err,
	}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric that was being collected when the
	// error occurred.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	// Err is the underlying error that caused the metrics operation to fail.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
