package xentity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by every operation that needs a connection
	// when the session has none (or the session itself is nil).
	ErrNotConfigured = errors.New("xentity: no connection configured")

	// ErrNotFound is returned by Get when no row carries the requested ID.
	ErrNotFound = errors.New("xentity: record not found")
)

// ArgumentError reports a missing or empty required input: entity, id,
// statement text or statement list.
type ArgumentError struct {
	Arg    string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("xentity: invalid argument %s: %s", e.Arg, e.Reason)
}

// ConfigurationError reports an unusable connection handle or DSN, or an
// invalid Config.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "xentity: configuration: " + e.Reason
}

// MetadataError reports a record type that cannot be mapped: no table name,
// no eligible fields, or an inconsistent field list.
type MetadataError struct {
	Type   string
	Reason string
}

func (e *MetadataError) Error() string {
	if e.Type == "" {
		return "xentity: metadata: " + e.Reason
	}
	return fmt.Sprintf("xentity: metadata for %s: %s", e.Type, e.Reason)
}

// ConversionError reports a value that cannot be coerced to a field's
// declared type, in either direction.
type ConversionError struct {
	Field  string
	Target FieldType
	Value  any
	Err    error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("xentity: cannot convert %T(%v) to %s", e.Value, e.Value, e.Target)
	if e.Field != "" {
		msg += " for field " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ExecutionError wraps a failure reported by the driver while opening the
// connection or running a statement.
type ExecutionError struct {
	Op    string // "open", "exec" or "query"
	Query string
	Err   error
}

func (e *ExecutionError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("xentity: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("xentity: %s %q: %v", e.Op, e.Query, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IsExecution reports whether err is (or wraps) an *ExecutionError.
func IsExecution(err error) bool {
	var e *ExecutionError
	return errors.As(err, &e)
}

// IsConversion reports whether err is (or wraps) a *ConversionError.
func IsConversion(err error) bool {
	var e *ConversionError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
