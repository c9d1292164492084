package models

import "fmt"

// ConfigurationError reports an invalid specification or distribution
// parameter set. It is always fatal to the operation that raised it.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	type causer interface{ Cause() error }
	for err != nil {
		if _, ok := err.(*ConfigurationError); ok {
			return true
		}
		cause, ok := err.(causer)
		if !ok {
			return false
		}
		err = cause.Cause()
	}
	return false
}

// GenerationFailure identifies a single entity that could not be generated.
// Failures are collected alongside successes; they abort a chunk, never a
// previously completed one.
type GenerationFailure struct {
	Chunk int
	Index int
	Err   error
}

func (f GenerationFailure) Error() string {
	return fmt.Sprintf("entity %d (chunk %d) failed to generate: %v", f.Index, f.Chunk, f.Err)
}

// DerivationWarning records a cross-domain trigger that skipped a malformed
// source event. Warnings never abort a batch.
type DerivationWarning struct {
	EventKind EventKind
	EventID   string
	Reason    string
}

func (w DerivationWarning) String() string {
	return fmt.Sprintf("skipped %s %s: %s", w.EventKind, w.EventID, w.Reason)
}

// UnsupportedEntityTypeError is returned by a format transformer handed an
// entity kind it does not declare.
type UnsupportedEntityTypeError struct {
	Format string
	Kind   EntityKind
}

func (e *UnsupportedEntityTypeError) Error() string {
	return fmt.Sprintf("format %s does not support entity kind %s", e.Format, e.Kind)
}

// FormatValidationError reports output that would violate a structural
// requirement of the target format. Invalid output is never emitted.
type FormatValidationError struct {
	Format string
	Msg    string
}

func (e *FormatValidationError) Error() string {
	return fmt.Sprintf("%s output validation: %s", e.Format, e.Msg)
}
