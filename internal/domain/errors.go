package domain

import "fmt"

// ValidationError reports malformed or out-of-range input. Field names the
// offending parameter (e.g. "fieldSize", "numberOfDivisions").
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NotFoundError reports a referenced crop, rotation or plan entry that does
// not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// ConflictError reports that the state a mutation was computed from is stale.
// The caller should reload and retry.
type ConflictError struct {
	Entity string
	Key    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently; reload and retry", e.Entity, e.Key)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
