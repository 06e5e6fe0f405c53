package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks across package boundaries.
var (
	ErrValidation  = errors.New("validation failed")
	ErrState       = errors.New("invalid wizard state")
	ErrPersistence = errors.New("persistence failed")
	ErrNotFound    = errors.New("record not found")
)

// ValidationError reports one field that failed a rule.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	if e.Value == nil || e.Value == "" {
		return fmt.Sprintf("%s %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s %s (got %v)", e.Field, e.Message, e.Value)
}

func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrors collects field failures so a form can show all of them at once.
type ValidationErrors []ValidationError

// Add records a failure.
func (v *ValidationErrors) Add(field string, value interface{}, message string) {
	*v = append(*v, ValidationError{Field: field, Value: value, Message: message})
}

// Required records a failure when value is blank.
func (v *ValidationErrors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, nil, "is required")
	}
}

// Err returns nil when nothing failed.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Is(target error) bool { return target == ErrValidation }

// Fields lists the names of the failing fields in order.
func (v ValidationErrors) Fields() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Field
	}
	return out
}

// NewValidationError is a shorthand for a single-field failure.
func NewValidationError(field string, value interface{}, message string) error {
	return ValidationErrors{{Field: field, Value: value, Message: message}}
}

// StateError reports a wizard operation attempted in the wrong state.
type StateError struct {
	Op   string
	From string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.From)
}

func (e *StateError) Is(target error) bool { return target == ErrState }

// PersistenceError wraps a file system or encoding failure.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// LoadWarning describes a record that was skipped while loading.
type LoadWarning struct {
	Path   string
	Reason string
}

func (w LoadWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}
