package types

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups against nonexistent keys. Query-style
// operations (graph traversal from a missing seed, search on an empty
// index) return empty results instead; ErrNotFound is for point lookups.
var ErrNotFound = errors.New("not found")

// ErrCapabilityUnavailable marks an optional collaborator that is absent
// or failing. Callers recover by degrading to the previous pipeline
// stage's output and surfacing the degradation in a capability flag.
var ErrCapabilityUnavailable = errors.New("capability unavailable")

// ConfigurationError reports a missing or invalid required collaborator.
// It is fatal and surfaced at construction, never silently ignored.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// ValidationError reports a rejected mutation (unknown node/edge type,
// edge referencing a nonexistent node). The store is left unchanged.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// PartialDeleteError records a forget() that succeeded in some stores and
// failed in others. The item id is kept so a reconciliation sweep can
// finish the job later.
type PartialDeleteError struct {
	ID     string
	Errors []error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("partial delete of %q: %d store(s) failed: %v", e.ID, len(e.Errors), errors.Join(e.Errors...))
}

func (e *PartialDeleteError) Unwrap() []error { return e.Errors }
