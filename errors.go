package vecbase

import (
	"fmt"
)

// ErrDimensionMismatch indicates a vector or query whose length disagrees
// with the configured dimension. The store is left unmodified.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// ErrNotFound indicates an id that is not present in the store.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("not found: %q", e.ID)
}

// ErrConfig indicates an invalid configuration value.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrConfig struct {
	Field  string
	Reason string
	cause  error
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

func (e *ErrConfig) Unwrap() error { return e.cause }

// ErrPluginLoad indicates a plugin that could not be registered.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrPluginLoad struct {
	Name   string
	Reason string
	cause  error
}

func (e *ErrPluginLoad) Error() string {
	return fmt.Sprintf("plugin %q: %s", e.Name, e.Reason)
}

func (e *ErrPluginLoad) Unwrap() error { return e.cause }
