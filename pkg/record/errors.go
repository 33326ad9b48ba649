package record

import (
	"errors"
	"fmt"
)

// Builder operation errors.
var (
	ErrUnknownColumn    = errors.New("column not declared on any chain table")
	ErrGeneratedColumn  = errors.New("generated columns cannot be set")
	ErrTypeMismatch     = errors.New("value does not match the column's value type")
	ErrNotLinkColumn    = errors.New("column does not declare a triangular link")
	ErrMandatoryColumn  = errors.New("mandatory link column requires a satellite record")
	ErrWrongSatellite   = errors.New("nested builder is not for the link's satellite table")
	ErrMissingForeign   = errors.New("referenced satellite row lacks a required column")
	ErrMissingHostValue = errors.New("host row lacks a value for a declared host column")
)

// ValidationError reports a column value rejected by its registered
// validator. It never reaches storage; TrySet returns it with the builder
// left exactly as before the call.
type ValidationError struct {
	Table  string
	Column string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: table %q column %q: %s", e.Table, e.Column, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// MissingFieldError reports a required column still unset at completion.
type MissingFieldError struct {
	Table string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("incomplete: table %q is missing mandatory field %q", e.Table, e.Field)
}

// MissingLinkError reports a mandatory triangular link with no satellite
// builder or reference at completion.
type MissingLinkError struct {
	Table  string
	Column string
}

func (e *MissingLinkError) Error() string {
	return fmt.Sprintf("incomplete: table %q is missing mandatory triangular field %q", e.Table, e.Column)
}

// StorageError wraps a failure surfaced by the Storage collaborator during
// insertion, preserving the native cause.
type StorageError struct {
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: table %q: %s", e.Table, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
