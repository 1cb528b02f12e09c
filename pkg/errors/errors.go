// Package errors provides the error taxonomy of the argmap reconciliation
// engine. Errors are typed so callers can tell a malformed snapshot apart
// from a single bad record, and a failed commit apart from a dangling
// reference, using errors.Is and errors.As.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As are aliases for the standard library functions so callers
// need only one errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Sentinel errors for the argmap system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformed indicates a snapshot that cannot be parsed or whose
	// schema version is not supported
	ErrMalformed = errors.New("malformed snapshot")

	// ErrDanglingReference indicates a reference that resolves to nothing
	ErrDanglingReference = errors.New("dangling reference")

	// ErrConflict indicates two incoming records competing for one id
	ErrConflict = errors.New("conflict")

	// ErrStorage indicates that the backing store failed
	ErrStorage = errors.New("storage failure")

	// ErrSessionActive indicates an import session is already in progress
	ErrSessionActive = errors.New("import session already active")

	// ErrInvalidTransition indicates an operation not allowed in the
	// current session state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a record or argument that failed validation.
// Kind and ID are set when the failure belongs to a snapshot record.
type ValidationError struct {
	Kind    string
	ID      string
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var subject string
	if e.Kind != "" {
		subject = fmt.Sprintf(" of %s %q", e.Kind, e.ID)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed%s for field %s: %s", subject, e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed%s: %s", subject, e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NewRecordValidationError creates a ValidationError for one snapshot record.
func NewRecordValidationError(kind, id, field, message string) *ValidationError {
	return &ValidationError{Kind: kind, ID: id, Field: field, Message: message}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d:%d: %s", e.Format, e.File, e.Line, e.Column, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformed
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// ReferenceError represents a foreign key of an incoming record that
// resolves neither to a record of the same snapshot nor to an existing
// entity of the expected kind.
type ReferenceError struct {
	Kind     string // kind of the referencing record
	ID       string // snapshot id of the referencing record
	Field    string // referencing field, e.g. "claimId"
	TargetID string
	Targets  []string // acceptable target kinds
}

// Error implements the error interface
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q: %s references unknown %v %q", e.Kind, e.ID, e.Field, e.Targets, e.TargetID)
}

// Is implements errors.Is support
func (e *ReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

// NewReferenceError creates a new ReferenceError
func NewReferenceError(kind, id, field, targetID string, targets ...string) *ReferenceError {
	return &ReferenceError{Kind: kind, ID: id, Field: field, TargetID: targetID, Targets: targets}
}

// ConflictError represents two incoming records of one kind that claim the
// same snapshot id while carrying different content.
type ConflictError struct {
	Kind         string
	ID           string
	Fingerprint  string
	ExistingHash string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q appears twice with different content (%s != %s)", e.Kind, e.ID, e.Fingerprint, e.ExistingHash)
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(kind, id, fingerprint, existing string) *ConflictError {
	return &ConflictError{Kind: kind, ID: id, Fingerprint: fingerprint, ExistingHash: existing}
}

// StorageError represents a failure of the backing store.
type StorageError struct {
	Operation string // "list", "begin", "put", "commit", "rollback", "open"
	Kind      string
	Err       error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("storage %s of %s failed: %v", e.Operation, e.Kind, e.Err)
	}
	return fmt.Sprintf("storage %s failed: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// NewStorageError creates a new StorageError
func NewStorageError(operation, kind string, err error) *StorageError {
	return &StorageError{Operation: operation, Kind: kind, Err: err}
}

// TransitionError represents an operation attempted in the wrong session state.
type TransitionError struct {
	From string
	To   string
}

// Error implements the error interface
func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// Is implements errors.Is support
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NewTransitionError creates a new TransitionError
func NewTransitionError(from, to string) *TransitionError {
	return &TransitionError{From: from, To: to}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "fetch"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsParseError checks if an error is a malformed snapshot error
func IsParseError(err error) bool {
	return errors.Is(err, ErrMalformed)
}

// IsReferenceError checks if an error is a dangling reference error
func IsReferenceError(err error) bool {
	return errors.Is(err, ErrDanglingReference)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsStorageError checks if an error is a storage error
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapStorage wraps an error as a StorageError
func WrapStorage(operation, kind string, err error) error {
	if err == nil {
		return nil
	}
	return NewStorageError(operation, kind, err)
}
