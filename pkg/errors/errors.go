// Package errors provides custom error types for the reconciliation workflow.
// These errors enable programmatic error checking with errors.Is / errors.As
// and carry the diagnostic context each failure class needs.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Unwrap are re-exported so callers need a single errors import.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// Common sentinel errors for the reconciliation workflow
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrIntegrity indicates that collaborator data violates a data-model invariant
	ErrIntegrity = errors.New("data integrity violation")

	// ErrInvalidChoice indicates that a user choice references an unknown value or candidate
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrTransport indicates a network or backend failure
	ErrTransport = errors.New("transport failure")

	// ErrStale indicates a response for a superseded request
	ErrStale = errors.New("stale response")

	// ErrBusy indicates that a long-running operation is already in flight
	ErrBusy = errors.New("operation in progress")

	// ErrInvalidTransition indicates an operation that is illegal in the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")
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

// InputValidationError reports required inputs that are missing or malformed
// before an analysis may start. It never moves the workflow into its error state.
type InputValidationError struct {
	Fields  []string
	Message string
}

// Error implements the error interface
func (e *InputValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("input validation failed for %s: %s", strings.Join(e.Fields, ", "), e.Message)
	}
	return fmt.Sprintf("input validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *InputValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewInputValidationError creates a new InputValidationError
func NewInputValidationError(message string, fields ...string) *InputValidationError {
	return &InputValidationError{Fields: fields, Message: message}
}

// DataIntegrityError reports an analysis payload that violates the per-category
// invariants. It indicates an upstream bug and is surfaced verbatim.
type DataIntegrityError struct {
	Category string
	Value    string
	Reason   string
}

// Error implements the error interface
func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation in category %s for value %q: %s", e.Category, e.Value, e.Reason)
}

// Is implements errors.Is support
func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// NewDataIntegrityError creates a new DataIntegrityError
func NewDataIntegrityError(category, value, reason string) *DataIntegrityError {
	return &DataIntegrityError{Category: category, Value: value, Reason: reason}
}

// InvalidChoiceError reports a recorded choice that does not reference a pending
// value or one of its candidates. Callers should re-render from authoritative state.
type InvalidChoiceError struct {
	Category string
	Original string
	RoleName string
	Reason   string
}

// Error implements the error interface
func (e *InvalidChoiceError) Error() string {
	if e.RoleName != "" {
		return fmt.Sprintf("invalid choice %q for %s value %q: %s", e.RoleName, e.Category, e.Original, e.Reason)
	}
	return fmt.Sprintf("invalid choice for %s value %q: %s", e.Category, e.Original, e.Reason)
}

// Is implements errors.Is support
func (e *InvalidChoiceError) Is(target error) bool {
	return target == ErrInvalidChoice
}

// NewInvalidChoiceError creates a new InvalidChoiceError
func NewInvalidChoiceError(category, original, roleName, reason string) *InvalidChoiceError {
	return &InvalidChoiceError{Category: category, Original: original, RoleName: roleName, Reason: reason}
}

// TransportError represents a network or backend failure while talking to the
// matching collaborator.
type TransportError struct {
	Operation  string // "analyze", "process", "download", "health"
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NewTransportError creates a new TransportError
func NewTransportError(operation string, statusCode int, message string) *TransportError {
	return &TransportError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
	}
}

// StaleResponseError marks a response for a request that has been superseded.
// It is internal: callers discard it without surfacing it to the user.
type StaleResponseError struct {
	Operation string
	Sequence  uint64
	Current   uint64
}

// Error implements the error interface
func (e *StaleResponseError) Error() string {
	return fmt.Sprintf("stale %s response: request %d superseded by %d", e.Operation, e.Sequence, e.Current)
}

// Is implements errors.Is support
func (e *StaleResponseError) Is(target error) bool {
	return target == ErrStale
}

// BusyError is returned when a long-running operation is requested while
// another one is still in flight.
type BusyError struct {
	Requested string
	InFlight  string
}

// Error implements the error interface
func (e *BusyError) Error() string {
	return fmt.Sprintf("cannot start %s: %s is in progress", e.Requested, e.InFlight)
}

// Is implements errors.Is support
func (e *BusyError) Is(target error) bool {
	return target == ErrBusy
}

// TransitionError is returned when an operation is not legal in the current state.
type TransitionError struct {
	Operation string
	State     string
}

// Error implements the error interface
func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s is not allowed in state %s", e.Operation, e.State)
}

// Is implements errors.Is support
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
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

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
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

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open"
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

// IsInputValidation checks if an error is an input validation error
func IsInputValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsIntegrity checks if an error is a data integrity error
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// IsInvalidChoice checks if an error is an invalid choice error
func IsInvalidChoice(err error) bool {
	return errors.Is(err, ErrInvalidChoice)
}

// IsTransport checks if an error is a transport error
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsStale checks if an error marks a superseded response
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}

// IsBusy checks if an error is a re-entrancy refusal
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

// IsInvalidTransition checks if an error is an illegal transition
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
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

// WrapTransport wraps an error as a TransportError
func WrapTransport(operation string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{
		Operation: operation,
		Message:   err.Error(),
		Err:       err,
	}
}
