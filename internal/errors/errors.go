package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/RubeHicksCube/Djournal/internal/logger"
)

// ErrPayloadTooLarge is wrapped by the validation error returned for oversized uploads
var ErrPayloadTooLarge = stderrors.New("payload too large")

// ValidationError reports malformed or missing input
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports a reference to an id or date that does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConflictError reports a duplicate key
type ConflictError struct {
	Resource string
	Key      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.Key)
}

// InvalidStateError reports an operation that is valid in general but not
// for the entity's current type or state
type InvalidStateError struct {
	Resource string
	ID       string
	Message  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Resource, e.ID, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func Conflict(resource, key string) error {
	return &ConflictError{Resource: resource, Key: key}
}

func InvalidState(resource, id, message string) error {
	return &InvalidStateError{Resource: resource, ID: id, Message: message}
}

// TooLarge returns a validation error for field that wraps ErrPayloadTooLarge
func TooLarge(field string, size, limit int64) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("decoded size %d bytes exceeds limit of %d bytes", size, limit),
		Err:     ErrPayloadTooLarge,
	}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return stderrors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return stderrors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return stderrors.As(err, &target)
}

func IsPayloadTooLarge(err error) bool {
	return stderrors.Is(err, ErrPayloadTooLarge)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
