package crime

import (
	"errors"
	"fmt"
)

// LoadError is returned when the crime collection cannot be read.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "unable to load crimes"
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError checks if an error is a load error
func IsLoadError(err error) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr)
}

// ValidationError carries the first failing rule's message plus every
// per-field message.
type ValidationError struct {
	Message string
	Fields  FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// NotFoundError represents a crime id absent from the collection
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("crime '%s' not found", e.ID)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// InputError represents a missing required argument
type InputError struct {
	Field string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// IsInputError checks if an error is an input error
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}
