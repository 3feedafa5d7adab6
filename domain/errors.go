package domain

import (
	"errors"
	"fmt"
)

// Error codes for domain errors
var (
	ErrConfig        = errors.New("configuration error")
	ErrInvalidInput  = errors.New("invalid input")
	ErrFileNotFound  = errors.New("file not found")
	ErrParse         = errors.New("parse error")
	ErrLowering      = errors.New("lowering error")
	ErrUnsupported   = errors.New("unsupported operation")
	ErrOutputFormat  = errors.New("unsupported output format")
)

// DomainError wraps an error with a domain error code and context message
type DomainError struct {
	Code    error
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the domain error code
func (e *DomainError) Is(target error) bool {
	return errors.Is(e.Code, target)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, err error) *DomainError {
	return &DomainError{Code: ErrConfig, Message: message, Err: err}
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string, err error) *DomainError {
	return &DomainError{Code: ErrInvalidInput, Message: message, Err: err}
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string, err error) *DomainError {
	return &DomainError{Code: ErrFileNotFound, Message: path, Err: err}
}

// NewParseError creates a parse error
func NewParseError(message string, err error) *DomainError {
	return &DomainError{Code: ErrParse, Message: message, Err: err}
}

// NewLoweringError creates a lowering error
func NewLoweringError(message string, err error) *DomainError {
	return &DomainError{Code: ErrLowering, Message: message, Err: err}
}

// NewUnsupportedFormatError creates an unsupported output format error
func NewUnsupportedFormatError(format OutputFormat) *DomainError {
	return &DomainError{Code: ErrOutputFormat, Message: string(format)}
}
