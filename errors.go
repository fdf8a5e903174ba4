package goadssim

import (
	"errors"
	"fmt"
	"net"

	"github.com/mrpasztoradam/goadssim/internal/ads"
)

// ErrorCategory represents the type of error for better error handling.
type ErrorCategory int

const (
	// ErrorCategoryUnknown represents an unclassified error.
	ErrorCategoryUnknown ErrorCategory = iota

	// ErrorCategoryNetwork represents network-level errors (connection, timeout, etc.).
	ErrorCategoryNetwork

	// ErrorCategoryProtocol represents AMS/ADS framing and decoding errors.
	ErrorCategoryProtocol

	// ErrorCategoryADS represents ADS result codes produced while serving a request.
	ErrorCategoryADS

	// ErrorCategoryValidation represents input validation errors.
	ErrorCategoryValidation

	// ErrorCategoryConfiguration represents configuration errors.
	ErrorCategoryConfiguration

	// ErrorCategoryState represents state-related errors (e.g., server closed).
	ErrorCategoryState
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryNetwork:
		return "network"
	case ErrorCategoryProtocol:
		return "protocol"
	case ErrorCategoryADS:
		return "ads"
	case ErrorCategoryValidation:
		return "validation"
	case ErrorCategoryConfiguration:
		return "configuration"
	case ErrorCategoryState:
		return "state"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with additional classification metadata.
type ClassifiedError struct {
	Category  ErrorCategory
	Operation string // The operation that failed (e.g., "accept", "read", "dispatch")
	Err       error
	ADSError  *ads.Error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s operation failed: %v", e.Operation, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// ClassifyError attempts to classify an error into a category.
func ClassifyError(err error, operation string) *ClassifiedError {
	if err == nil {
		return nil
	}

	ce := &ClassifiedError{
		Category:  ErrorCategoryUnknown,
		Operation: operation,
		Err:       err,
	}

	var adsErr ads.Error
	if errors.As(err, &adsErr) {
		ce.Category = ErrorCategoryADS
		ce.ADSError = &adsErr
		return ce
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, net.ErrClosed) {
		ce.Category = ErrorCategoryNetwork
		return ce
	}

	return ce
}

// Common error constructors with classification

// NewNetworkError creates a classified network error.
func NewNetworkError(operation string, err error) error {
	return &ClassifiedError{
		Category:  ErrorCategoryNetwork,
		Operation: operation,
		Err:       err,
	}
}

// NewProtocolError creates a classified protocol error.
func NewProtocolError(operation string, err error) error {
	return &ClassifiedError{
		Category:  ErrorCategoryProtocol,
		Operation: operation,
		Err:       err,
	}
}

// NewValidationError creates a classified validation error.
func NewValidationError(operation, message string) error {
	return &ClassifiedError{
		Category:  ErrorCategoryValidation,
		Operation: operation,
		Err:       errors.New(message),
	}
}

// NewStateError creates a classified state error.
func NewStateError(operation, message string) error {
	return &ClassifiedError{
		Category:  ErrorCategoryState,
		Operation: operation,
		Err:       errors.New(message),
	}
}
