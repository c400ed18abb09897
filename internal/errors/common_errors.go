package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures for logs, metrics and problem mapping
type ErrorType string

const (
	ErrTypeExtraction       ErrorType = "EXTRACTION"
	ErrTypeLookup           ErrorType = "LOOKUP"
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"
	ErrTypePersistence      ErrorType = "PERSISTENCE"
	ErrTypeNetwork          ErrorType = "NETWORK"
	ErrTypeInternal         ErrorType = "INTERNAL"
)

// NetworkError wraps a failed fetch of a remote source
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", ErrTypeNetwork, e.Op)
	}
	return fmt.Sprintf("[%s] %s: %v", ErrTypeNetwork, e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error for op
func NewNetworkError(op string, cause error) *NetworkError {
	return &NetworkError{Op: op, Cause: cause}
}

// TypeOf classifies err by walking its chain. Unknown errors are INTERNAL.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}

	var (
		extractionErr   *ExtractionError
		lookupErr       *LookupError
		insufficientErr *InsufficientDataError
		persistenceErr  *PersistenceError
		networkErr      *NetworkError
	)

	switch {
	case errors.As(err, &extractionErr):
		return ErrTypeExtraction
	case errors.As(err, &lookupErr):
		return ErrTypeLookup
	case errors.As(err, &insufficientErr):
		return ErrTypeInsufficientData
	case errors.As(err, &persistenceErr):
		return ErrTypePersistence
	case errors.As(err, &networkErr):
		return ErrTypeNetwork
	}
	return ErrTypeInternal
}
