package errors

import (
	"errors"
	"net/http"
)

// APIError is an error whose HTTP rendering the caller has already decided.
// ProblemType is the RFC 7807 type reported for it.
type APIError struct {
	StatusCode  int    `json:"status_code"`
	ErrorCode   string `json:"error_code"`
	ProblemType string `json:"-"`
	Message     string `json:"message"`
	Details     any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// ValidationError is one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InsufficientDataDetails describes the comparison group that ran short
type InsufficientDataDetails struct {
	Term    string `json:"term,omitempty"`
	Group   string `json:"group,omitempty"`
	Samples int    `json:"samples"`
	Reason  string `json:"reason"`
}

// ErrTablesUnavailable is returned by the read API until a table load succeeds
var ErrTablesUnavailable = &APIError{
	StatusCode:  http.StatusServiceUnavailable,
	ErrorCode:   "TABLES_UNAVAILABLE",
	ProblemType: TypeServiceDown,
	Message:     "Fused tables are not loaded",
}

// ErrValidation rejects a single request field
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors rejects the request with every failed field listed
func NewValidationErrors(fields []ValidationError) *APIError {
	return &APIError{
		StatusCode:  http.StatusBadRequest,
		ErrorCode:   "VALIDATION_FAILED",
		ProblemType: TypeValidation,
		Message:     "Request validation failed",
		Details:     fields,
	}
}

// InsufficientDataWithError reports a comparison that could not be computed.
// When err wraps an InsufficientDataError its group and sample count are
// passed on to the client.
func InsufficientDataWithError(err error) *APIError {
	details := InsufficientDataDetails{Reason: err.Error()}
	var insufficient *InsufficientDataError
	if errors.As(err, &insufficient) {
		details = InsufficientDataDetails{
			Term:    string(insufficient.Term),
			Group:   string(insufficient.Group),
			Samples: insufficient.Count,
			Reason:  insufficient.Reason,
		}
	}
	return &APIError{
		StatusCode:  http.StatusUnprocessableEntity,
		ErrorCode:   "INSUFFICIENT_DATA",
		ProblemType: TypeInsufficientData,
		Message:     "Not enough data for the comparison",
		Details:     details,
	}
}
