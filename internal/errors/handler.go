package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"

	"github.com/AleksandrZin/google-election/internal/infrastructure"
)

// RFC 7807 problem types of the read API
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeServiceDown      = "/errors/service-unavailable"
	TypeTimeout          = "/errors/timeout"
	TypeInsufficientData = "/errors/stats/insufficient-data"
	TypeDataUnavailable  = "/errors/data/unavailable"
	TypeDataCorrupted    = "/errors/data/corrupted"
	TypeUpstream         = "/errors/upstream"
)

// problemKind is how one ErrorType is shown to clients. An empty detail
// means the error text itself is safe to show.
type problemKind struct {
	status int
	typ    string
	title  string
	detail string
}

var problemKinds = map[ErrorType]problemKind{
	ErrTypeInsufficientData: {http.StatusUnprocessableEntity, TypeInsufficientData, "Insufficient Data", ""},
	ErrTypePersistence:      {http.StatusServiceUnavailable, TypeDataUnavailable, "Data Unavailable", "The fused tables could not be read"},
	ErrTypeExtraction:       {http.StatusInternalServerError, TypeDataCorrupted, "Data Corrupted", ""},
	ErrTypeLookup:           {http.StatusInternalServerError, TypeDataCorrupted, "Data Corrupted", ""},
	ErrTypeNetwork:          {http.StatusBadGateway, TypeUpstream, "Upstream Unavailable", "A remote source could not be reached"},
}

var internalKind = problemKind{
	http.StatusInternalServerError, TypeInternal, "Internal Server Error",
	"An unexpected error occurred while processing your request",
}

// ErrorHandler writes every API failure as an RFC 7807 problem carrying the
// request's trace ID.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates an error handler. includeStack adds the goroutine
// stack to 5xx bodies and belongs in development only.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       infrastructure.WithComponent(logger, "error_handler"),
		includeStack: includeStack,
	}
}

// HandleError logs err (4xx at WARN, 5xx at ERROR) and writes its problem
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
		if h.includeStack {
			problem.WithExtension("stack", string(debug.Stack()))
		}
	}
	h.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.String("error_type", string(TypeOf(err))),
		slog.Int("status", problem.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	h.write(w, r, problem)
}

// ErrorToProblem maps err to its problem. Deadlines and cancellations are
// 504s, APIErrors keep their own status and anything unclassified is a 500
// whose text is not disclosed.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", r.URL.Path)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		typ := apiErr.ProblemType
		if typ == "" {
			typ = TypeInternal
		}
		problem := NewProblemDetails(apiErr.StatusCode, typ, http.StatusText(apiErr.StatusCode),
			apiErr.Message, r.URL.Path).
			WithExtension("error_code", apiErr.ErrorCode)
		if apiErr.Details != nil {
			problem.WithExtension("details", apiErr.Details)
		}
		return problem
	}

	kind, ok := problemKinds[TypeOf(err)]
	if !ok {
		kind = internalKind
	}
	detail := kind.detail
	if detail == "" {
		detail = err.Error()
	}
	return NewProblemDetails(kind.status, kind.typ, kind.title, detail, r.URL.Path)
}

// HandlePanic logs a recovered panic with its stack and answers 500
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())))

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal,
		"Internal Server Error", "An unexpected error occurred", r.URL.Path)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered))
	}
	h.write(w, r, problem)
}

// NotFound is the router's 404 handler
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"No API endpoint at this path", r.URL.Path))
}

// MethodNotAllowed is the router's 405 handler
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusMethodNotAllowed, TypeValidation, "Method Not Allowed",
		r.Method+" is not allowed on this endpoint", r.URL.Path))
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, problem *ProblemDetails) {
	problem.WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))
	render.Status(r, problem.Status)
	render.JSON(w, r, problem)
}
