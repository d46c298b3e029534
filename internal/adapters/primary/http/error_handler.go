package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
)

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler turns domain errors into JSON responses.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger.With("component", "admin_http")}
}

// errorMapping binds a domain error to its HTTP status and public message.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings is matched in order with errors.Is. An aborted cycle wraps
// ErrUpstream; its report carries the detail.
var errorMappings = []errorMapping{
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
	{apperrors.ErrCycleInProgress, http.StatusConflict, "CYCLE_IN_PROGRESS", "A sync cycle is already running"},
	{apperrors.ErrUnknownCycle, http.StatusBadRequest, "UNKNOWN_CYCLE", "Unknown sync cycle"},
	{apperrors.ErrCycleDisabled, http.StatusNotFound, "CYCLE_DISABLED", "Sync cycle is not configured"},
	{apperrors.ErrUpstream, http.StatusBadGateway, "UPSTREAM_ERROR", "Upstream service failed"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT", "Request timed out"},
}

// Handle writes the JSON error response for err and logs it.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err)
		WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: validationErrs.Errors,
		})
		return
	}

	status, response := mapDomainError(err)
	h.logError(r, status, err)
	WriteJSON(w, status, response)
}

func mapDomainError(err error) (int, ErrorResponse) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, ErrorResponse{Error: m.message, Code: m.code}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{
		Error: "An unexpected error occurred",
		Code:  "INTERNAL_ERROR",
	}
}

func (h *ErrorHandler) logError(r *http.Request, status int, err error) {
	level, msg := slog.LevelWarn, "client error"
	if status >= 500 {
		level, msg = slog.LevelError, "server error"
	}
	h.logger.Log(r.Context(), level, msg,
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", status,
		"error", err.Error(),
	)
}

// HandleError writes err when it is non-nil and reports whether it did.
// Usage: if HandleError(w, r, err, h.errorHandler) { return }
func HandleError(w http.ResponseWriter, r *http.Request, err error, handler *ErrorHandler) bool {
	if err != nil {
		handler.Handle(w, r, err)
		return true
	}
	return false
}
