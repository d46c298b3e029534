package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Domain errors
var (
	// Upstream collaborators
	ErrUpstream = errors.New("upstream request failed")
	ErrNotFound = errors.New("resource not found")
	ErrArchived = errors.New("resource is archived")

	// Sync pipeline
	ErrCycleInProgress = errors.New("a sync cycle is already running")
	ErrUnknownCycle    = errors.New("unknown sync cycle")
	ErrCycleDisabled   = errors.New("sync cycle is not configured")

	// Configuration & access
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnauthorized  = errors.New("unauthorized")
)

// UpstreamError describes a non-success response from an external API.
type UpstreamError struct {
	Service    string // movidesk, notion, telegram
	Operation  string // e.g. "query database"
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Service, e.Operation)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is makes every UpstreamError match ErrUpstream, and 404s match ErrNotFound.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// NewUpstreamError builds an UpstreamError, trimming the body to keep logs
// readable.
func NewUpstreamError(service, operation string, statusCode int, body []byte) *UpstreamError {
	const maxBody = 512
	text := strings.TrimSpace(string(body))
	if len(text) > maxBody {
		text = text[:maxBody] + "..."
	}
	return &UpstreamError{
		Service:    service,
		Operation:  operation,
		StatusCode: statusCode,
		Body:       text,
	}
}

// IsStatus reports whether err is an UpstreamError with the given status.
func IsStatus(err error, status int) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr) && upstreamErr.StatusCode == status
}

// IsNotFound reports whether err denotes a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		for _, msg := range v.Errors[field] {
			lines = append(lines, field+": "+msg)
		}
	}
	return fmt.Sprintf("validation failed: %d field(s) have errors:\n  - %s", len(v.Errors), strings.Join(lines, "\n  - "))
}

// Unwrap lets callers match ErrInvalidConfig.
func (v *ValidationErrors) Unwrap() error {
	return ErrInvalidConfig
}
