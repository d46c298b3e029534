package validation

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
)

// Validator collects field errors for one request.
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{errors: apperrors.NewValidationErrors()}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Err returns the collected errors, or nil when there are none.
func (v *Validator) Err() error {
	if v.HasErrors() {
		return v.errors
	}
	return nil
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// MaxLength validates maximum string length
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max)+" characters")
	}
	return v
}

// OneOf validates that value is one of the allowed values. Empty values pass;
// combine with Required when the field is mandatory.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.errors.Add(field, "Must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Custom adds message for field when valid is false.
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// ParseCycleParam reads the optional cycle selector from the query string.
// An empty result means every configured cycle.
func ParseCycleParam(r *http.Request, key string) (domain.CycleKind, error) {
	return ParseCycle(key, r.URL.Query().Get(key))
}

// ParseCycle validates a cycle name given under field. Case and surrounding
// space are ignored.
func ParseCycle(key, raw string) (domain.CycleKind, error) {
	value := strings.ToLower(strings.TrimSpace(raw))

	v := NewValidator()
	v.OneOf(key, value, []string{string(domain.CycleTickets), string(domain.CycleEquipment)})
	if err := v.Err(); err != nil {
		return "", err
	}
	return domain.CycleKind(value), nil
}

// ValidateSubject checks the subject of an admin token.
func ValidateSubject(subject string) error {
	v := NewValidator()
	v.Required("subject", subject).
		MaxLength("subject", subject, 64).
		Custom("subject", !strings.ContainsAny(subject, " \t\r\n"), "Must not contain whitespace")
	return v.Err()
}
