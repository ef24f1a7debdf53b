package validation

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
)

// DateLayout is the short form accepted for date query parameters.
const DateLayout = "2006-01-02"

// Validator collects field errors while parsing a request.
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
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

// OneOf validates value is one of the allowed values. Empty values pass.
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

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// Date parses a required date query parameter. Both 2006-01-02 and RFC 3339
// are accepted; short dates are read in loc.
func (v *Validator) Date(r *http.Request, key string, loc *time.Location) time.Time {
	raw := r.URL.Query().Get(key)
	if strings.TrimSpace(raw) == "" {
		v.errors.Add(key, "This field is required")
		return time.Time{}
	}
	t, err := ParseDate(raw, loc)
	if err != nil {
		v.errors.Add(key, "Must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	return t
}

// OptionalDate is Date without the required check. Missing values yield the
// zero time.
func (v *Validator) OptionalDate(r *http.Request, key string, loc *time.Location) time.Time {
	if r.URL.Query().Get(key) == "" {
		return time.Time{}
	}
	return v.Date(r, key, loc)
}

// TimeUnit parses the bucket unit, falling back to def when absent.
func (v *Validator) TimeUnit(r *http.Request, key string, def domain.TimeUnit) domain.TimeUnit {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	unit, err := domain.ParseTimeUnit(raw)
	if err != nil {
		v.errors.Add(key, "Must be one of: hour, day, week, month, year")
		return def
	}
	return unit
}

// ParseDate reads a date in the short or RFC 3339 layout.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, raw, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.ErrInvalidDate
	}
	return t.In(loc), nil
}

// ParseTicketID parses a positive ticket id path parameter.
func ParseTicketID(raw string) (int64, error) {
	if raw == "" {
		return 0, apperrors.ErrTicketIDRequired
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError(err, "Ticket ID must be a positive integer")
	}
	return id, nil
}

// ParseUUID parses a UUID path parameter.
func ParseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError(err, "Invalid "+field)
	}
	return id, nil
}
