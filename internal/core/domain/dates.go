package domain

import (
	"time"

	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
)

// TimeUnit sizes the buckets of a date range.
type TimeUnit string

const (
	UnitHour  TimeUnit = "hour"
	UnitDay   TimeUnit = "day"
	UnitWeek  TimeUnit = "week"
	UnitMonth TimeUnit = "month"
	UnitYear  TimeUnit = "year"
)

// ParseTimeUnit accepts singular or plural unit names.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch s {
	case "hour", "hours":
		return UnitHour, nil
	case "day", "days":
		return UnitDay, nil
	case "week", "weeks":
		return UnitWeek, nil
	case "month", "months":
		return UnitMonth, nil
	case "year", "years":
		return UnitYear, nil
	}
	return "", apperrors.ErrInvalidTimeUnit
}

// DateRange is the half-open interval [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// IsEmpty reports whether the range covers no instant.
func (r DateRange) IsEmpty() bool {
	return !r.End.After(r.Start)
}
