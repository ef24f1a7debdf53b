package analytics

import (
	"iter"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// DateRanges yields contiguous [start, end) buckets of one unit covering
// [start, end). The last bucket is clipped to end. Nothing is yielded when
// end is not after start.
func DateRanges(start, end time.Time, unit domain.TimeUnit) iter.Seq[domain.DateRange] {
	return func(yield func(domain.DateRange) bool) {
		for cur := start; cur.Before(end); {
			next := AddUnit(cur, unit)
			if !next.After(cur) {
				return
			}
			if next.After(end) {
				next = end
			}
			if !yield(domain.DateRange{Start: cur, End: next}) {
				return
			}
			cur = next
		}
	}
}

// AddUnit advances t by one unit in t's location. Month and year steps clamp
// the day to the end of the target month (Jan 31 + 1 month = Feb 28/29).
// Unknown units return t unchanged.
func AddUnit(t time.Time, unit domain.TimeUnit) time.Time {
	switch unit {
	case domain.UnitHour:
		return t.Add(time.Hour)
	case domain.UnitDay:
		return t.AddDate(0, 0, 1)
	case domain.UnitWeek:
		return t.AddDate(0, 0, 7)
	case domain.UnitMonth:
		return addMonths(t, 1)
	case domain.UnitYear:
		return addMonths(t, 12)
	}
	return t
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DayRange returns the calendar day containing t, in loc.
func DayRange(t time.Time, loc *time.Location) domain.DateRange {
	start := StartOfDay(t, loc)
	return domain.DateRange{Start: start, End: start.AddDate(0, 0, 1)}
}
