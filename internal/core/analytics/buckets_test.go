package analytics_test

import (
	"slices"
	"testing"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/analytics"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRanges(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		unit  domain.TimeUnit
		want  []domain.DateRange
	}{
		{
			name:  "last day clipped",
			start: day(2024, 1, 1),
			end:   day(2024, 1, 3).Add(12 * time.Hour),
			unit:  domain.UnitDay,
			want: []domain.DateRange{
				{Start: day(2024, 1, 1), End: day(2024, 1, 2)},
				{Start: day(2024, 1, 2), End: day(2024, 1, 3)},
				{Start: day(2024, 1, 3), End: day(2024, 1, 3).Add(12 * time.Hour)},
			},
		},
		{
			name:  "empty when start equals end",
			start: day(2024, 1, 1),
			end:   day(2024, 1, 1),
			unit:  domain.UnitDay,
		},
		{
			name:  "empty when end before start",
			start: day(2024, 1, 5),
			end:   day(2024, 1, 1),
			unit:  domain.UnitWeek,
		},
		{
			name:  "weeks",
			start: day(2024, 3, 4),
			end:   day(2024, 3, 18),
			unit:  domain.UnitWeek,
			want: []domain.DateRange{
				{Start: day(2024, 3, 4), End: day(2024, 3, 11)},
				{Start: day(2024, 3, 11), End: day(2024, 3, 18)},
			},
		},
		{
			name:  "hours",
			start: day(2024, 3, 4),
			end:   day(2024, 3, 4).Add(150 * time.Minute),
			unit:  domain.UnitHour,
			want: []domain.DateRange{
				{Start: day(2024, 3, 4), End: day(2024, 3, 4).Add(time.Hour)},
				{Start: day(2024, 3, 4).Add(time.Hour), End: day(2024, 3, 4).Add(2 * time.Hour)},
				{Start: day(2024, 3, 4).Add(2 * time.Hour), End: day(2024, 3, 4).Add(150 * time.Minute)},
			},
		},
		{
			name:  "month end clamps",
			start: day(2024, 1, 31),
			end:   day(2024, 4, 1),
			unit:  domain.UnitMonth,
			want: []domain.DateRange{
				{Start: day(2024, 1, 31), End: day(2024, 2, 29)},
				{Start: day(2024, 2, 29), End: day(2024, 3, 29)},
				{Start: day(2024, 3, 29), End: day(2024, 4, 1)},
			},
		},
		{
			name:  "unknown unit yields nothing",
			start: day(2024, 1, 1),
			end:   day(2024, 2, 1),
			unit:  domain.TimeUnit("fortnight"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(analytics.DateRanges(tt.start, tt.end, tt.unit))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateRanges_ContiguousCover(t *testing.T) {
	start := day(2023, 11, 17).Add(5 * time.Hour)
	end := day(2024, 2, 3)

	got := slices.Collect(analytics.DateRanges(start, end, domain.UnitWeek))
	require.NotEmpty(t, got)

	assert.Equal(t, start, got[0].Start)
	assert.Equal(t, end, got[len(got)-1].End)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1].End, got[i].Start)
		assert.False(t, got[i].IsEmpty())
	}
}

func TestDateRanges_StopsEarly(t *testing.T) {
	var seen int
	for range analytics.DateRanges(day(2024, 1, 1), day(2025, 1, 1), domain.UnitDay) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestAddUnit_Year(t *testing.T) {
	assert.Equal(t, day(2025, 2, 28), analytics.AddUnit(day(2024, 2, 29), domain.UnitYear))
	assert.Equal(t, day(2025, 6, 1), analytics.AddUnit(day(2024, 6, 1), domain.UnitYear))
}

func TestDayRange(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	instant := time.Date(2024, 5, 6, 20, 30, 0, 0, time.UTC)

	r := analytics.DayRange(instant, loc)

	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, loc), r.Start)
	assert.Equal(t, time.Date(2024, 5, 8, 0, 0, 0, 0, loc), r.End)
	assert.True(t, r.Contains(instant))

	utc := analytics.DayRange(instant, nil)
	assert.Equal(t, day(2024, 5, 6), utc.Start)
}
