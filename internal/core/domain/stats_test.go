package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/stretchr/testify/assert"
)

func TestCountMap_Merge(t *testing.T) {
	var m domain.CountMap
	m = m.Merge(domain.CountMap{"a": 1, "b": 2})
	m = m.Merge(domain.CountMap{"b": 3, "c": 4})

	assert.Equal(t, domain.CountMap{"a": 1, "b": 5, "c": 4}, m)
	assert.Equal(t, int64(10), m.Total())
}

func TestTicketStats_InvolvesAgent(t *testing.T) {
	first := uuid.New()
	ledger := uuid.New()
	d := time.Minute

	stats := &domain.TicketStats{
		TicketID: 7,
		FirstReply: domain.FirstReplyStat{
			TicketID:       7,
			AgentID:        &first,
			FirstReplyTime: &d,
		},
		ReplyTimes: []domain.AgentReplyTime{
			{TicketID: 7, AgentID: ledger, ReplyCount: 1, ReplyTime: time.Hour},
		},
	}

	assert.True(t, stats.InvolvesAgent(first))
	assert.True(t, stats.InvolvesAgent(ledger))
	assert.False(t, stats.InvolvesAgent(uuid.New()))
}

func TestParseTimeUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.TimeUnit
		wantErr bool
	}{
		{"day", domain.UnitDay, false},
		{"days", domain.UnitDay, false},
		{"week", domain.UnitWeek, false},
		{"month", domain.UnitMonth, false},
		{"hour", domain.UnitHour, false},
		{"year", domain.UnitYear, false},
		{"fortnight", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseTimeUnit(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidTimeUnit)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
