package analytics_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/analytics"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func durPtr(d time.Duration) *time.Duration { return &d }

func TestMergeDaily(t *testing.T) {
	bucket := domain.DateRange{Start: day(2024, 5, 1), End: day(2024, 5, 3)}
	dailies := []*domain.DailyStats{
		{
			Date:       day(2024, 5, 1),
			TicketIDs:  []int64{3, 1},
			ReplyCount: 4,
			Categories: domain.CountMap{"billing": 1},
			Statuses:   domain.CountMap{"NEW": 2},
		},
		{
			Date:         day(2024, 5, 2),
			TicketIDs:    []int64{1, 7},
			ReplyCount:   5,
			Categories:   domain.CountMap{"billing": 1, "shipping": 1},
			JoinedAgents: domain.CountMap{"a": 1},
		},
	}

	report := analytics.MergeDaily(bucket, dailies)

	assert.Equal(t, bucket.Start, report.Date)
	assert.Equal(t, bucket.End, report.End)
	assert.Equal(t, []int64{1, 3, 7}, report.TicketIDs)
	assert.Equal(t, int64(9), report.RawReplyCount)
	assert.Equal(t, domain.CountMap{"billing": 2, "shipping": 1}, report.Categories)
	assert.Equal(t, domain.CountMap{"NEW": 2}, report.Statuses)
	assert.Equal(t, domain.CountMap{"a": 1}, report.JoinedAgents)
	assert.Empty(t, report.Assignees)
}

func TestBuildRangeReport(t *testing.T) {
	agentA := uuid.New()
	agentB := uuid.New()
	bucket := domain.DateRange{Start: day(2024, 5, 1), End: day(2024, 5, 2)}
	dailies := []*domain.DailyStats{
		{Date: day(2024, 5, 1), TicketIDs: []int64{1, 2, 3, 4, 5}, ReplyCount: 11},
	}
	stats := []*domain.TicketStats{
		{
			TicketID:   1,
			FirstReply: domain.FirstReplyStat{TicketID: 1, AgentID: &agentA, FirstReplyTime: durPtr(10 * time.Minute)},
			ReplyTimes: []domain.AgentReplyTime{
				{TicketID: 1, AgentID: agentA, ReplyCount: 2, ReplyTime: 30 * time.Minute},
				{TicketID: 1, AgentID: agentB, ReplyCount: 1, ReplyTime: 5 * time.Minute},
			},
		},
		{
			TicketID:   2,
			FirstReply: domain.FirstReplyStat{TicketID: 2, AgentID: &agentB, FirstReplyTime: durPtr(20 * time.Minute)},
			ReplyTimes: []domain.AgentReplyTime{
				{TicketID: 2, AgentID: agentB, ReplyCount: 1, ReplyTime: 20 * time.Minute},
			},
		},
		{
			// first reply not yet resolved
			TicketID:   3,
			FirstReply: domain.FirstReplyStat{TicketID: 3},
			ReplyTimes: []domain.AgentReplyTime{
				{TicketID: 3, AgentID: agentA, ReplyCount: 0, ReplyTime: time.Hour},
			},
		},
		{
			// handoff with no selected assignee
			TicketID:   4,
			FirstReply: domain.FirstReplyStat{TicketID: 4, FirstReplyTime: durPtr(3 * time.Minute)},
		},
		{
			// outside the bucket
			TicketID:   99,
			FirstReply: domain.FirstReplyStat{TicketID: 99, AgentID: &agentA, FirstReplyTime: durPtr(time.Hour)},
		},
	}

	report := analytics.BuildRangeReport(bucket, dailies, stats)

	require.Len(t, report.FirstReplyTimeByAgent, 3)
	assert.Equal(t, agentA, *report.FirstReplyTimeByAgent[0].AgentID)
	assert.Equal(t, 10*time.Minute, report.FirstReplyTimeByAgent[0].ReplyTime)
	assert.Equal(t, agentB, *report.FirstReplyTimeByAgent[1].AgentID)
	assert.Nil(t, report.FirstReplyTimeByAgent[2].AgentID)
	assert.Equal(t, 3*time.Minute, report.FirstReplyTimeByAgent[2].ReplyTime)

	assert.Equal(t, 33*time.Minute, report.FirstReplyTime)
	assert.Equal(t, int64(3), report.FirstReplyCount)

	require.Len(t, report.ReplyTimeByAgent, 2)
	assert.Equal(t, domain.AgentDuration{AgentID: &agentA, ReplyCount: 2, ReplyTime: 90 * time.Minute}, report.ReplyTimeByAgent[0])
	assert.Equal(t, domain.AgentDuration{AgentID: &agentB, ReplyCount: 2, ReplyTime: 25 * time.Minute}, report.ReplyTimeByAgent[1])

	assert.Equal(t, 115*time.Minute, report.ReplyTime)
	assert.Equal(t, int64(4), report.ReplyCount)
	assert.Equal(t, int64(11), report.RawReplyCount)
}

func TestBuildRangeReport_ScalarsMatchBreakdowns(t *testing.T) {
	agents := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	var stats []*domain.TicketStats
	var ids []int64
	for i := range 20 {
		id := int64(i + 1)
		ids = append(ids, id)
		agent := agents[i%len(agents)]
		stats = append(stats, &domain.TicketStats{
			TicketID:   id,
			FirstReply: domain.FirstReplyStat{TicketID: id, AgentID: &agent, FirstReplyTime: durPtr(time.Duration(i) * time.Minute)},
			ReplyTimes: []domain.AgentReplyTime{
				{TicketID: id, AgentID: agent, ReplyCount: int64(i % 4), ReplyTime: time.Duration(i*7) * time.Second},
			},
		})
	}
	dailies := []*domain.DailyStats{
		{Date: day(2024, 5, 1), TicketIDs: ids[:12], ReplyCount: 30},
		{Date: day(2024, 5, 2), TicketIDs: ids[8:], ReplyCount: 25},
	}

	report := analytics.BuildRangeReport(domain.DateRange{Start: day(2024, 5, 1), End: day(2024, 5, 3)}, dailies, stats)

	var frTime, rtTime time.Duration
	var frCount, rtCount int64
	for _, e := range report.FirstReplyTimeByAgent {
		frTime += e.ReplyTime
		frCount += e.ReplyCount
	}
	for _, e := range report.ReplyTimeByAgent {
		rtTime += e.ReplyTime
		rtCount += e.ReplyCount
	}

	assert.Len(t, report.TicketIDs, 20)
	assert.Equal(t, frTime, report.FirstReplyTime)
	assert.Equal(t, frCount, report.FirstReplyCount)
	assert.Equal(t, rtTime, report.ReplyTime)
	assert.Equal(t, rtCount, report.ReplyCount)
	assert.Equal(t, int64(55), report.RawReplyCount)
}

func TestBuildRangeReport_NoActivity(t *testing.T) {
	report := analytics.BuildRangeReport(domain.DateRange{Start: day(2024, 5, 1), End: day(2024, 5, 2)}, nil, nil)

	assert.Empty(t, report.TicketIDs)
	assert.Empty(t, report.FirstReplyTimeByAgent)
	assert.Empty(t, report.ReplyTimeByAgent)
	assert.Zero(t, report.ReplyCount)
	assert.Zero(t, report.FirstReplyTime)
}
