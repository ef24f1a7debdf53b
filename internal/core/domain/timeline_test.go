package domain_test

import (
	"testing"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeline_OrdersByCreationTime(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	replies := []*domain.Reply{
		{ID: 1, CreatedAt: base.Add(10 * time.Minute)},
		{ID: 2, CreatedAt: base.Add(30 * time.Minute)},
	}
	logs := []*domain.OpsLog{
		{ID: 10, Action: domain.ActionSelectAssignee, CreatedAt: base},
		{ID: 11, Action: domain.ActionReopen, CreatedAt: base.Add(20 * time.Minute)},
	}

	timeline := domain.NewTimeline(replies, logs)
	require.Len(t, timeline, 4)

	ids := make([]int64, 0, len(timeline))
	for _, ev := range timeline {
		ids = append(ids, ev.ID())
	}
	assert.Equal(t, []int64{10, 1, 11, 2}, ids)
	assert.True(t, timeline[0].IsAction(domain.ActionSelectAssignee))
	assert.Equal(t, domain.EventReply, timeline[1].Kind)
}

func TestNewTimeline_RepliesBeforeOpsLogsOnTies(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	timeline := domain.NewTimeline(
		[]*domain.Reply{{ID: 1, IsFromAgent: true, CreatedAt: at}},
		[]*domain.OpsLog{{ID: 2, Action: domain.ActionResolve, CreatedAt: at}},
	)

	require.Len(t, timeline, 2)
	assert.True(t, timeline[0].IsAgentReply())
	assert.True(t, timeline[1].IsAction(domain.ActionResolve))
}

func TestNewTimeline_Empty(t *testing.T) {
	assert.Empty(t, domain.NewTimeline(nil, nil))
}
