package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineRepository_ListRepliesPage(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewTimelineRepository(testPool)

	agent := uuid.New()
	customer := uuid.New()
	ticketID := insertTicket(t, &domain.Ticket{Status: domain.StatusNew, AuthorID: customer, CreatedAt: base})
	otherID := insertTicket(t, &domain.Ticket{Status: domain.StatusNew, AuthorID: customer, CreatedAt: base})

	insertReply(t, ticketID, customer, false, base.Add(1*time.Minute), "f-2", "f-1")
	insertReply(t, ticketID, agent, true, base.Add(2*time.Minute))
	insertReply(t, otherID, agent, true, base.Add(3*time.Minute))
	insertReply(t, ticketID, customer, false, base.Add(4*time.Minute))

	replies, err := utils.Collect(ctx, 2,
		func(ctx context.Context, after *time.Time, limit int) ([]*domain.Reply, error) {
			return repo.ListRepliesPage(ctx, ticketID, after, limit)
		},
		func(r *domain.Reply) time.Time { return r.CreatedAt },
	)
	require.NoError(t, err)

	require.Len(t, replies, 3)
	assert.Equal(t, []string{"f-1", "f-2"}, replies[0].FileIDs)
	assert.False(t, replies[0].IsFromAgent)
	assert.True(t, replies[1].IsFromAgent)
	assert.Equal(t, agent, replies[1].AuthorID)
	assert.Empty(t, replies[2].FileIDs)
}

func TestTimelineRepository_ListOpsLogsPage(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewTimelineRepository(testPool)

	assignee := uuid.New()
	operator := uuid.New()
	ticketID := insertTicket(t, &domain.Ticket{Status: domain.StatusNew, AuthorID: uuid.New(), CreatedAt: base})

	insertOpsLog(t, ticketID, domain.ActionSelectAssignee, domain.OpsLogData{Assignee: &assignee}, base.Add(time.Minute))
	insertOpsLog(t, ticketID, domain.ActionChangeAssignee, domain.OpsLogData{Operator: &operator, Assignee: &assignee}, base.Add(2*time.Minute))
	insertOpsLog(t, ticketID, domain.ActionReopen, domain.OpsLogData{}, base.Add(3*time.Minute))

	logs, err := repo.ListOpsLogsPage(ctx, ticketID, nil, 10)
	require.NoError(t, err)

	require.Len(t, logs, 3)
	assert.Equal(t, domain.ActionSelectAssignee, logs[0].Action)
	assert.Equal(t, assignee, *logs[0].Data.Assignee)
	assert.Equal(t, operator, *logs[1].Data.Operator)
	assert.Nil(t, logs[2].Data.Assignee)

	after := logs[0].CreatedAt
	rest, err := repo.ListOpsLogsPage(ctx, ticketID, &after, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestTimelineRepository_ListRepliesInWindowPage(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewTimelineRepository(testPool)

	agent := uuid.New()
	category := "shipping"
	ticketID := insertTicket(t, &domain.Ticket{
		Status:         domain.StatusWaitingCustomer,
		AuthorID:       uuid.New(),
		AssigneeID:     &agent,
		CategoryID:     &category,
		JoinedAgentIDs: []uuid.UUID{agent},
		CreatedAt:      base.Add(-48 * time.Hour),
	})

	day := domain.DateRange{Start: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)}
	insertReply(t, ticketID, agent, true, day.Start.Add(-time.Second))
	insertReply(t, ticketID, agent, true, day.Start)
	insertReply(t, ticketID, agent, true, day.Start.Add(23*time.Hour))
	insertReply(t, ticketID, agent, true, day.End)

	items, err := repo.ListRepliesInWindowPage(ctx, day, nil, 10)
	require.NoError(t, err)

	require.Len(t, items, 2)
	for _, item := range items {
		assert.True(t, day.Contains(item.Reply.CreatedAt))
		assert.Equal(t, ticketID, item.Ticket.ID)
		assert.Equal(t, domain.StatusWaitingCustomer, item.Ticket.Status)
		assert.Equal(t, []uuid.UUID{agent}, item.Ticket.JoinedAgentIDs)
		assert.Equal(t, "shipping", *item.Ticket.CategoryID)
	}
}
