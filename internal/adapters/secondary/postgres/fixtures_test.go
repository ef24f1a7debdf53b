package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/utils"
	"github.com/stretchr/testify/require"
)

// resetTables empties the source and stats tables between tests.
func resetTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE tickets, ticket_joined_agents, replies, reply_files, ops_logs, ticket_stats, daily_stats, user_roles RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func insertTicket(t *testing.T, ticket *domain.Ticket) int64 {
	t.Helper()
	ctx := context.Background()

	var id int64
	err := testPool.QueryRow(ctx, `
INSERT INTO tickets (status, author_id, assignee_id, category_id, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		ticket.Status.String(),
		utils.ToUUID(ticket.AuthorID),
		utils.ToNullUUID(ticket.AssigneeID),
		utils.ToNullString(ticket.CategoryID),
		ticket.CreatedAt,
	).Scan(&id)
	require.NoError(t, err)

	for _, agent := range ticket.JoinedAgentIDs {
		_, err := testPool.Exec(ctx, `INSERT INTO ticket_joined_agents (ticket_id, agent_id) VALUES ($1, $2)`, id, utils.ToUUID(agent))
		require.NoError(t, err)
	}
	return id
}

func insertReply(t *testing.T, ticketID int64, author uuid.UUID, fromAgent bool, at time.Time, files ...string) int64 {
	t.Helper()
	ctx := context.Background()

	var id int64
	err := testPool.QueryRow(ctx, `
INSERT INTO replies (ticket_id, author_id, is_from_agent, content, created_at)
VALUES ($1, $2, $3, 'hello', $4)
RETURNING id`,
		ticketID, utils.ToUUID(author), fromAgent, at,
	).Scan(&id)
	require.NoError(t, err)

	for _, f := range files {
		_, err := testPool.Exec(ctx, `INSERT INTO reply_files (reply_id, file_id) VALUES ($1, $2)`, id, f)
		require.NoError(t, err)
	}
	return id
}

func insertOpsLog(t *testing.T, ticketID int64, action domain.OpsAction, data domain.OpsLogData, at time.Time) int64 {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)

	var id int64
	err = testPool.QueryRow(context.Background(), `
INSERT INTO ops_logs (ticket_id, action, data, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`,
		ticketID, string(action), payload, at,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
