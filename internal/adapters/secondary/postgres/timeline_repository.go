package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/core/utils"
)

const replyColumns = `r.id, r.ticket_id, r.author_id, r.is_from_agent, r.content, r.created_at,
	COALESCE((SELECT array_agg(f.file_id ORDER BY f.file_id)
	          FROM reply_files f
	          WHERE f.reply_id = r.id), '{}')`

// TimelineRepository reads replies and operation logs page by page.
type TimelineRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TimelineRepository = (*TimelineRepository)(nil)

// NewTimelineRepository creates a new timeline repository.
func NewTimelineRepository(pool *pgxpool.Pool) ports.TimelineRepository {
	return &TimelineRepository{pool: pool}
}

type replyRow struct {
	id          int64
	ticketID    int64
	authorID    pgtype.UUID
	isFromAgent bool
	content     string
	createdAt   pgtype.Timestamptz
	fileIDs     []string
}

func (r *replyRow) targets() []any {
	return []any{&r.id, &r.ticketID, &r.authorID, &r.isFromAgent, &r.content, &r.createdAt, &r.fileIDs}
}

func mapReplyRowToDomain(row *replyRow) *domain.Reply {
	reply := &domain.Reply{
		ID:          row.id,
		TicketID:    row.ticketID,
		IsFromAgent: row.isFromAgent,
		Content:     row.content,
		FileIDs:     row.fileIDs,
		CreatedAt:   row.createdAt.Time,
	}
	if row.authorID.Valid {
		reply.AuthorID = row.authorID.Bytes
	}
	return reply
}

// ListRepliesPage returns a ticket's replies created after the cursor.
func (r *TimelineRepository) ListRepliesPage(ctx context.Context, ticketID int64, after *time.Time, limit int) ([]*domain.Reply, error) {
	query := `SELECT ` + replyColumns + `
FROM replies r
WHERE r.ticket_id = $1
  AND ($2::timestamptz IS NULL OR r.created_at > $2)
ORDER BY r.created_at, r.id
LIMIT $3`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, ticketID, utils.ToNullTimestamptz(after), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := make([]*domain.Reply, 0, limit)
	for rows.Next() {
		var row replyRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, err
		}
		replies = append(replies, mapReplyRowToDomain(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return replies, nil
}

// ListOpsLogsPage returns a ticket's operation logs created after the cursor.
func (r *TimelineRepository) ListOpsLogsPage(ctx context.Context, ticketID int64, after *time.Time, limit int) ([]*domain.OpsLog, error) {
	const query = `
SELECT id, ticket_id, action, data, created_at
FROM ops_logs
WHERE ticket_id = $1
  AND ($2::timestamptz IS NULL OR created_at > $2)
ORDER BY created_at, id
LIMIT $3`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, ticketID, utils.ToNullTimestamptz(after), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*domain.OpsLog, 0, limit)
	for rows.Next() {
		var (
			log       domain.OpsLog
			action    string
			data      []byte
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&log.ID, &log.TicketID, &action, &data, &createdAt); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &log.Data); err != nil {
				return nil, fmt.Errorf("decode ops log %d data: %w", log.ID, err)
			}
		}
		log.Action = domain.OpsAction(action)
		log.CreatedAt = createdAt.Time
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListRepliesInWindowPage returns replies created inside the window, each
// joined to its ticket.
func (r *TimelineRepository) ListRepliesInWindowPage(ctx context.Context, window domain.DateRange, after *time.Time, limit int) ([]*domain.ReplyWithTicket, error) {
	query := `SELECT ` + replyColumns + `, ` + ticketColumns + `
FROM replies r
JOIN tickets t ON t.id = r.ticket_id
WHERE r.created_at >= $1
  AND r.created_at < $2
  AND ($3::timestamptz IS NULL OR r.created_at > $3)
ORDER BY r.created_at, r.id
LIMIT $4`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query,
		utils.ToTimestamptz(window.Start),
		utils.ToTimestamptz(window.End),
		utils.ToNullTimestamptz(after),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.ReplyWithTicket, 0, limit)
	for rows.Next() {
		var (
			reply  replyRow
			ticket ticketRow
		)
		if err := rows.Scan(append(reply.targets(), ticket.targets()...)...); err != nil {
			return nil, err
		}
		items = append(items, &domain.ReplyWithTicket{
			Reply:  mapReplyRowToDomain(&reply),
			Ticket: mapTicketRowToDomain(&ticket),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
