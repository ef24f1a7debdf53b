package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/core/utils"
)

// ticketColumns selects a ticket aliased as t together with its joined agents.
const ticketColumns = `t.id, t.status, t.author_id, t.assignee_id, t.category_id, t.created_at,
	COALESCE((SELECT array_agg(ja.agent_id ORDER BY ja.agent_id)
	          FROM ticket_joined_agents ja
	          WHERE ja.ticket_id = t.id), '{}')`

// TicketRepository is the secondary adapter for reading source tickets.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// Ensure TicketRepository implements the ports.TicketRepository interface.
var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) ports.TicketRepository {
	return &TicketRepository{pool: pool}
}

// ticketRow holds the scan targets of ticketColumns.
type ticketRow struct {
	id           int64
	status       string
	authorID     pgtype.UUID
	assigneeID   pgtype.UUID
	categoryID   pgtype.Text
	createdAt    pgtype.Timestamptz
	joinedAgents []pgtype.UUID
}

func (r *ticketRow) targets() []any {
	return []any{&r.id, &r.status, &r.authorID, &r.assigneeID, &r.categoryID, &r.createdAt, &r.joinedAgents}
}

// mapTicketRowToDomain converts a scanned ticket row to a core domain model.
func mapTicketRowToDomain(row *ticketRow) *domain.Ticket {
	ticket := &domain.Ticket{
		ID:         row.id,
		Status:     domain.TicketStatus(row.status),
		AssigneeID: utils.FromNullUUID(row.assigneeID),
		CategoryID: utils.FromNullString(row.categoryID),
		CreatedAt:  row.createdAt.Time,
	}
	if row.authorID.Valid {
		ticket.AuthorID = row.authorID.Bytes
	}
	for _, agent := range row.joinedAgents {
		if agent.Valid {
			ticket.JoinedAgentIDs = append(ticket.JoinedAgentIDs, agent.Bytes)
		}
	}
	return ticket
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id = $1`

	var row ticketRow
	if err := GetDBTX(ctx, r.pool).QueryRow(ctx, query, id).Scan(row.targets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return mapTicketRowToDomain(&row), nil
}

// ListOpenPage returns open tickets created after the cursor, oldest first.
func (r *TicketRepository) ListOpenPage(ctx context.Context, after *time.Time, limit int) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
FROM tickets t
WHERE t.status = ANY($1)
  AND ($2::timestamptz IS NULL OR t.created_at > $2)
ORDER BY t.created_at, t.id
LIMIT $3`

	statuses := make([]string, 0, len(domain.OpenStatuses()))
	for _, s := range domain.OpenStatuses() {
		statuses = append(statuses, s.String())
	}

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, statuses, utils.ToNullTimestamptz(after), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0, limit)
	for rows.Next() {
		var row ticketRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, err
		}
		tickets = append(tickets, mapTicketRowToDomain(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

// CountCreated counts tickets created inside the range.
func (r *TicketRepository) CountCreated(ctx context.Context, dr domain.DateRange) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE created_at >= $1 AND created_at < $2`

	var count int64
	err := GetDBTX(ctx, r.pool).QueryRow(ctx, query, utils.ToTimestamptz(dr.Start), utils.ToTimestamptz(dr.End)).Scan(&count)
	return count, err
}
