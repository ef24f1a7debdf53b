package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/core/utils"
)

// StatsRepository stores derived ticket and daily statistics. Durations are
// persisted as whole milliseconds.
type StatsRepository struct {
	pool *pgxpool.Pool
	tm   *TransactionManager
}

var _ ports.StatsRepository = (*StatsRepository)(nil)

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(pool *pgxpool.Pool, tm *TransactionManager) ports.StatsRepository {
	return &StatsRepository{pool: pool, tm: tm}
}

type firstReplyDoc struct {
	AgentID        *uuid.UUID `json:"agentId"`
	FirstReplyTime *int64     `json:"firstReplyTime"`
}

type replyTimeDoc struct {
	AgentID    uuid.UUID `json:"agentId"`
	ReplyCount int64     `json:"replyCount"`
	ReplyTime  int64     `json:"replyTime"`
}

func encodeTicketStats(stats *domain.TicketStats) (firstReply, replyTimes []byte, err error) {
	fr := firstReplyDoc{AgentID: stats.FirstReply.AgentID}
	if stats.FirstReply.FirstReplyTime != nil {
		ms := stats.FirstReply.FirstReplyTime.Milliseconds()
		fr.FirstReplyTime = &ms
	}
	firstReply, err = json.Marshal(fr)
	if err != nil {
		return nil, nil, err
	}

	docs := make([]replyTimeDoc, 0, len(stats.ReplyTimes))
	for _, rt := range stats.ReplyTimes {
		docs = append(docs, replyTimeDoc{
			AgentID:    rt.AgentID,
			ReplyCount: rt.ReplyCount,
			ReplyTime:  rt.ReplyTime.Milliseconds(),
		})
	}
	replyTimes, err = json.Marshal(docs)
	if err != nil {
		return nil, nil, err
	}
	return firstReply, replyTimes, nil
}

func decodeTicketStats(ticketID int64, firstReply, replyTimes []byte) (*domain.TicketStats, error) {
	var fr firstReplyDoc
	if err := json.Unmarshal(firstReply, &fr); err != nil {
		return nil, fmt.Errorf("decode first reply of ticket %d: %w", ticketID, err)
	}
	var docs []replyTimeDoc
	if err := json.Unmarshal(replyTimes, &docs); err != nil {
		return nil, fmt.Errorf("decode reply times of ticket %d: %w", ticketID, err)
	}

	stats := &domain.TicketStats{
		TicketID:   ticketID,
		FirstReply: domain.FirstReplyStat{TicketID: ticketID, AgentID: fr.AgentID},
		ReplyTimes: make([]domain.AgentReplyTime, 0, len(docs)),
	}
	if fr.FirstReplyTime != nil {
		d := time.Duration(*fr.FirstReplyTime) * time.Millisecond
		stats.FirstReply.FirstReplyTime = &d
	}
	for _, doc := range docs {
		stats.ReplyTimes = append(stats.ReplyTimes, domain.AgentReplyTime{
			TicketID:   ticketID,
			AgentID:    doc.AgentID,
			ReplyCount: doc.ReplyCount,
			ReplyTime:  time.Duration(doc.ReplyTime) * time.Millisecond,
		})
	}
	return stats, nil
}

// ReplaceTicketStats deletes the ticket's previous row and inserts the new one
// in a single transaction.
func (r *StatsRepository) ReplaceTicketStats(ctx context.Context, stats *domain.TicketStats) error {
	firstReply, replyTimes, err := encodeTicketStats(stats)
	if err != nil {
		return err
	}

	return r.tm.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM ticket_stats WHERE ticket_id = $1`, stats.TicketID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
INSERT INTO ticket_stats (ticket_id, first_reply, reply_times, read_role)
VALUES ($1, $2, $3, $4)`,
			stats.TicketID, firstReply, replyTimes, domain.StatsReadRole,
		)
		return err
	})
}

// ListTicketStats returns the stored rows for the given ticket ids.
func (r *StatsRepository) ListTicketStats(ctx context.Context, ticketIDs []int64) ([]*domain.TicketStats, error) {
	if len(ticketIDs) == 0 {
		return []*domain.TicketStats{}, nil
	}

	const query = `
SELECT ticket_id, first_reply, reply_times
FROM ticket_stats
WHERE ticket_id = ANY($1)
ORDER BY ticket_id`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.TicketStats, 0, len(ticketIDs))
	for rows.Next() {
		var (
			ticketID   int64
			firstReply []byte
			replyTimes []byte
		)
		if err := rows.Scan(&ticketID, &firstReply, &replyTimes); err != nil {
			return nil, err
		}
		stats, err := decodeTicketStats(ticketID, firstReply, replyTimes)
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceDailyStats deletes the day's previous rollup and inserts the new one
// in a single transaction.
func (r *StatsRepository) ReplaceDailyStats(ctx context.Context, stats *domain.DailyStats) error {
	maps := make([][]byte, 0, 5)
	for _, m := range []domain.CountMap{stats.Categories, stats.Assignees, stats.Authors, stats.Statuses, stats.JoinedAgents} {
		if m == nil {
			m = domain.CountMap{}
		}
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		maps = append(maps, b)
	}
	ticketIDs := stats.TicketIDs
	if ticketIDs == nil {
		ticketIDs = []int64{}
	}

	return r.tm.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		date := utils.ToTimestamptz(stats.Date)
		if _, err := tx.Exec(ctx, `DELETE FROM daily_stats WHERE date = $1`, date); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
INSERT INTO daily_stats (date, tickets, reply_count, categories, assignees, authors, statuses, joined_agents, read_role)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			date, ticketIDs, stats.ReplyCount,
			maps[0], maps[1], maps[2], maps[3], maps[4],
			domain.StatsReadRole,
		)
		return err
	})
}

// ListDailyStats returns the rollups dated inside the range, oldest first.
func (r *StatsRepository) ListDailyStats(ctx context.Context, dr domain.DateRange) ([]*domain.DailyStats, error) {
	const query = `
SELECT date, tickets, reply_count, categories, assignees, authors, statuses, joined_agents
FROM daily_stats
WHERE date >= $1 AND date < $2
ORDER BY date`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, utils.ToTimestamptz(dr.Start), utils.ToTimestamptz(dr.End))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.DailyStats, 0)
	for rows.Next() {
		var (
			date  pgtype.Timestamptz
			stats domain.DailyStats
			raw   [5][]byte
		)
		if err := rows.Scan(&date, &stats.TicketIDs, &stats.ReplyCount, &raw[0], &raw[1], &raw[2], &raw[3], &raw[4]); err != nil {
			return nil, err
		}
		targets := []*domain.CountMap{&stats.Categories, &stats.Assignees, &stats.Authors, &stats.Statuses, &stats.JoinedAgents}
		for i, target := range targets {
			if err := json.Unmarshal(raw[i], target); err != nil {
				return nil, fmt.Errorf("decode daily stats of %s: %w", date.Time.Format(time.DateOnly), err)
			}
		}
		stats.Date = date.Time
		out = append(out, &stats)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
