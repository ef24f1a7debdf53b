package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// TicketRepository reads source tickets.
type TicketRepository interface {
	// GetByID returns the ticket with its joined agents resolved, or
	// apperrors.ErrTicketNotFound.
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// ListOpenPage returns up to limit tickets in an open status created after
	// the cursor, oldest first.
	ListOpenPage(ctx context.Context, after *time.Time, limit int) ([]*domain.Ticket, error)
	// CountCreated counts tickets created inside the range.
	CountCreated(ctx context.Context, r domain.DateRange) (int64, error)
}

// TimelineRepository is the paginated event source for replies and
// operation logs. Every page is ordered by creation time ascending and holds
// only rows created strictly after the cursor.
type TimelineRepository interface {
	ListRepliesPage(ctx context.Context, ticketID int64, after *time.Time, limit int) ([]*domain.Reply, error)
	ListOpsLogsPage(ctx context.Context, ticketID int64, after *time.Time, limit int) ([]*domain.OpsLog, error)
	// ListRepliesInWindowPage returns replies created inside the window joined
	// to their ticket.
	ListRepliesInWindowPage(ctx context.Context, window domain.DateRange, after *time.Time, limit int) ([]*domain.ReplyWithTicket, error)
}

// StatsRepository persists derived statistics. Replace operations swap the
// old row for the new one atomically.
type StatsRepository interface {
	ReplaceTicketStats(ctx context.Context, stats *domain.TicketStats) error
	ReplaceDailyStats(ctx context.Context, stats *domain.DailyStats) error
	// ListDailyStats returns the rollups whose date falls in the range, by date.
	ListDailyStats(ctx context.Context, r domain.DateRange) ([]*domain.DailyStats, error)
	// ListTicketStats returns the rows for the given ticket ids. Ids without a
	// row are omitted. Callers keep batches small.
	ListTicketStats(ctx context.Context, ticketIDs []int64) ([]*domain.TicketStats, error)
}

// AuthorizationRepository defines the persistence operations for RBAC.
type AuthorizationRepository interface {
	GetUserPermissions(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// ReportCache stores computed range reports. A miss is reported with
// ok=false and a nil error.
type ReportCache interface {
	GetReports(ctx context.Context, key string) (reports []domain.RangeReport, ok bool, err error)
	SetReports(ctx context.Context, key string, reports []domain.RangeReport) error
	// Invalidate drops every cached report.
	Invalidate(ctx context.Context) error
}

// StatsMetrics records operational counters for the stats service.
type StatsMetrics interface {
	ObserveRecompute(kind string, elapsed time.Duration, err error)
	IncInconsistency(action string)
	ObserveSweep(summary domain.SweepSummary)
}
