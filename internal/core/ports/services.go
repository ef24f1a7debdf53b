package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// AuthorizationService defines the port for checking user permissions.
type AuthorizationService interface {
	Can(ctx context.Context, userID uuid.UUID, permission string) (bool, error)
	GetPermissions(ctx context.Context, userID uuid.UUID) ([]string, error)
	// Authorize returns apperrors.ErrForbidden unless the caller is master
	// or holds the permission.
	Authorize(ctx context.Context, auth domain.AuthContext, permission string) error
}

// RangeParams selects the buckets of a report.
type RangeParams struct {
	Start time.Time
	End   time.Time
	Unit  domain.TimeUnit
}

// StatsService is the entry point into statistics computation.
type StatsService interface {
	RecomputeTicket(ctx context.Context, auth domain.AuthContext, ticketID int64) (*domain.TicketStats, error)
	RecomputeOpenTickets(ctx context.Context, auth domain.AuthContext) (domain.SweepSummary, error)
	// StartOpenTicketSweep runs RecomputeOpenTickets in the background after
	// authorizing the caller.
	StartOpenTicketSweep(ctx context.Context, auth domain.AuthContext) error
	// RecomputeDay rebuilds the rollup for the day containing day. A zero day
	// means yesterday.
	RecomputeDay(ctx context.Context, auth domain.AuthContext, day time.Time) (*domain.DailyStats, error)
	// BackfillDays recomputes every day from from back to the epoch.
	BackfillDays(ctx context.Context, auth domain.AuthContext, from time.Time) (domain.SweepSummary, error)
	// StartBackfill runs BackfillDays in the background after authorizing the caller.
	StartBackfill(ctx context.Context, auth domain.AuthContext, from time.Time) error
	GetRangeReport(ctx context.Context, auth domain.AuthContext, params RangeParams) ([]domain.RangeReport, error)
	GetNewTicketCounts(ctx context.Context, auth domain.AuthContext, params RangeParams) ([]domain.BucketCount, error)
	GetUserTicketStats(ctx context.Context, auth domain.AuthContext, userID uuid.UUID, r domain.DateRange) ([]*domain.TicketStats, error)
	// Shutdown waits for background sweeps to finish.
	Shutdown(ctx context.Context) error
}
