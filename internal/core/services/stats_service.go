package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/analytics"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/core/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultEpoch is the first day covered by daily rollups.
var DefaultEpoch = time.Date(2017, time.July, 14, 0, 0, 0, 0, time.UTC)

const (
	// DefaultMaxBuckets allows daily buckets over roughly ten years.
	DefaultMaxBuckets       = 3700
	DefaultRecomputeTimeout = 5 * time.Minute
)

const (
	recomputeTicket = "ticket"
	recomputeDay    = "day"
)

// StatsOptions tunes the stats service. Zero values fall back to defaults.
type StatsOptions struct {
	PageSize    int
	BatchSize   int
	Concurrency int
	// SweepRate caps ticket recomputes per second during sweeps. Zero means unlimited.
	SweepRate float64
	// MaxBuckets caps the number of buckets a single report may span.
	MaxBuckets int
	// RecomputeTimeout bounds one shared ticket or day recompute.
	RecomputeTimeout time.Duration
	Epoch            time.Time
	Location         *time.Location
	Clock            func() time.Time
}

func (o StatsOptions) withDefaults() StatsOptions {
	if o.PageSize <= 0 {
		o.PageSize = utils.DefaultPageSize
	}
	if o.BatchSize <= 0 {
		o.BatchSize = utils.DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.MaxBuckets <= 0 {
		o.MaxBuckets = DefaultMaxBuckets
	}
	if o.RecomputeTimeout <= 0 {
		o.RecomputeTimeout = DefaultRecomputeTimeout
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Epoch.IsZero() {
		o.Epoch = DefaultEpoch
	}
	o.Epoch = analytics.StartOfDay(o.Epoch, o.Location)
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// StatsDeps holds the collaborators of the stats service. Cache and Metrics
// are optional.
type StatsDeps struct {
	Tickets  ports.TicketRepository
	Timeline ports.TimelineRepository
	Stats    ports.StatsRepository
	Authz    ports.AuthorizationService
	Cache    ports.ReportCache
	Metrics  ports.StatsMetrics
	Logger   *slog.Logger
}

// StatsService replays ticket timelines, maintains daily rollups and serves
// range reports.
type StatsService struct {
	tickets  ports.TicketRepository
	timeline ports.TimelineRepository
	stats    ports.StatsRepository
	authz    ports.AuthorizationService
	cache    ports.ReportCache
	metrics  ports.StatsMetrics
	logger   *slog.Logger
	opts     StatsOptions

	limiter  *rate.Limiter
	inflight singleflight.Group
	wg       sync.WaitGroup
}

var _ ports.StatsService = (*StatsService)(nil)

// NewStatsService creates a new stats service.
func NewStatsService(deps StatsDeps, opts StatsOptions) ports.StatsService {
	opts = opts.withDefaults()

	s := &StatsService{
		tickets:  deps.Tickets,
		timeline: deps.Timeline,
		stats:    deps.Stats,
		authz:    deps.Authz,
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		opts:     opts,
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if opts.SweepRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.SweepRate), 1)
	}
	return s
}

// RecomputeTicket replays one ticket and replaces its stats row.
func (s *StatsService) RecomputeTicket(ctx context.Context, auth domain.AuthContext, ticketID int64) (*domain.TicketStats, error) {
	if ticketID <= 0 {
		return nil, apperrors.ErrTicketIDRequired
	}
	if err := s.authz.Authorize(ctx, auth, domain.PermissionStatsRecompute); err != nil {
		return nil, err
	}

	stats, err := s.recomputeTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return stats, nil
}

// RecomputeOpenTickets recomputes every ticket in an open status. A failing
// ticket is logged and counted; it does not stop the sweep.
func (s *StatsService) RecomputeOpenTickets(ctx context.Context, auth domain.AuthContext) (domain.SweepSummary, error) {
	if err := s.authz.Authorize(ctx, auth, domain.PermissionStatsRecompute); err != nil {
		return domain.SweepSummary{}, err
	}
	return s.sweepOpenTickets(ctx)
}

// StartOpenTicketSweep authorizes the caller and sweeps in the background.
func (s *StatsService) StartOpenTicketSweep(ctx context.Context, auth domain.AuthContext) error {
	if err := s.authz.Authorize(ctx, auth, domain.PermissionStatsRecompute); err != nil {
		return err
	}
	s.runInBackground(ctx, "open ticket sweep", s.sweepOpenTickets)
	return nil
}

// RecomputeDay rebuilds the rollup of the calendar day containing day.
func (s *StatsService) RecomputeDay(ctx context.Context, auth domain.AuthContext, day time.Time) (*domain.DailyStats, error) {
	if err := s.authz.Authorize(ctx, auth, domain.PermissionStatsRecompute); err != nil {
		return nil, err
	}
	if day.IsZero() {
		day = s.yesterday()
	}

	stats, err := s.recomputeDay(ctx, day)
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return stats, nil
}

// BackfillDays walks backward one day at a time from from down to the epoch.
// Failed days are logged and counted; the walk stops only when ctx is done.
func (s *StatsService) BackfillDays(ctx context.Context, auth domain.AuthContext, from time.Time) (domain.SweepSummary, error) {
	if err := s.authz.Authorize(ctx, auth, domain.PermissionStatsRecompute); err != nil {
		return domain.SweepSummary{}, err
	}
	return s.backfill(ctx, from)
}

// StartBackfill authorizes the caller and backfills in the background.
func (s *StatsService) StartBackfill(ctx context.Context, auth domain.AuthContext, from time.Time) error {
	if err := s.authz.Authorize(ctx, auth, domain.PermissionStatsRecompute); err != nil {
		return err
	}
	s.runInBackground(ctx, "daily backfill", func(ctx context.Context) (domain.SweepSummary, error) {
		return s.backfill(ctx, from)
	})
	return nil
}

// GetRangeReport returns one report per bucket of the range.
func (s *StatsService) GetRangeReport(ctx context.Context, auth domain.AuthContext, params ports.RangeParams) ([]domain.RangeReport, error) {
	if err := s.authz.Authorize(ctx, auth, domain.PermissionStatsRead); err != nil {
		return nil, err
	}
	buckets, err := s.buckets(params)
	if err != nil {
		return nil, err
	}

	key := reportCacheKey(params)
	if cached, ok := s.cachedReports(ctx, key); ok {
		return cached, nil
	}

	reports := make([]domain.RangeReport, len(buckets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, bucket := range buckets {
		g.Go(func() error {
			report, err := s.bucketReport(gctx, bucket)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.storeReports(ctx, key, reports)
	return reports, nil
}

// GetNewTicketCounts counts tickets created in each bucket of the range.
func (s *StatsService) GetNewTicketCounts(ctx context.Context, auth domain.AuthContext, params ports.RangeParams) ([]domain.BucketCount, error) {
	if err := s.authz.Authorize(ctx, auth, domain.PermissionStatsRead); err != nil {
		return nil, err
	}
	buckets, err := s.buckets(params)
	if err != nil {
		return nil, err
	}

	counts := make([]domain.BucketCount, len(buckets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, bucket := range buckets {
		g.Go(func() error {
			n, err := s.tickets.CountCreated(gctx, bucket)
			if err != nil {
				return apperrors.Unavailable("count created tickets", err)
			}
			counts[i] = domain.BucketCount{Date: bucket.Start, Count: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// GetUserTicketStats returns the stats rows of tickets active in the range in
// which the user is credited. Users may always read their own stats.
func (s *StatsService) GetUserTicketStats(ctx context.Context, auth domain.AuthContext, userID uuid.UUID, r domain.DateRange) ([]*domain.TicketStats, error) {
	if auth.Master || auth.UserID == uuid.Nil || auth.UserID != userID {
		if err := s.authz.Authorize(ctx, auth, domain.PermissionStatsRead); err != nil {
			return nil, err
		}
	}
	if r.End.Before(r.Start) {
		return nil, apperrors.ErrInvalidDateRange
	}

	dailies, err := s.stats.ListDailyStats(ctx, r)
	if err != nil {
		return nil, apperrors.Unavailable("list daily stats", err)
	}
	stats, err := s.ticketStats(ctx, analytics.UnionTicketIDs(dailies))
	if err != nil {
		return nil, err
	}

	involved := make([]*domain.TicketStats, 0, len(stats))
	for _, st := range stats {
		if st.InvolvesAgent(userID) {
			involved = append(involved, st)
		}
	}
	return involved, nil
}

// Shutdown waits for background sweeps to finish or ctx to expire.
func (s *StatsService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recomputeTicket collapses concurrent recomputes of the same ticket.
func (s *StatsService) recomputeTicket(ctx context.Context, ticketID int64) (*domain.TicketStats, error) {
	v, err := s.shared(ctx, recomputeTicket+":"+strconv.FormatInt(ticketID, 10), func(ctx context.Context) (any, error) {
		start := s.opts.Clock()
		stats, err := s.replayTicket(ctx, ticketID)
		s.metrics.ObserveRecompute(recomputeTicket, s.opts.Clock().Sub(start), err)
		return stats, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.TicketStats), nil
}

// shared runs fn once per key for all concurrent callers. fn is detached from
// the callers' cancellation and bounded by RecomputeTimeout.
func (s *StatsService) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.inflight.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.RecomputeTimeout)
		defer cancel()
		return fn(runCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *StatsService) replayTicket(ctx context.Context, ticketID int64) (*domain.TicketStats, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTicketNotFound) {
			return nil, err
		}
		return nil, apperrors.Unavailable("get ticket", err)
	}

	var (
		replies []*domain.Reply
		opsLogs []*domain.OpsLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		replies, err = utils.Collect(gctx, s.opts.PageSize,
			func(ctx context.Context, after *time.Time, limit int) ([]*domain.Reply, error) {
				return s.timeline.ListRepliesPage(ctx, ticketID, after, limit)
			},
			func(r *domain.Reply) time.Time { return r.CreatedAt },
		)
		return apperrors.Unavailable("list replies", err)
	})
	g.Go(func() error {
		var err error
		opsLogs, err = utils.Collect(gctx, s.opts.PageSize,
			func(ctx context.Context, after *time.Time, limit int) ([]*domain.OpsLog, error) {
				return s.timeline.ListOpsLogsPage(ctx, ticketID, after, limit)
			},
			func(l *domain.OpsLog) time.Time { return l.CreatedAt },
		)
		return apperrors.Unavailable("list ops logs", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := analytics.ReplayTicket(ticket, domain.NewTimeline(replies, opsLogs), s.opts.Clock())
	s.reportInconsistencies(ctx, result.Inconsistencies)

	if err := s.stats.ReplaceTicketStats(ctx, &result.Stats); err != nil {
		return nil, apperrors.Unavailable("replace ticket stats", err)
	}
	return &result.Stats, nil
}

func (s *StatsService) sweepOpenTickets(ctx context.Context) (domain.SweepSummary, error) {
	var processed, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)

	err := utils.Drain(ctx, s.opts.PageSize, s.tickets.ListOpenPage,
		func(t *domain.Ticket) time.Time { return t.CreatedAt },
		func(t *domain.Ticket) error {
			if s.limiter != nil {
				if err := s.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			g.Go(func() error {
				if _, err := s.recomputeTicket(ctx, t.ID); err != nil {
					failed.Add(1)
					s.logger.ErrorContext(ctx, "failed to recompute ticket stats", "ticket_id", t.ID, "error", err)
					return nil
				}
				processed.Add(1)
				return nil
			})
			return nil
		},
	)
	_ = g.Wait()

	summary := domain.SweepSummary{Processed: int(processed.Load()), Failed: int(failed.Load())}
	s.metrics.ObserveSweep(summary)
	if processed.Load() > 0 {
		s.invalidateReports(ctx)
	}
	if err != nil {
		if ctx.Err() == nil {
			err = apperrors.Unavailable("list open tickets", err)
		}
		return summary, err
	}
	return summary, nil
}

func (s *StatsService) recomputeDay(ctx context.Context, day time.Time) (*domain.DailyStats, error) {
	window := analytics.DayRange(day, s.opts.Location)
	key := recomputeDay + ":" + window.Start.Format(time.DateOnly)

	v, err := s.shared(ctx, key, func(ctx context.Context) (any, error) {
		start := s.opts.Clock()
		stats, err := s.rollupDay(ctx, window)
		s.metrics.ObserveRecompute(recomputeDay, s.opts.Clock().Sub(start), err)
		return stats, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.DailyStats), nil
}

func (s *StatsService) rollupDay(ctx context.Context, window domain.DateRange) (*domain.DailyStats, error) {
	rollup := analytics.NewDailyRollup()
	err := utils.Drain(ctx, s.opts.PageSize,
		func(ctx context.Context, after *time.Time, limit int) ([]*domain.ReplyWithTicket, error) {
			return s.timeline.ListRepliesInWindowPage(ctx, window, after, limit)
		},
		func(r *domain.ReplyWithTicket) time.Time { return r.Reply.CreatedAt },
		func(r *domain.ReplyWithTicket) error {
			rollup.Add(r)
			return nil
		},
	)
	if err != nil {
		return nil, apperrors.Unavailable("list replies in window", err)
	}

	stats := rollup.Result(window.Start)
	if err := s.stats.ReplaceDailyStats(ctx, stats); err != nil {
		return nil, apperrors.Unavailable("replace daily stats", err)
	}
	return stats, nil
}

func (s *StatsService) backfill(ctx context.Context, from time.Time) (domain.SweepSummary, error) {
	if from.IsZero() {
		from = s.yesterday()
	}

	var summary domain.SweepSummary
	for day := analytics.StartOfDay(from, s.opts.Location); !day.Before(s.opts.Epoch); day = day.AddDate(0, 0, -1) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, err := s.recomputeDay(ctx, day); err != nil {
			summary.Failed++
			s.logger.ErrorContext(ctx, "failed to recompute daily stats", "date", day.Format(time.DateOnly), "error", err)
			continue
		}
		summary.Processed++
	}

	s.metrics.ObserveSweep(summary)
	if summary.Processed > 0 {
		s.invalidateReports(ctx)
	}
	return summary, nil
}

func (s *StatsService) bucketReport(ctx context.Context, bucket domain.DateRange) (domain.RangeReport, error) {
	dailies, err := s.stats.ListDailyStats(ctx, bucket)
	if err != nil {
		return domain.RangeReport{}, apperrors.Unavailable("list daily stats", err)
	}
	stats, err := s.ticketStats(ctx, analytics.UnionTicketIDs(dailies))
	if err != nil {
		return domain.RangeReport{}, err
	}
	return analytics.BuildRangeReport(bucket, dailies, stats), nil
}

// ticketStats looks the ids up in batches. Ids without a stats row are skipped.
func (s *StatsService) ticketStats(ctx context.Context, ids []int64) ([]*domain.TicketStats, error) {
	out := make([]*domain.TicketStats, 0, len(ids))
	for _, batch := range utils.Chunk(ids, s.opts.BatchSize) {
		rows, err := s.stats.ListTicketStats(ctx, batch)
		if err != nil {
			return nil, apperrors.Unavailable("list ticket stats", err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (s *StatsService) buckets(params ports.RangeParams) ([]domain.DateRange, error) {
	if _, err := domain.ParseTimeUnit(string(params.Unit)); err != nil {
		return nil, err
	}
	if params.End.Before(params.Start) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var buckets []domain.DateRange
	for bucket := range analytics.DateRanges(params.Start, params.End, params.Unit) {
		if len(buckets) == s.opts.MaxBuckets {
			return nil, fmt.Errorf("%w: more than %d %s buckets", apperrors.ErrInvalidDateRange, s.opts.MaxBuckets, params.Unit)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

func (s *StatsService) yesterday() time.Time {
	return analytics.StartOfDay(s.opts.Clock(), s.opts.Location).AddDate(0, 0, -1)
}

func (s *StatsService) reportInconsistencies(ctx context.Context, issues []analytics.Inconsistency) {
	for _, inc := range issues {
		s.logger.WarnContext(ctx, "timeline data inconsistency",
			"ticket_id", inc.TicketID,
			"event_kind", inc.Kind,
			"event_id", inc.EventID,
			"action", inc.Action,
			"reason", inc.Reason,
		)
		s.metrics.IncInconsistency(string(inc.Action))
	}
}

// runInBackground runs job detached from the caller's cancellation. Shutdown
// waits for it.
func (s *StatsService) runInBackground(ctx context.Context, name string, job func(context.Context) (domain.SweepSummary, error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := context.WithoutCancel(ctx)

		start := s.opts.Clock()
		summary, err := job(ctx)
		attrs := []any{
			"job", name,
			"processed", summary.Processed,
			"failed", summary.Failed,
			"duration", s.opts.Clock().Sub(start),
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "background job failed", append(attrs, "error", err)...)
			return
		}
		s.logger.InfoContext(ctx, "background job finished", attrs...)
	}()
}

func (s *StatsService) cachedReports(ctx context.Context, key string) ([]domain.RangeReport, bool) {
	if s.cache == nil {
		return nil, false
	}
	reports, ok, err := s.cache.GetReports(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "report cache read failed", "key", key, "error", err)
		return nil, false
	}
	return reports, ok
}

func (s *StatsService) storeReports(ctx context.Context, key string, reports []domain.RangeReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetReports(ctx, key, reports); err != nil {
		s.logger.WarnContext(ctx, "report cache write failed", "key", key, "error", err)
	}
}

func (s *StatsService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "report cache invalidation failed", "error", err)
	}
}

func reportCacheKey(params ports.RangeParams) string {
	return fmt.Sprintf("%d:%d:%s", params.Start.UnixMilli(), params.End.UnixMilli(), params.Unit)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRecompute(string, time.Duration, error) {}
func (noopMetrics) IncInconsistency(string)                       {}
func (noopMetrics) ObserveSweep(domain.SweepSummary)              {}
