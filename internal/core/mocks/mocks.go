package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListOpenPage(ctx context.Context, after *time.Time, limit int) ([]*domain.Ticket, error) {
	args := m.Called(ctx, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) CountCreated(ctx context.Context, r domain.DateRange) (int64, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(int64), args.Error(1)
}

// MockTimelineRepository is a mock implementation of ports.TimelineRepository
type MockTimelineRepository struct {
	mock.Mock
}

func NewMockTimelineRepository() *MockTimelineRepository {
	return &MockTimelineRepository{}
}

func (m *MockTimelineRepository) ListRepliesPage(ctx context.Context, ticketID int64, after *time.Time, limit int) ([]*domain.Reply, error) {
	args := m.Called(ctx, ticketID, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reply), args.Error(1)
}

func (m *MockTimelineRepository) ListOpsLogsPage(ctx context.Context, ticketID int64, after *time.Time, limit int) ([]*domain.OpsLog, error) {
	args := m.Called(ctx, ticketID, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OpsLog), args.Error(1)
}

func (m *MockTimelineRepository) ListRepliesInWindowPage(ctx context.Context, window domain.DateRange, after *time.Time, limit int) ([]*domain.ReplyWithTicket, error) {
	args := m.Called(ctx, window, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReplyWithTicket), args.Error(1)
}

// MockStatsRepository is a mock implementation of ports.StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func NewMockStatsRepository() *MockStatsRepository {
	return &MockStatsRepository{}
}

func (m *MockStatsRepository) ReplaceTicketStats(ctx context.Context, stats *domain.TicketStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsRepository) ReplaceDailyStats(ctx context.Context, stats *domain.DailyStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsRepository) ListDailyStats(ctx context.Context, r domain.DateRange) ([]*domain.DailyStats, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DailyStats), args.Error(1)
}

func (m *MockStatsRepository) ListTicketStats(ctx context.Context, ticketIDs []int64) ([]*domain.TicketStats, error) {
	args := m.Called(ctx, ticketIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TicketStats), args.Error(1)
}

// MockAuthorizationRepository is a mock implementation of ports.AuthorizationRepository
type MockAuthorizationRepository struct {
	mock.Mock
}

func NewMockAuthorizationRepository() *MockAuthorizationRepository {
	return &MockAuthorizationRepository{}
}

func (m *MockAuthorizationRepository) GetUserPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockAuthorizationService is a mock implementation of ports.AuthorizationService
type MockAuthorizationService struct {
	mock.Mock
}

func NewMockAuthorizationService() *MockAuthorizationService {
	return &MockAuthorizationService{}
}

func (m *MockAuthorizationService) Can(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	args := m.Called(ctx, userID, permission)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthorizationService) GetPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAuthorizationService) Authorize(ctx context.Context, auth domain.AuthContext, permission string) error {
	args := m.Called(ctx, auth, permission)
	return args.Error(0)
}

// MockReportCache is a mock implementation of ports.ReportCache
type MockReportCache struct {
	mock.Mock
}

func NewMockReportCache() *MockReportCache {
	return &MockReportCache{}
}

func (m *MockReportCache) GetReports(ctx context.Context, key string) ([]domain.RangeReport, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.RangeReport), args.Bool(1), args.Error(2)
}

func (m *MockReportCache) SetReports(ctx context.Context, key string, reports []domain.RangeReport) error {
	args := m.Called(ctx, key, reports)
	return args.Error(0)
}

func (m *MockReportCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockStatsService is a mock implementation of ports.StatsService
type MockStatsService struct {
	mock.Mock
}

func NewMockStatsService() *MockStatsService {
	return &MockStatsService{}
}

func (m *MockStatsService) RecomputeTicket(ctx context.Context, auth domain.AuthContext, ticketID int64) (*domain.TicketStats, error) {
	args := m.Called(ctx, auth, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketStats), args.Error(1)
}

func (m *MockStatsService) RecomputeOpenTickets(ctx context.Context, auth domain.AuthContext) (domain.SweepSummary, error) {
	args := m.Called(ctx, auth)
	return args.Get(0).(domain.SweepSummary), args.Error(1)
}

func (m *MockStatsService) StartOpenTicketSweep(ctx context.Context, auth domain.AuthContext) error {
	args := m.Called(ctx, auth)
	return args.Error(0)
}

func (m *MockStatsService) RecomputeDay(ctx context.Context, auth domain.AuthContext, day time.Time) (*domain.DailyStats, error) {
	args := m.Called(ctx, auth, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DailyStats), args.Error(1)
}

func (m *MockStatsService) BackfillDays(ctx context.Context, auth domain.AuthContext, from time.Time) (domain.SweepSummary, error) {
	args := m.Called(ctx, auth, from)
	return args.Get(0).(domain.SweepSummary), args.Error(1)
}

func (m *MockStatsService) StartBackfill(ctx context.Context, auth domain.AuthContext, from time.Time) error {
	args := m.Called(ctx, auth, from)
	return args.Error(0)
}

func (m *MockStatsService) GetRangeReport(ctx context.Context, auth domain.AuthContext, params ports.RangeParams) ([]domain.RangeReport, error) {
	args := m.Called(ctx, auth, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RangeReport), args.Error(1)
}

func (m *MockStatsService) GetNewTicketCounts(ctx context.Context, auth domain.AuthContext, params ports.RangeParams) ([]domain.BucketCount, error) {
	args := m.Called(ctx, auth, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BucketCount), args.Error(1)
}

func (m *MockStatsService) GetUserTicketStats(ctx context.Context, auth domain.AuthContext, userID uuid.UUID, r domain.DateRange) ([]*domain.TicketStats, error) {
	args := m.Called(ctx, auth, userID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TicketStats), args.Error(1)
}

func (m *MockStatsService) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
