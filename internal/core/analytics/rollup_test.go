package analytics_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/analytics"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func rollupFixture() []*domain.ReplyWithTicket {
	agentA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	agentB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	author1 := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	author2 := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	t1 := &domain.Ticket{ID: 1, Status: domain.StatusWaitingCustomer, AuthorID: author1, AssigneeID: &agentA, CategoryID: strPtr("billing"), JoinedAgentIDs: []uuid.UUID{agentA}}
	t2 := &domain.Ticket{ID: 2, Status: domain.StatusNew, AuthorID: author2, CategoryID: strPtr("billing")}
	t3 := &domain.Ticket{ID: 3, Status: domain.StatusFulfilled, AuthorID: author1, AssigneeID: &agentB, JoinedAgentIDs: []uuid.UUID{agentA, agentB}}

	reply := func(id int64, ticket *domain.Ticket) *domain.ReplyWithTicket {
		return &domain.ReplyWithTicket{
			Reply:  &domain.Reply{ID: id, TicketID: ticket.ID, CreatedAt: time.Unix(id, 0)},
			Ticket: ticket,
		}
	}

	return []*domain.ReplyWithTicket{
		reply(10, t1), reply(11, t1), reply(12, t3),
		reply(13, t2), reply(14, t1), reply(15, t3),
	}
}

func TestDailyRollup_Result(t *testing.T) {
	rollup := analytics.NewDailyRollup()
	for _, item := range rollupFixture() {
		rollup.Add(item)
	}
	rollup.Add(nil)

	date := day(2024, 5, 6)
	stats := rollup.Result(date)

	assert.Equal(t, date, stats.Date)
	assert.Equal(t, []int64{1, 2, 3}, stats.TicketIDs)
	assert.Equal(t, int64(6), stats.ReplyCount)
	assert.Equal(t, domain.CountMap{"billing": 2}, stats.Categories)
	assert.Equal(t, domain.CountMap{
		"00000000-0000-0000-0000-00000000000a": 1,
		"00000000-0000-0000-0000-00000000000b": 1,
	}, stats.Assignees)
	assert.Equal(t, domain.CountMap{
		"00000000-0000-0000-0000-000000000001": 2,
		"00000000-0000-0000-0000-000000000002": 1,
	}, stats.Authors)
	assert.Equal(t, domain.CountMap{"WAITING_CUSTOMER": 1, "NEW": 1, "FULFILLED": 1}, stats.Statuses)
	assert.Equal(t, domain.CountMap{
		"00000000-0000-0000-0000-00000000000a": 2,
		"00000000-0000-0000-0000-00000000000b": 1,
	}, stats.JoinedAgents)
	assert.Equal(t, int64(len(stats.TicketIDs)), stats.Authors.Total())
}

func TestDailyRollup_OrderIndependent(t *testing.T) {
	items := rollupFixture()
	date := day(2024, 5, 6)

	forward := analytics.NewDailyRollup()
	for _, item := range items {
		forward.Add(item)
	}
	want := forward.Result(date)

	rng := rand.New(rand.NewPCG(7, 11))
	for range 5 {
		shuffled := append([]*domain.ReplyWithTicket(nil), items...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		r := analytics.NewDailyRollup()
		for _, item := range shuffled {
			r.Add(item)
		}
		assert.Equal(t, want, r.Result(date))
	}
}

func TestDailyRollup_Empty(t *testing.T) {
	stats := analytics.NewDailyRollup().Result(day(2024, 5, 6))

	assert.Empty(t, stats.TicketIDs)
	assert.NotNil(t, stats.TicketIDs)
	assert.Zero(t, stats.ReplyCount)
	assert.Empty(t, stats.Categories)
}
