package analytics

import (
	"slices"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// UnionTicketIDs returns the distinct ticket ids referenced by the rollups, ascending.
func UnionTicketIDs(dailies []*domain.DailyStats) []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, daily := range dailies {
		for _, id := range daily.TicketIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// MergeDaily unions the rollups that fall in a bucket. Count maps are merged
// numerically and ticket ids are deduplicated.
func MergeDaily(bucket domain.DateRange, dailies []*domain.DailyStats) domain.RangeReport {
	report := domain.RangeReport{
		Date:         bucket.Start,
		End:          bucket.End,
		Categories:   domain.CountMap{},
		Assignees:    domain.CountMap{},
		Authors:      domain.CountMap{},
		Statuses:     domain.CountMap{},
		JoinedAgents: domain.CountMap{},
	}
	for _, daily := range dailies {
		report.Categories.Merge(daily.Categories)
		report.Assignees.Merge(daily.Assignees)
		report.Authors.Merge(daily.Authors)
		report.Statuses.Merge(daily.Statuses)
		report.JoinedAgents.Merge(daily.JoinedAgents)
		report.RawReplyCount += daily.ReplyCount
	}
	report.TicketIDs = UnionTicketIDs(dailies)
	return report
}

// indexStats keys ticket stats by ticket id. The first row for an id wins.
func indexStats(stats []*domain.TicketStats) map[int64]*domain.TicketStats {
	index := make(map[int64]*domain.TicketStats, len(stats))
	for _, s := range stats {
		if s == nil {
			continue
		}
		if _, ok := index[s.TicketID]; !ok {
			index[s.TicketID] = s
		}
	}
	return index
}

type agentTotals struct {
	order  []*uuid.UUID
	totals map[uuid.UUID]*domain.AgentDuration
	nobody *domain.AgentDuration
}

func newAgentTotals() *agentTotals {
	return &agentTotals{totals: make(map[uuid.UUID]*domain.AgentDuration)}
}

func (a *agentTotals) entry(agent *uuid.UUID) *domain.AgentDuration {
	if agent == nil {
		if a.nobody == nil {
			a.nobody = &domain.AgentDuration{}
			a.order = append(a.order, nil)
		}
		return a.nobody
	}
	e, ok := a.totals[*agent]
	if !ok {
		id := *agent
		e = &domain.AgentDuration{AgentID: &id}
		a.totals[id] = e
		a.order = append(a.order, &id)
	}
	return e
}

func (a *agentTotals) list() []domain.AgentDuration {
	out := make([]domain.AgentDuration, 0, len(a.order))
	for _, agent := range a.order {
		if agent == nil {
			out = append(out, *a.nobody)
			continue
		}
		out = append(out, *a.totals[*agent])
	}
	return out
}

// FirstReplyTimeByAgent groups resolved first replies of the referenced tickets
// by credited agent. Tickets without stats or without a first reply are skipped;
// first replies with no credited agent are grouped under a nil AgentID.
func FirstReplyTimeByAgent(ticketIDs []int64, stats []*domain.TicketStats) []domain.AgentDuration {
	index := indexStats(stats)
	totals := newAgentTotals()
	for _, id := range ticketIDs {
		s, ok := index[id]
		if !ok || s.FirstReply.FirstReplyTime == nil {
			continue
		}
		e := totals.entry(s.FirstReply.AgentID)
		e.ReplyCount++
		e.ReplyTime += *s.FirstReply.FirstReplyTime
	}
	return totals.list()
}

// ReplyTimeByAgent sums the reply-time ledgers of the referenced tickets per agent.
func ReplyTimeByAgent(ticketIDs []int64, stats []*domain.TicketStats) []domain.AgentDuration {
	index := indexStats(stats)
	totals := newAgentTotals()
	for _, id := range ticketIDs {
		s, ok := index[id]
		if !ok {
			continue
		}
		for _, rt := range s.ReplyTimes {
			agent := rt.AgentID
			e := totals.entry(&agent)
			e.ReplyCount += rt.ReplyCount
			e.ReplyTime += rt.ReplyTime
		}
	}
	return totals.list()
}

// BuildRangeReport merges a bucket's rollups and derives the per-agent
// breakdowns from the referenced ticket stats. The scalar totals are always
// the sums of their breakdowns.
func BuildRangeReport(bucket domain.DateRange, dailies []*domain.DailyStats, stats []*domain.TicketStats) domain.RangeReport {
	report := MergeDaily(bucket, dailies)
	report.FirstReplyTimeByAgent = FirstReplyTimeByAgent(report.TicketIDs, stats)
	report.ReplyTimeByAgent = ReplyTimeByAgent(report.TicketIDs, stats)

	for _, e := range report.FirstReplyTimeByAgent {
		report.FirstReplyTime += e.ReplyTime
		report.FirstReplyCount += e.ReplyCount
	}
	for _, e := range report.ReplyTimeByAgent {
		report.ReplyTime += e.ReplyTime
		report.ReplyCount += e.ReplyCount
	}
	return report
}
