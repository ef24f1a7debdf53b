package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// FirstReplyDTO is the first-reply part of a ticket's stats.
type FirstReplyDTO struct {
	AgentID *uuid.UUID `json:"agentId"`
	// Milliseconds; null when the ticket never received an agent action.
	FirstReplyTime *int64 `json:"firstReplyTime"`
}

// AgentReplyTimeDTO is one agent's reply-time ledger entry.
type AgentReplyTimeDTO struct {
	AgentID    uuid.UUID `json:"agentId"`
	ReplyCount int64     `json:"replyCount"`
	ReplyTime  int64     `json:"replyTime"`
}

// TicketStatsDTO is the JSON form of a ticket's derived statistics.
type TicketStatsDTO struct {
	TicketID   int64               `json:"ticketId"`
	FirstReply FirstReplyDTO       `json:"firstReply"`
	ReplyTimes []AgentReplyTimeDTO `json:"replyTimes"`
}

// DailyStatsDTO is the JSON form of a daily rollup.
type DailyStatsDTO struct {
	Date         time.Time        `json:"date"`
	Tickets      []int64          `json:"tickets"`
	ReplyCount   int64            `json:"replyCount"`
	Categories   map[string]int64 `json:"categories"`
	Assignees    map[string]int64 `json:"assignees"`
	Authors      map[string]int64 `json:"authors"`
	Statuses     map[string]int64 `json:"statuses"`
	JoinedAgents map[string]int64 `json:"joinedAgents"`
}

// AgentDurationDTO is an accumulated duration attributed to an agent.
type AgentDurationDTO struct {
	AgentID    *uuid.UUID `json:"agentId"`
	ReplyCount int64      `json:"replyCount"`
	ReplyTime  int64      `json:"replyTime"`
}

// RangeReportDTO is one bucket of a range report. Durations are in
// milliseconds.
type RangeReportDTO struct {
	Date                  time.Time          `json:"date"`
	End                   time.Time          `json:"end"`
	Tickets               []int64            `json:"tickets"`
	Categories            map[string]int64   `json:"categories"`
	Assignees             map[string]int64   `json:"assignees"`
	Authors               map[string]int64   `json:"authors"`
	Statuses              map[string]int64   `json:"statuses"`
	JoinedAgents          map[string]int64   `json:"joinedAgents"`
	RawReplyCount         int64              `json:"rawReplyCount"`
	FirstReplyTimeByAgent []AgentDurationDTO `json:"firstReplyTimeByAgent"`
	ReplyTimeByAgent      []AgentDurationDTO `json:"replyTimeByAgent"`
	FirstReplyTime        int64              `json:"firstReplyTime"`
	FirstReplyCount       int64              `json:"firstReplyCount"`
	ReplyTime             int64              `json:"replyTime"`
	ReplyCount            int64              `json:"replyCount"`
}

// BucketCountDTO is a count attached to the start of a bucket.
type BucketCountDTO struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

// SweepSummaryDTO reports a synchronous bulk recompute.
type SweepSummaryDTO struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

func toTicketStatsDTO(s *domain.TicketStats) TicketStatsDTO {
	dto := TicketStatsDTO{
		TicketID: s.TicketID,
		FirstReply: FirstReplyDTO{
			AgentID: s.FirstReply.AgentID,
		},
		ReplyTimes: make([]AgentReplyTimeDTO, 0, len(s.ReplyTimes)),
	}
	if s.FirstReply.FirstReplyTime != nil {
		ms := s.FirstReply.FirstReplyTime.Milliseconds()
		dto.FirstReply.FirstReplyTime = &ms
	}
	for _, rt := range s.ReplyTimes {
		dto.ReplyTimes = append(dto.ReplyTimes, AgentReplyTimeDTO{
			AgentID:    rt.AgentID,
			ReplyCount: rt.ReplyCount,
			ReplyTime:  rt.ReplyTime.Milliseconds(),
		})
	}
	return dto
}

func toTicketStatsDTOs(stats []*domain.TicketStats) []TicketStatsDTO {
	out := make([]TicketStatsDTO, 0, len(stats))
	for _, s := range stats {
		out = append(out, toTicketStatsDTO(s))
	}
	return out
}

func toDailyStatsDTO(d *domain.DailyStats) DailyStatsDTO {
	return DailyStatsDTO{
		Date:         d.Date,
		Tickets:      nonNilIDs(d.TicketIDs),
		ReplyCount:   d.ReplyCount,
		Categories:   nonNilCounts(d.Categories),
		Assignees:    nonNilCounts(d.Assignees),
		Authors:      nonNilCounts(d.Authors),
		Statuses:     nonNilCounts(d.Statuses),
		JoinedAgents: nonNilCounts(d.JoinedAgents),
	}
}

func toRangeReportDTOs(reports []domain.RangeReport) []RangeReportDTO {
	out := make([]RangeReportDTO, 0, len(reports))
	for _, r := range reports {
		out = append(out, RangeReportDTO{
			Date:                  r.Date,
			End:                   r.End,
			Tickets:               nonNilIDs(r.TicketIDs),
			Categories:            nonNilCounts(r.Categories),
			Assignees:             nonNilCounts(r.Assignees),
			Authors:               nonNilCounts(r.Authors),
			Statuses:              nonNilCounts(r.Statuses),
			JoinedAgents:          nonNilCounts(r.JoinedAgents),
			RawReplyCount:         r.RawReplyCount,
			FirstReplyTimeByAgent: toAgentDurationDTOs(r.FirstReplyTimeByAgent),
			ReplyTimeByAgent:      toAgentDurationDTOs(r.ReplyTimeByAgent),
			FirstReplyTime:        r.FirstReplyTime.Milliseconds(),
			FirstReplyCount:       r.FirstReplyCount,
			ReplyTime:             r.ReplyTime.Milliseconds(),
			ReplyCount:            r.ReplyCount,
		})
	}
	return out
}

func toAgentDurationDTOs(in []domain.AgentDuration) []AgentDurationDTO {
	out := make([]AgentDurationDTO, 0, len(in))
	for _, d := range in {
		out = append(out, AgentDurationDTO{
			AgentID:    d.AgentID,
			ReplyCount: d.ReplyCount,
			ReplyTime:  d.ReplyTime.Milliseconds(),
		})
	}
	return out
}

func toBucketCountDTOs(in []domain.BucketCount) []BucketCountDTO {
	out := make([]BucketCountDTO, 0, len(in))
	for _, c := range in {
		out = append(out, BucketCountDTO{Date: c.Date, Count: c.Count})
	}
	return out
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func nonNilCounts(m domain.CountMap) map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	return m
}
