package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatsReadRole is the role granted read access to derived statistics rows.
const StatsReadRole = "customerService"

// FirstReplyStat records how long a ticket waited for its first agent action.
// AgentID and FirstReplyTime are nil when they could not be determined.
type FirstReplyStat struct {
	TicketID       int64
	AgentID        *uuid.UUID
	FirstReplyTime *time.Duration
}

// AgentReplyTime is the reply-time ledger entry of one agent on one ticket.
type AgentReplyTime struct {
	TicketID   int64
	AgentID    uuid.UUID
	ReplyCount int64
	ReplyTime  time.Duration
}

// TicketStats is the derived statistics row of a single ticket.
type TicketStats struct {
	TicketID   int64
	FirstReply FirstReplyStat
	ReplyTimes []AgentReplyTime
}

// InvolvesAgent reports whether the agent is credited anywhere in the stats.
func (s *TicketStats) InvolvesAgent(agentID uuid.UUID) bool {
	if s.FirstReply.AgentID != nil && *s.FirstReply.AgentID == agentID {
		return true
	}
	for _, rt := range s.ReplyTimes {
		if rt.AgentID == agentID {
			return true
		}
	}
	return false
}

// CountMap counts occurrences per key.
type CountMap map[string]int64

// Merge adds the counts of other into m and returns m.
// A nil receiver allocates a new map.
func (m CountMap) Merge(other CountMap) CountMap {
	if m == nil {
		m = make(CountMap, len(other))
	}
	for k, v := range other {
		m[k] += v
	}
	return m
}

// Total returns the sum of all counts.
func (m CountMap) Total() int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}

// DailyStats is the rollup of one calendar day of reply activity.
type DailyStats struct {
	Date         time.Time
	TicketIDs    []int64
	ReplyCount   int64
	Categories   CountMap
	Assignees    CountMap
	Authors      CountMap
	Statuses     CountMap
	JoinedAgents CountMap
}

// AgentDuration is an accumulated duration credited to an agent.
// AgentID is nil for time that could not be attributed to anyone.
type AgentDuration struct {
	AgentID    *uuid.UUID
	ReplyCount int64
	ReplyTime  time.Duration
}

// RangeReport summarises one bucket of a date range.
type RangeReport struct {
	Date          time.Time
	End           time.Time
	TicketIDs     []int64
	Categories    CountMap
	Assignees     CountMap
	Authors       CountMap
	Statuses      CountMap
	JoinedAgents  CountMap
	RawReplyCount int64

	FirstReplyTimeByAgent []AgentDuration
	ReplyTimeByAgent      []AgentDuration

	FirstReplyTime  time.Duration
	FirstReplyCount int64
	ReplyTime       time.Duration
	ReplyCount      int64
}

// BucketCount is a count attached to the start of a bucket.
type BucketCount struct {
	Date  time.Time
	Count int64
}

// SweepSummary reports the outcome of a bulk recompute.
type SweepSummary struct {
	Processed int
	Failed    int
}
