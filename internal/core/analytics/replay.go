package analytics

import (
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// ReplayResult is the outcome of replaying one ticket's timeline.
type ReplayResult struct {
	Stats           domain.TicketStats
	Inconsistencies []Inconsistency
}

// ReplayTicket runs the first-reply tracker and the reply-time ledger over the
// timeline, which must already be in creation-time order. now is used for the
// open-ended wait of tickets still awaiting an agent.
func ReplayTicket(ticket *domain.Ticket, timeline []domain.TimelineEvent, now time.Time) ReplayResult {
	first := NewFirstReplyState(ticket)
	ledger := NewReplyTimeState(ticket)

	var issues []Inconsistency
	for _, ev := range timeline {
		var inc *Inconsistency
		if first, inc = first.Apply(ev); inc != nil {
			issues = append(issues, *inc)
		}
		if ledger, inc = ledger.Apply(ev); inc != nil {
			issues = append(issues, *inc)
		}
	}

	replyTimes, inc := ledger.Finalize(ticket.Status, now)
	if inc != nil {
		issues = append(issues, *inc)
	}

	return ReplayResult{
		Stats: domain.TicketStats{
			TicketID:   ticket.ID,
			FirstReply: first.Result(),
			ReplyTimes: replyTimes,
		},
		Inconsistencies: issues,
	}
}
