package analytics

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// ReplyTimeState is the per-ticket reply-time ledger. Transitions are pure:
// Apply never mutates the receiver's ledger in place.
type ReplyTimeState struct {
	TicketID     int64
	Cursor       time.Time
	AgentTurn    bool
	CurrentAgent *uuid.UUID

	ledger []domain.AgentReplyTime
}

// NewReplyTimeState starts the ledger at ticket creation with the customer's
// turn and the ticket's current assignee holding it.
func NewReplyTimeState(ticket *domain.Ticket) ReplyTimeState {
	return ReplyTimeState{
		TicketID:     ticket.ID,
		Cursor:       ticket.CreatedAt,
		CurrentAgent: copyID(ticket.AssigneeID),
	}
}

// Apply returns the state after ev.
func (s ReplyTimeState) Apply(ev domain.TimelineEvent) (ReplyTimeState, *Inconsistency) {
	at := ev.CreatedAt()

	switch {
	case ev.IsAgentReply() && !s.AgentTurn:
		author := ev.Reply.AuthorID
		s.ledger = s.credit(&author, 1, elapsed(s.Cursor, at))
		s.Cursor = at
		s.AgentTurn = true
		s.CurrentAgent = &author
		return s, nil

	case ev.IsCustomerReply() && s.AgentTurn:
		s.Cursor = at
		s.AgentTurn = false
		return s, nil

	case ev.IsAction(domain.ActionSelectAssignee):
		s.CurrentAgent = copyID(ev.OpsLog.Data.Assignee)
		return s, nil

	case ev.IsAction(domain.ActionChangeAssignee) && !s.AgentTurn:
		inc := s.missingAgent(ev)
		if inc == nil {
			s.ledger = s.credit(s.CurrentAgent, 1, elapsed(s.Cursor, at))
		}
		s.Cursor = at
		s.CurrentAgent = copyID(ev.OpsLog.Data.Assignee)
		return s, inc

	case ev.IsAction(domain.ActionReplyWithNoContent) && !s.AgentTurn:
		inc := s.missingAgent(ev)
		if inc == nil {
			s.ledger = s.credit(s.CurrentAgent, 1, elapsed(s.Cursor, at))
		}
		s.Cursor = at
		s.AgentTurn = true
		s.CurrentAgent = copyID(ev.OpsLog.Data.Operator)
		return s, inc

	case ev.IsAction(domain.ActionReopen):
		s.Cursor = at
		s.AgentTurn = false
		return s, nil
	}

	return s, nil
}

// Finalize closes the ledger. A ticket still waiting on customer service keeps
// accruing time for the current agent up to now, so the result depends on the
// evaluation time and must not be cached across calls.
func (s ReplyTimeState) Finalize(status domain.TicketStatus, now time.Time) ([]domain.AgentReplyTime, *Inconsistency) {
	ledger := s.ledger
	var inc *Inconsistency
	if !s.AgentTurn && status.AwaitingAgent() {
		if s.CurrentAgent == nil {
			inc = &Inconsistency{TicketID: s.TicketID, Reason: "ticket awaits an agent but has no assignee"}
		} else {
			ledger = s.credit(s.CurrentAgent, 0, elapsed(s.Cursor, now))
		}
	}
	return slices.Clone(ledger), inc
}

func (s ReplyTimeState) missingAgent(ev domain.TimelineEvent) *Inconsistency {
	if s.CurrentAgent != nil {
		return nil
	}
	return newInconsistency(s.TicketID, ev, "no agent holds the ticket; time not credited")
}

// credit returns a copy of the ledger with the agent's entry updated, appending
// a new entry in first-seen order when needed.
func (s ReplyTimeState) credit(agent *uuid.UUID, count int64, d time.Duration) []domain.AgentReplyTime {
	ledger := slices.Clone(s.ledger)
	idx := slices.IndexFunc(ledger, func(e domain.AgentReplyTime) bool { return e.AgentID == *agent })
	if idx < 0 {
		ledger = append(ledger, domain.AgentReplyTime{TicketID: s.TicketID, AgentID: *agent})
		idx = len(ledger) - 1
	}
	ledger[idx].ReplyCount += count
	ledger[idx].ReplyTime += d
	return ledger
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
