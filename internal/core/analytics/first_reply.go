package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// FirstReplyState tracks the first agent action on a ticket. Once resolved it
// ignores every later event.
type FirstReplyState struct {
	TicketID int64
	Start    time.Time

	pendingAssignee *uuid.UUID
	resolved        bool
	agentID         *uuid.UUID
	firstReplyAt    time.Time
}

// NewFirstReplyState starts tracking at the ticket's creation time.
func NewFirstReplyState(ticket *domain.Ticket) FirstReplyState {
	return FirstReplyState{
		TicketID: ticket.ID,
		Start:    ticket.CreatedAt,
	}
}

// Resolved reports whether the first reply has been found.
func (s FirstReplyState) Resolved() bool {
	return s.resolved
}

// Apply returns the state after ev. A non-nil Inconsistency is returned when an
// assignee handoff is seen before any assignee was announced; the state still
// resolves, with no credited agent.
func (s FirstReplyState) Apply(ev domain.TimelineEvent) (FirstReplyState, *Inconsistency) {
	if s.resolved {
		return s, nil
	}

	switch {
	case ev.IsAgentReply():
		author := ev.Reply.AuthorID
		s.resolved = true
		s.firstReplyAt = ev.CreatedAt()
		s.agentID = &author
		return s, nil

	case ev.IsAction(domain.ActionSelectAssignee):
		s.pendingAssignee = ev.OpsLog.Data.Assignee
		return s, nil

	case ev.IsAction(domain.ActionChangeAssignee):
		s.resolved = true
		s.firstReplyAt = ev.CreatedAt()
		if s.pendingAssignee == nil {
			s.agentID = nil
			return s, newInconsistency(s.TicketID, ev, "assignee changed before any assignee was selected")
		}
		agent := *s.pendingAssignee
		s.agentID = &agent
		return s, nil
	}

	return s, nil
}

// Result reports the first reply statistic. FirstReplyTime stays nil while
// the state is unresolved.
func (s FirstReplyState) Result() domain.FirstReplyStat {
	stat := domain.FirstReplyStat{TicketID: s.TicketID}
	if !s.resolved {
		return stat
	}
	d := elapsed(s.Start, s.firstReplyAt)
	stat.FirstReplyTime = &d
	stat.AgentID = s.agentID
	return stat
}
