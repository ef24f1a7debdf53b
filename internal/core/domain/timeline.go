package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// EventKind tags the variant held by a TimelineEvent.
type EventKind string

const (
	EventReply  EventKind = "reply"
	EventOpsLog EventKind = "opsLog"
)

// OpsAction is the action recorded by an operation log entry.
type OpsAction string

const (
	ActionSelectAssignee     OpsAction = "selectAssignee"
	ActionChangeAssignee     OpsAction = "changeAssignee"
	ActionChangeCategory     OpsAction = "changeCategory"
	ActionReplyWithNoContent OpsAction = "replyWithNoContent"
	ActionReplySoon          OpsAction = "replySoon"
	ActionResolve            OpsAction = "resolve"
	ActionReject             OpsAction = "reject"
	ActionReopen             OpsAction = "reopen"
)

// Reply is a message posted on a ticket by the customer or an agent.
type Reply struct {
	ID          int64
	TicketID    int64
	AuthorID    uuid.UUID
	IsFromAgent bool
	Content     string
	FileIDs     []string
	CreatedAt   time.Time
}

// ReplyWithTicket is a reply joined to the current state of its parent ticket.
type ReplyWithTicket struct {
	Reply  *Reply
	Ticket *Ticket
}

// OpsLogData carries the action-specific payload of an operation log entry.
type OpsLogData struct {
	Assignee *uuid.UUID `json:"assignee,omitempty"`
	Operator *uuid.UUID `json:"operator,omitempty"`
	Category *string    `json:"category,omitempty"`
}

// OpsLog is an operation performed on a ticket (assignment, resolution, ...).
type OpsLog struct {
	ID        int64
	TicketID  int64
	Action    OpsAction
	Data      OpsLogData
	CreatedAt time.Time
}

// TimelineEvent holds exactly one of Reply or OpsLog.
type TimelineEvent struct {
	Kind   EventKind
	Reply  *Reply
	OpsLog *OpsLog
}

// ReplyEvent wraps a reply as a timeline event.
func ReplyEvent(r *Reply) TimelineEvent {
	return TimelineEvent{Kind: EventReply, Reply: r}
}

// OpsLogEvent wraps an operation log entry as a timeline event.
func OpsLogEvent(l *OpsLog) TimelineEvent {
	return TimelineEvent{Kind: EventOpsLog, OpsLog: l}
}

// ID returns the id of the wrapped record.
func (e TimelineEvent) ID() int64 {
	if e.Kind == EventReply {
		return e.Reply.ID
	}
	return e.OpsLog.ID
}

// CreatedAt returns the timeline position of the event.
func (e TimelineEvent) CreatedAt() time.Time {
	if e.Kind == EventReply {
		return e.Reply.CreatedAt
	}
	return e.OpsLog.CreatedAt
}

// IsAgentReply reports whether the event is a reply written by customer service.
func (e TimelineEvent) IsAgentReply() bool {
	return e.Kind == EventReply && e.Reply.IsFromAgent
}

// IsCustomerReply reports whether the event is a reply written by the customer.
func (e TimelineEvent) IsCustomerReply() bool {
	return e.Kind == EventReply && !e.Reply.IsFromAgent
}

// IsAction reports whether the event is an operation log entry with the given action.
func (e TimelineEvent) IsAction(action OpsAction) bool {
	return e.Kind == EventOpsLog && e.OpsLog.Action == action
}

// NewTimeline merges replies and operation logs into creation-time order.
// On equal timestamps replies come before operation logs.
func NewTimeline(replies []*Reply, opsLogs []*OpsLog) []TimelineEvent {
	timeline := make([]TimelineEvent, 0, len(replies)+len(opsLogs))
	for _, r := range replies {
		timeline = append(timeline, ReplyEvent(r))
	}
	for _, l := range opsLogs {
		timeline = append(timeline, OpsLogEvent(l))
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].CreatedAt().Before(timeline[j].CreatedAt())
	})
	return timeline
}
