package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// TicketStatus represents the lifecycle state of a support ticket.
type TicketStatus string

const (
	StatusNew                    TicketStatus = "NEW"
	StatusWaitingCustomerService TicketStatus = "WAITING_CUSTOMER_SERVICE"
	StatusWaitingCustomer        TicketStatus = "WAITING_CUSTOMER"
	StatusPreFulfilled           TicketStatus = "PRE_FULFILLED"
	StatusFulfilled              TicketStatus = "FULFILLED"
	StatusRejected               TicketStatus = "REJECTED"
)

// OpenStatuses lists the statuses of tickets that are still being worked on.
func OpenStatuses() []TicketStatus {
	return []TicketStatus{StatusNew, StatusWaitingCustomerService, StatusWaitingCustomer}
}

func (s TicketStatus) String() string {
	return string(s)
}

// IsValid reports whether s is a known status.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusWaitingCustomerService, StatusWaitingCustomer,
		StatusPreFulfilled, StatusFulfilled, StatusRejected:
		return true
	}
	return false
}

// IsOpen reports whether the ticket still expects activity.
func (s TicketStatus) IsOpen() bool {
	return slices.Contains(OpenStatuses(), s)
}

// AwaitingAgent reports whether the next move belongs to customer service.
func (s TicketStatus) AwaitingAgent() bool {
	return s == StatusNew || s == StatusWaitingCustomerService
}

// Ticket is the read model of a support request as seen by the analytics core.
type Ticket struct {
	ID             int64
	Status         TicketStatus
	AuthorID       uuid.UUID
	AssigneeID     *uuid.UUID
	CategoryID     *string
	JoinedAgentIDs []uuid.UUID
	CreatedAt      time.Time
}

// IsAssignedTo reports whether the ticket is currently assigned to the given agent.
func (t *Ticket) IsAssignedTo(agentID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == agentID
}
