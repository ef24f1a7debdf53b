package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestTicketStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status domain.TicketStatus
		want   bool
	}{
		{"NEW is valid", domain.StatusNew, true},
		{"WAITING_CUSTOMER_SERVICE is valid", domain.StatusWaitingCustomerService, true},
		{"WAITING_CUSTOMER is valid", domain.StatusWaitingCustomer, true},
		{"PRE_FULFILLED is valid", domain.StatusPreFulfilled, true},
		{"FULFILLED is valid", domain.StatusFulfilled, true},
		{"REJECTED is valid", domain.StatusRejected, true},
		{"empty is invalid", domain.TicketStatus(""), false},
		{"lowercase is invalid", domain.TicketStatus("new"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestTicketStatus_OpenAndAwaitingAgent(t *testing.T) {
	tests := []struct {
		status        domain.TicketStatus
		open          bool
		awaitingAgent bool
	}{
		{domain.StatusNew, true, true},
		{domain.StatusWaitingCustomerService, true, true},
		{domain.StatusWaitingCustomer, true, false},
		{domain.StatusPreFulfilled, false, false},
		{domain.StatusFulfilled, false, false},
		{domain.StatusRejected, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.open, tt.status.IsOpen())
			assert.Equal(t, tt.awaitingAgent, tt.status.AwaitingAgent())
		})
	}
}

func TestTicket_IsAssignedTo(t *testing.T) {
	agent := uuid.New()

	ticket := &domain.Ticket{ID: 1}
	assert.False(t, ticket.IsAssignedTo(agent))

	ticket.AssigneeID = &agent
	assert.True(t, ticket.IsAssignedTo(agent))
	assert.False(t, ticket.IsAssignedTo(uuid.New()))
}
