package analytics

import (
	"slices"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// activeTicket is the snapshot of a ticket that received replies in the window.
type activeTicket struct {
	categoryID     *string
	authorID       string
	assigneeID     *string
	status         domain.TicketStatus
	joinedAgentIDs []string
	replyCount     int64
}

// DailyRollup folds a window's replies into per-ticket activity. The result
// does not depend on the order replies are added in.
type DailyRollup struct {
	tickets map[int64]*activeTicket
}

// NewDailyRollup returns an empty rollup.
func NewDailyRollup() *DailyRollup {
	return &DailyRollup{tickets: make(map[int64]*activeTicket)}
}

// Add records one reply joined to its ticket.
func (r *DailyRollup) Add(item *domain.ReplyWithTicket) {
	if item == nil || item.Ticket == nil {
		return
	}
	ticket := item.Ticket

	info, ok := r.tickets[ticket.ID]
	if !ok {
		info = &activeTicket{
			categoryID: ticket.CategoryID,
			authorID:   ticket.AuthorID.String(),
			status:     ticket.Status,
		}
		if ticket.AssigneeID != nil {
			id := ticket.AssigneeID.String()
			info.assigneeID = &id
		}
		for _, agent := range ticket.JoinedAgentIDs {
			info.joinedAgentIDs = append(info.joinedAgentIDs, agent.String())
		}
		r.tickets[ticket.ID] = info
	}
	info.replyCount++
}

// Result builds the day's statistics row. Ticket ids are sorted ascending so
// repeated runs over the same data produce identical rows.
func (r *DailyRollup) Result(date time.Time) *domain.DailyStats {
	stats := &domain.DailyStats{
		Date:         date,
		TicketIDs:    make([]int64, 0, len(r.tickets)),
		Categories:   domain.CountMap{},
		Assignees:    domain.CountMap{},
		Authors:      domain.CountMap{},
		Statuses:     domain.CountMap{},
		JoinedAgents: domain.CountMap{},
	}

	for id, info := range r.tickets {
		stats.TicketIDs = append(stats.TicketIDs, id)
		stats.ReplyCount += info.replyCount

		if info.categoryID != nil {
			stats.Categories[*info.categoryID]++
		}
		if info.assigneeID != nil {
			stats.Assignees[*info.assigneeID]++
		}
		stats.Authors[info.authorID]++
		stats.Statuses[info.status.String()]++
		for _, agent := range info.joinedAgentIDs {
			stats.JoinedAgents[agent]++
		}
	}
	slices.Sort(stats.TicketIDs)

	return stats
}
