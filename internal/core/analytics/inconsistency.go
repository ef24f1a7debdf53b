// Package analytics replays ticket timelines and folds reply activity into
// daily and range statistics. Everything here is pure: callers fetch the
// data, the functions in this package only compute.
package analytics

import (
	"fmt"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
)

// Inconsistency describes a timeline event that could not be applied as recorded.
type Inconsistency struct {
	TicketID int64
	EventID  int64
	Kind     domain.EventKind
	Action   domain.OpsAction
	Reason   string
}

func (i Inconsistency) Error() string {
	if i.Kind == "" {
		return fmt.Sprintf("ticket %d: %s", i.TicketID, i.Reason)
	}
	if i.Kind == domain.EventOpsLog {
		return fmt.Sprintf("ticket %d: %s %d (%s): %s", i.TicketID, i.Kind, i.EventID, i.Action, i.Reason)
	}
	return fmt.Sprintf("ticket %d: %s %d: %s", i.TicketID, i.Kind, i.EventID, i.Reason)
}

func (i Inconsistency) Unwrap() error {
	return apperrors.ErrDataInconsistency
}

func newInconsistency(ticketID int64, ev domain.TimelineEvent, reason string) *Inconsistency {
	inc := &Inconsistency{
		TicketID: ticketID,
		EventID:  ev.ID(),
		Kind:     ev.Kind,
		Reason:   reason,
	}
	if ev.Kind == domain.EventOpsLog {
		inc.Action = ev.OpsLog.Action
	}
	return inc
}

// elapsed returns to - from, never negative.
func elapsed(from, to time.Time) time.Duration {
	if d := to.Sub(from); d > 0 {
		return d
	}
	return 0
}
