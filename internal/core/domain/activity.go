package domain

import (
	"time"

	"github.com/google/uuid"
)

// Activity is an audit log entry for a ticket. One row per changed field.
type Activity struct {
	ID        int64
	TicketID  int64
	ActorID   uuid.UUID
	Action    string
	Field     string
	OldValue  string
	NewValue  string
	CreatedAt time.Time
}

// Activity actions.
const (
	ActivityCreated    = "created"
	ActivityUpdated    = "updated"
	ActivityCommented  = "commented"
	ActivityAttached   = "attached_file"
	ActivityEvaluated  = "evaluated"
)

// ActivitiesFromChanges expands a change set into one audit row per field,
// all stamped with the same instant.
func ActivitiesFromChanges(ticketID int64, actorID uuid.UUID, changes []FieldChange, now time.Time) []Activity {
	out := make([]Activity, 0, len(changes))
	for _, c := range changes {
		out = append(out, Activity{
			TicketID:  ticketID,
			ActorID:   actorID,
			Action:    ActivityUpdated,
			Field:     c.Field,
			OldValue:  c.OldValue,
			NewValue:  c.NewValue,
			CreatedAt: now.UTC(),
		})
	}
	return out
}
