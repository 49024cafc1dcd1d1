package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification event types pushed over websocket connections.
const (
	NotificationTicketCreated       = "ticket_created"
	NotificationTicketAssigned      = "ticket_assigned"
	NotificationTicketStatusChanged = "ticket_status_changed"
	NotificationNewComment          = "new_comment"
	NotificationTicketResolved      = "ticket_resolved"
	NotificationTicketDeleted       = "ticket_deleted"
)

// Actor identifies who triggered a notification.
type Actor struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
}

// Notification is the wire payload delivered to websocket clients.
type Notification struct {
	Type        string    `json:"type"`
	TicketID    int64     `json:"ticket_id"`
	TicketTitle string    `json:"ticket_title"`
	Actor       Actor     `json:"actor"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// Outbound pairs a notification with its delivery targets. Exactly one of
// Users, Roles or Broadcast is set. Except applies to role and broadcast
// deliveries and never removes an explicit Users target.
type Outbound struct {
	Notification Notification
	Users        []uuid.UUID
	Roles        []Role
	Broadcast    bool
	Except       []uuid.UUID
}

func newNotification(typ string, t *Ticket, actor Actor, message string, now time.Time) Notification {
	return Notification{
		Type:        typ,
		TicketID:    t.ID,
		TicketTitle: t.Title,
		Actor:       actor,
		Message:     message,
		Timestamp:   now.UTC(),
	}
}

// TicketCreatedNotifications targets all staff so new work is visible
// immediately. The creator is not notified about their own ticket.
func TicketCreatedNotifications(t *Ticket, actor Actor, now time.Time) []Outbound {
	n := newNotification(NotificationTicketCreated, t, actor,
		fmt.Sprintf("New ticket #%d: %s", t.ID, t.Title), now)
	return []Outbound{{
		Notification: n,
		Roles:        []Role{RoleTechnician, RoleAdmin},
		Except:       []uuid.UUID{actor.ID},
	}}
}

// TicketAssignedNotifications tells the new assignee, and separately tells
// the creator unless they did the assigning themselves.
func TicketAssignedNotifications(t *Ticket, assigneeID uuid.UUID, actor Actor, now time.Time) []Outbound {
	out := []Outbound{{
		Notification: newNotification(NotificationTicketAssigned, t, actor,
			fmt.Sprintf("Ticket #%d has been assigned to you", t.ID), now),
		Users: []uuid.UUID{assigneeID},
	}}
	if t.CreatorID != actor.ID && t.CreatorID != assigneeID {
		out = append(out, Outbound{
			Notification: newNotification(NotificationTicketAssigned, t, actor,
				fmt.Sprintf("Ticket #%d has been assigned to a technician", t.ID), now),
			Users: []uuid.UUID{t.CreatorID},
		})
	}
	return out
}

// TicketStatusChangedNotifications targets the creator and the assignee,
// minus whoever made the change.
func TicketStatusChangedNotifications(t *Ticket, newStatus TicketStatus, actor Actor, now time.Time) []Outbound {
	n := newNotification(NotificationTicketStatusChanged, t, actor,
		fmt.Sprintf("Ticket #%d status changed to %s", t.ID, newStatus), now)
	users := interestedUsers(t, actor.ID)
	if len(users) == 0 {
		return nil
	}
	return []Outbound{{Notification: n, Users: users}}
}

// NewCommentNotifications targets the creator and the assignee, minus the
// commenter. Internal comments produce no notifications at all.
func NewCommentNotifications(t *Ticket, c *Comment, actor Actor, now time.Time) []Outbound {
	if c.IsInternal {
		return nil
	}
	n := newNotification(NotificationNewComment, t, actor,
		fmt.Sprintf("New comment on ticket #%d", t.ID), now)
	users := interestedUsers(t, actor.ID)
	if len(users) == 0 {
		return nil
	}
	return []Outbound{{Notification: n, Users: users}}
}

// TicketResolvedNotifications targets the creator so they can confirm the fix.
func TicketResolvedNotifications(t *Ticket, actor Actor, now time.Time) []Outbound {
	if t.CreatorID == actor.ID {
		return nil
	}
	n := newNotification(NotificationTicketResolved, t, actor,
		fmt.Sprintf("Ticket #%d has been resolved", t.ID), now)
	return []Outbound{{Notification: n, Users: []uuid.UUID{t.CreatorID}}}
}

// TicketDeletedNotifications broadcasts to every connected user except the
// deleter, since clients may be looking at the ticket when it disappears.
func TicketDeletedNotifications(t *Ticket, actor Actor, now time.Time) []Outbound {
	n := newNotification(NotificationTicketDeleted, t, actor,
		fmt.Sprintf("Ticket #%d has been deleted", t.ID), now)
	return []Outbound{{Notification: n, Broadcast: true, Except: []uuid.UUID{actor.ID}}}
}

// interestedUsers returns the creator and assignee with the actor removed
// and duplicates collapsed.
func interestedUsers(t *Ticket, actorID uuid.UUID) []uuid.UUID {
	var users []uuid.UUID
	if t.CreatorID != actorID {
		users = append(users, t.CreatorID)
	}
	if t.AssigneeID != nil && *t.AssigneeID != actorID && *t.AssigneeID != t.CreatorID {
		users = append(users, *t.AssigneeID)
	}
	return users
}
