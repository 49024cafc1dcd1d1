package domain

import "github.com/google/uuid"

// TicketFilter carries the explicit list filters requested by the caller.
// Visibility scoping by role is applied on top of these, never instead.
type TicketFilter struct {
	Status     *TicketStatus
	Priority   *TicketPriority
	CategoryID *int64
	AssigneeID *uuid.UUID
	CreatorID  *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

// VisibilityScope is the role-derived restriction ANDed with any explicit
// filters at query time. Nil fields impose no restriction.
type VisibilityScope struct {
	CreatorID  *uuid.UUID
	AssigneeID *uuid.UUID
}

// ScopeFor computes the visible-ticket restriction for an actor. Users see
// tickets they created, technicians see tickets assigned to them, admins see
// everything. The role has already been normalized by ParseRole, so an
// unknown value can only arrive here as RoleUser.
func ScopeFor(actorID uuid.UUID, role Role) VisibilityScope {
	switch role {
	case RoleAdmin:
		return VisibilityScope{}
	case RoleTechnician:
		id := actorID
		return VisibilityScope{AssigneeID: &id}
	default:
		id := actorID
		return VisibilityScope{CreatorID: &id}
	}
}

// CanView reports whether the actor may read the ticket and its comments
// and attachments.
func (t *Ticket) CanView(actorID uuid.UUID, role Role) bool {
	if role.IsStaff() {
		return true
	}
	return t.CreatorID == actorID
}

// CanEdit reports whether the actor may attempt a mutation at all. Field
// level restrictions are enforced separately by ApplyUpdate.
func (t *Ticket) CanEdit(actorID uuid.UUID, role Role) bool {
	if role.IsStaff() {
		return true
	}
	return t.CreatorID == actorID
}
