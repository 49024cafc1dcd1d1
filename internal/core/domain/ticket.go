package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
)

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	StatusOpen        TicketStatus = "open"
	StatusInProgress  TicketStatus = "in_progress"
	StatusWaitingUser TicketStatus = "waiting_user"
	StatusResolved    TicketStatus = "resolved"
	StatusClosed      TicketStatus = "closed"
	StatusReopened    TicketStatus = "reopened"
)

// TicketPriority represents the urgency of a ticket.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "low"
	PriorityMedium   TicketPriority = "medium"
	PriorityHigh     TicketPriority = "high"
	PriorityUrgent   TicketPriority = "urgent"
	PriorityCritical TicketPriority = "critical"
)

// ValidStatus reports whether s is a known ticket status.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusWaitingUser, StatusResolved, StatusClosed, StatusReopened:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known ticket priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent, PriorityCritical:
		return true
	}
	return false
}

const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 10000
)

// Ticket is the core domain entity.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Solution    string
	Status      TicketStatus
	Priority    TicketPriority
	CategoryID  *int64
	CreatorID   uuid.UUID
	AssigneeID  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	ResolvedAt  *time.Time
	ClosedAt    *time.Time
}

// NewTicket is a factory function to create a valid new ticket.
func NewTicket(title, description string, priority TicketPriority, categoryID *int64, creatorID uuid.UUID) (*Ticket, error) {
	if title == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if len(title) > MaxTitleLength {
		return nil, apperrors.ErrTitleTooLong
	}
	if len(description) > MaxDescriptionLength {
		return nil, apperrors.ErrDescriptionTooLong
	}
	if creatorID == uuid.Nil {
		return nil, apperrors.ErrCreatorRequired
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !ValidPriority(priority) {
		return nil, apperrors.ErrInvalidPriority
	}

	return &Ticket{
		Title:       title,
		Description: description,
		Status:      StatusOpen,
		Priority:    priority,
		CategoryID:  categoryID,
		CreatorID:   creatorID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// TicketUpdate is a partial update. Nil fields are left untouched.
// AssigneeID pointing at uuid.Nil clears the assignment.
type TicketUpdate struct {
	Title       *string
	Description *string
	Solution    *string
	Status      *TicketStatus
	Priority    *TicketPriority
	CategoryID  *int64
	AssigneeID  *uuid.UUID
}

// FieldChange records a single field transition for the activity log.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// userEditableStatuses are the only states in which a plain user may still
// edit their own ticket.
func userMayEdit(s TicketStatus) bool {
	return s == StatusOpen || s == StatusWaitingUser
}

// ApplyUpdate mutates the ticket according to the caller's role and returns
// the list of fields that actually changed. Plain users may only touch title,
// description and priority, and only while the ticket is open or waiting on
// them; any other patch fields they send are dropped, not rejected. Staff may
// change every field. An update that changes nothing returns an empty slice
// and leaves UpdatedAt alone.
func (t *Ticket) ApplyUpdate(patch TicketUpdate, role Role, now time.Time) ([]FieldChange, error) {
	if !role.IsStaff() {
		if !userMayEdit(t.Status) {
			return nil, apperrors.ErrTicketLocked
		}
		patch.Solution = nil
		patch.Status = nil
		patch.CategoryID = nil
		patch.AssigneeID = nil
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, apperrors.ErrTitleRequired
		}
		if len(*patch.Title) > MaxTitleLength {
			return nil, apperrors.ErrTitleTooLong
		}
	}
	if patch.Description != nil && len(*patch.Description) > MaxDescriptionLength {
		return nil, apperrors.ErrDescriptionTooLong
	}
	if patch.Priority != nil && !ValidPriority(*patch.Priority) {
		return nil, apperrors.ErrInvalidPriority
	}
	if patch.Status != nil && !ValidStatus(*patch.Status) {
		return nil, apperrors.ErrInvalidStatus
	}

	var changes []FieldChange

	if patch.Title != nil && *patch.Title != t.Title {
		changes = append(changes, FieldChange{Field: "title", OldValue: t.Title, NewValue: *patch.Title})
		t.Title = *patch.Title
	}
	if patch.Description != nil && *patch.Description != t.Description {
		changes = append(changes, FieldChange{Field: "description", OldValue: t.Description, NewValue: *patch.Description})
		t.Description = *patch.Description
	}
	if patch.Solution != nil && *patch.Solution != t.Solution {
		changes = append(changes, FieldChange{Field: "solution", OldValue: t.Solution, NewValue: *patch.Solution})
		t.Solution = *patch.Solution
	}
	if patch.Priority != nil && *patch.Priority != t.Priority {
		changes = append(changes, FieldChange{Field: "priority", OldValue: string(t.Priority), NewValue: string(*patch.Priority)})
		t.Priority = *patch.Priority
	}
	if patch.Status != nil && *patch.Status != t.Status {
		changes = append(changes, FieldChange{Field: "status", OldValue: string(t.Status), NewValue: string(*patch.Status)})
		t.setStatus(*patch.Status, now)
	}
	if patch.CategoryID != nil && !int64PtrEq(patch.CategoryID, t.CategoryID) {
		changes = append(changes, FieldChange{Field: "category_id", OldValue: formatInt64Ptr(t.CategoryID), NewValue: formatInt64Ptr(patch.CategoryID)})
		t.CategoryID = patch.CategoryID
	}
	if patch.AssigneeID != nil {
		var newAssignee *uuid.UUID
		if *patch.AssigneeID != uuid.Nil {
			newAssignee = patch.AssigneeID
		}
		if !uuidPtrEq(newAssignee, t.AssigneeID) {
			changes = append(changes, FieldChange{Field: "assignee_id", OldValue: formatUUIDPtr(t.AssigneeID), NewValue: formatUUIDPtr(newAssignee)})
			t.AssigneeID = newAssignee
		}
	}

	if len(changes) > 0 {
		ts := now.UTC()
		t.UpdatedAt = &ts
	}
	return changes, nil
}

// setStatus applies the resolution and closure timestamps that come with
// terminal states. Reopening clears them.
func (t *Ticket) setStatus(s TicketStatus, now time.Time) {
	t.Status = s
	ts := now.UTC()
	switch s {
	case StatusResolved:
		t.ResolvedAt = &ts
	case StatusClosed:
		t.ClosedAt = &ts
	case StatusReopened:
		t.ResolvedAt = nil
		t.ClosedAt = nil
	}
}

// AssigneeChange reports whether an update included an assignment to a new,
// non-empty assignee.
func AssigneeChanged(changes []FieldChange) (string, bool) {
	for _, c := range changes {
		if c.Field == "assignee_id" && c.NewValue != "" {
			return c.NewValue, true
		}
	}
	return "", false
}

// StatusChanged returns the new status if the change set includes one.
func StatusChanged(changes []FieldChange) (TicketStatus, bool) {
	for _, c := range changes {
		if c.Field == "status" {
			return TicketStatus(c.NewValue), true
		}
	}
	return "", false
}

func int64PtrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func uuidPtrEq(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func formatInt64Ptr(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func formatUUIDPtr(v *uuid.UUID) string {
	if v == nil {
		return ""
	}
	return v.String()
}
