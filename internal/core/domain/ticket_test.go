package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
)

func strPtr(s string) *string                          { return &s }
func statusPtr(s domain.TicketStatus) *domain.TicketStatus    { return &s }
func priorityPtr(p domain.TicketPriority) *domain.TicketPriority { return &p }

func openTicket(creator uuid.UUID) *domain.Ticket {
	return &domain.Ticket{
		ID:          1,
		Title:       "Printer broken",
		Description: "It smokes",
		Status:      domain.StatusOpen,
		Priority:    domain.PriorityMedium,
		CreatorID:   creator,
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
	}
}

func TestNewTicket(t *testing.T) {
	creator := uuid.New()

	t.Run("defaults to open and medium priority", func(t *testing.T) {
		ticket, err := domain.NewTicket("Help", "desc", "", nil, creator)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, ticket.Status)
		assert.Equal(t, domain.PriorityMedium, ticket.Priority)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := domain.NewTicket("", "desc", domain.PriorityLow, nil, creator)
		assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		_, err := domain.NewTicket("Help", "desc", "sev1", nil, creator)
		assert.ErrorIs(t, err, apperrors.ErrInvalidPriority)
	})

	t.Run("rejects missing creator", func(t *testing.T) {
		_, err := domain.NewTicket("Help", "desc", domain.PriorityLow, nil, uuid.Nil)
		assert.ErrorIs(t, err, apperrors.ErrCreatorRequired)
	})
}

func TestTicket_ApplyUpdate_UserRestrictions(t *testing.T) {
	creator := uuid.New()
	now := time.Now().UTC()

	t.Run("user may edit title description priority while open", func(t *testing.T) {
		ticket := openTicket(creator)
		changes, err := ticket.ApplyUpdate(domain.TicketUpdate{
			Title:    strPtr("Printer on fire"),
			Priority: priorityPtr(domain.PriorityUrgent),
		}, domain.RoleUser, now)
		require.NoError(t, err)
		assert.Len(t, changes, 2)
		assert.Equal(t, "Printer on fire", ticket.Title)
		assert.Equal(t, domain.PriorityUrgent, ticket.Priority)
	})

	t.Run("restricted fields are dropped silently, not rejected", func(t *testing.T) {
		ticket := openTicket(creator)
		changes, err := ticket.ApplyUpdate(domain.TicketUpdate{
			Title:  strPtr("New title"),
			Status: statusPtr(domain.StatusClosed),
		}, domain.RoleUser, now)
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, "title", changes[0].Field)
		assert.Equal(t, domain.StatusOpen, ticket.Status)
	})

	t.Run("user edit rejected once ticket leaves open or waiting_user", func(t *testing.T) {
		ticket := openTicket(creator)
		ticket.Status = domain.StatusInProgress
		_, err := ticket.ApplyUpdate(domain.TicketUpdate{Title: strPtr("x")}, domain.RoleUser, now)
		assert.ErrorIs(t, err, apperrors.ErrTicketLocked)
	})

	t.Run("user may still edit while waiting_user", func(t *testing.T) {
		ticket := openTicket(creator)
		ticket.Status = domain.StatusWaitingUser
		changes, err := ticket.ApplyUpdate(domain.TicketUpdate{Description: strPtr("more detail")}, domain.RoleUser, now)
		require.NoError(t, err)
		assert.Len(t, changes, 1)
	})
}

func TestTicket_ApplyUpdate_Staff(t *testing.T) {
	creator := uuid.New()
	tech := uuid.New()
	now := time.Now().UTC()

	t.Run("technician may change any field", func(t *testing.T) {
		ticket := openTicket(creator)
		changes, err := ticket.ApplyUpdate(domain.TicketUpdate{
			Status:     statusPtr(domain.StatusInProgress),
			AssigneeID: &tech,
			Solution:   strPtr("replaced toner"),
		}, domain.RoleTechnician, now)
		require.NoError(t, err)
		assert.Len(t, changes, 3)
		require.NotNil(t, ticket.AssigneeID)
		assert.Equal(t, tech, *ticket.AssigneeID)
	})

	t.Run("resolved stamps resolvedAt", func(t *testing.T) {
		ticket := openTicket(creator)
		_, err := ticket.ApplyUpdate(domain.TicketUpdate{Status: statusPtr(domain.StatusResolved)}, domain.RoleTechnician, now)
		require.NoError(t, err)
		require.NotNil(t, ticket.ResolvedAt)
		assert.Equal(t, now, *ticket.ResolvedAt)
		assert.Nil(t, ticket.ClosedAt)
	})

	t.Run("closed stamps closedAt", func(t *testing.T) {
		ticket := openTicket(creator)
		_, err := ticket.ApplyUpdate(domain.TicketUpdate{Status: statusPtr(domain.StatusClosed)}, domain.RoleAdmin, now)
		require.NoError(t, err)
		require.NotNil(t, ticket.ClosedAt)
	})

	t.Run("reopening clears both stamps", func(t *testing.T) {
		ticket := openTicket(creator)
		_, err := ticket.ApplyUpdate(domain.TicketUpdate{Status: statusPtr(domain.StatusResolved)}, domain.RoleTechnician, now)
		require.NoError(t, err)
		_, err = ticket.ApplyUpdate(domain.TicketUpdate{Status: statusPtr(domain.StatusReopened)}, domain.RoleTechnician, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Nil(t, ticket.ResolvedAt)
		assert.Nil(t, ticket.ClosedAt)
	})

	t.Run("nil assignee pointer clears assignment", func(t *testing.T) {
		ticket := openTicket(creator)
		ticket.AssigneeID = &tech
		nilID := uuid.Nil
		changes, err := ticket.ApplyUpdate(domain.TicketUpdate{AssigneeID: &nilID}, domain.RoleAdmin, now)
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Nil(t, ticket.AssigneeID)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		ticket := openTicket(creator)
		_, err := ticket.ApplyUpdate(domain.TicketUpdate{Status: statusPtr("escalated")}, domain.RoleAdmin, now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
	})
}

func TestTicket_ApplyUpdate_Idempotence(t *testing.T) {
	creator := uuid.New()
	now := time.Now().UTC()

	t.Run("re-sending the same values yields no changes", func(t *testing.T) {
		ticket := openTicket(creator)
		before := ticket.UpdatedAt
		changes, err := ticket.ApplyUpdate(domain.TicketUpdate{
			Title:  strPtr(ticket.Title),
			Status: statusPtr(ticket.Status),
		}, domain.RoleAdmin, now)
		require.NoError(t, err)
		assert.Empty(t, changes)
		assert.Equal(t, before, ticket.UpdatedAt)
	})

	t.Run("same status does not re-stamp resolvedAt", func(t *testing.T) {
		ticket := openTicket(creator)
		_, err := ticket.ApplyUpdate(domain.TicketUpdate{Status: statusPtr(domain.StatusResolved)}, domain.RoleAdmin, now)
		require.NoError(t, err)
		first := *ticket.ResolvedAt
		changes, err := ticket.ApplyUpdate(domain.TicketUpdate{Status: statusPtr(domain.StatusResolved)}, domain.RoleAdmin, now.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, changes)
		assert.Equal(t, first, *ticket.ResolvedAt)
	})
}

func TestScopeFor(t *testing.T) {
	actor := uuid.New()

	t.Run("user scope pins creator", func(t *testing.T) {
		scope := domain.ScopeFor(actor, domain.RoleUser)
		require.NotNil(t, scope.CreatorID)
		assert.Equal(t, actor, *scope.CreatorID)
		assert.Nil(t, scope.AssigneeID)
	})

	t.Run("technician scope pins assignee", func(t *testing.T) {
		scope := domain.ScopeFor(actor, domain.RoleTechnician)
		require.NotNil(t, scope.AssigneeID)
		assert.Equal(t, actor, *scope.AssigneeID)
		assert.Nil(t, scope.CreatorID)
	})

	t.Run("admin scope is unrestricted", func(t *testing.T) {
		scope := domain.ScopeFor(actor, domain.RoleAdmin)
		assert.Nil(t, scope.CreatorID)
		assert.Nil(t, scope.AssigneeID)
	})
}
