package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

func createTestTicket(t *testing.T, ctx context.Context, repo ports.TicketRepository, creatorID uuid.UUID, mutate func(*domain.Ticket)) *domain.Ticket {
	t.Helper()

	ticket, err := domain.NewTicket("Printer on fire", "It is very much on fire", domain.PriorityMedium, nil, creatorID)
	require.NoError(t, err)
	if mutate != nil {
		mutate(ticket)
	}

	created, err := repo.Create(ctx, ticket)
	require.NoError(t, err)
	return created
}

func TestTicketRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	creator := createTestUser(t, ctx, userRepo, domain.RoleUser)
	created := createTestTicket(t, ctx, ticketRepo, creator.ID, nil)
	assert.NotZero(t, created.ID)

	found, err := ticketRepo.GetByID(ctx, created.ID)
	require.NoError(t, err, "Failed to get ticket by ID")
	assert.Equal(t, "Printer on fire", found.Title)
	assert.Equal(t, domain.StatusOpen, found.Status)
	assert.Equal(t, domain.PriorityMedium, found.Priority)
	assert.Equal(t, creator.ID, found.CreatorID)
	assert.Nil(t, found.AssigneeID)
}

func TestTicketRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	ticketRepo, _ := newTestRepos(t)

	_, err := ticketRepo.GetByID(ctx, 99999999)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketRepository_List_CreatorScope(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	alice := createTestUser(t, ctx, userRepo, domain.RoleUser)
	bob := createTestUser(t, ctx, userRepo, domain.RoleUser)

	mine := createTestTicket(t, ctx, ticketRepo, alice.ID, nil)
	createTestTicket(t, ctx, ticketRepo, bob.ID, nil)

	scope := domain.ScopeFor(alice.ID, domain.RoleUser)
	tickets, err := ticketRepo.List(ctx, domain.TicketFilter{}, scope)
	require.NoError(t, err)

	require.Len(t, tickets, 1)
	assert.Equal(t, mine.ID, tickets[0].ID)

	count, err := ticketRepo.Count(ctx, domain.TicketFilter{}, scope)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestTicketRepository_List_ScopeCannotBeWidened(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	alice := createTestUser(t, ctx, userRepo, domain.RoleUser)
	bob := createTestUser(t, ctx, userRepo, domain.RoleUser)
	createTestTicket(t, ctx, ticketRepo, bob.ID, nil)

	// An explicit creator filter for someone else still ANDs with the
	// caller's own scope, so nothing leaks.
	scope := domain.ScopeFor(alice.ID, domain.RoleUser)
	filter := domain.TicketFilter{CreatorID: &bob.ID}

	tickets, err := ticketRepo.List(ctx, filter, scope)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestTicketRepository_List_AssigneeScope(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	creator := createTestUser(t, ctx, userRepo, domain.RoleUser)
	tech := createTestUser(t, ctx, userRepo, domain.RoleTechnician)

	assigned := createTestTicket(t, ctx, ticketRepo, creator.ID, func(tk *domain.Ticket) {
		tk.AssigneeID = &tech.ID
	})
	createTestTicket(t, ctx, ticketRepo, creator.ID, nil)

	scope := domain.ScopeFor(tech.ID, domain.RoleTechnician)
	tickets, err := ticketRepo.List(ctx, domain.TicketFilter{}, scope)
	require.NoError(t, err)

	require.Len(t, tickets, 1)
	assert.Equal(t, assigned.ID, tickets[0].ID)
}

func TestTicketRepository_List_StatusAndSearch(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	creator := createTestUser(t, ctx, userRepo, domain.RoleUser)

	marker := uuid.NewString()[:8]
	createTestTicket(t, ctx, ticketRepo, creator.ID, func(tk *domain.Ticket) {
		tk.Title = "VPN drops " + marker
		tk.Status = domain.StatusInProgress
	})
	createTestTicket(t, ctx, ticketRepo, creator.ID, func(tk *domain.Ticket) {
		tk.Description = "mentions " + marker + " in the body"
	})
	createTestTicket(t, ctx, ticketRepo, creator.ID, nil)

	scope := domain.ScopeFor(creator.ID, domain.RoleUser)

	status := domain.StatusInProgress
	byStatus, err := ticketRepo.List(ctx, domain.TicketFilter{Status: &status}, scope)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Contains(t, byStatus[0].Title, "VPN drops")

	// Search matches title and description.
	bySearch, err := ticketRepo.List(ctx, domain.TicketFilter{Search: marker}, scope)
	require.NoError(t, err)
	assert.Len(t, bySearch, 2)
}

func TestTicketRepository_List_Pagination(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	creator := createTestUser(t, ctx, userRepo, domain.RoleUser)
	for i := 0; i < 5; i++ {
		createTestTicket(t, ctx, ticketRepo, creator.ID, nil)
	}

	scope := domain.ScopeFor(creator.ID, domain.RoleUser)

	page1, err := ticketRepo.List(ctx, domain.TicketFilter{Limit: 2}, scope)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page3, err := ticketRepo.List(ctx, domain.TicketFilter{Limit: 2, Offset: 4}, scope)
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	count, err := ticketRepo.Count(ctx, domain.TicketFilter{}, scope)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestTicketRepository_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	creator := createTestUser(t, ctx, userRepo, domain.RoleUser)
	tech := createTestUser(t, ctx, userRepo, domain.RoleTechnician)
	created := createTestTicket(t, ctx, ticketRepo, creator.ID, nil)

	created.Status = domain.StatusInProgress
	created.AssigneeID = &tech.ID

	updated, err := ticketRepo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, tech.ID, *updated.AssigneeID)

	require.NoError(t, ticketRepo.Delete(ctx, created.ID))

	err = ticketRepo.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}
