package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/mocks"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
	"github.com/hdesk/helpdesk-backend/internal/core/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ticketServiceFixture struct {
	ticketRepo     *mocks.MockTicketRepository
	userRepo       *mocks.MockUserRepository
	activityRepo   *mocks.MockActivityRepository
	attachmentRepo *mocks.MockAttachmentRepository
	txManager      *mocks.MockTransactionManager
	pusher         *mocks.MockNotificationPusher
	notifier       *mocks.MockNotifier
	fileStore      *mocks.MockFileStore
	svc            ports.TicketService
}

func newTicketServiceFixture() *ticketServiceFixture {
	f := &ticketServiceFixture{
		ticketRepo:     mocks.NewMockTicketRepository(),
		userRepo:       mocks.NewMockUserRepository(),
		activityRepo:   mocks.NewMockActivityRepository(),
		attachmentRepo: mocks.NewMockAttachmentRepository(),
		txManager:      mocks.NewMockTransactionManager(),
		pusher:         mocks.NewMockNotificationPusher(),
		notifier:       mocks.NewMockNotifier(),
		fileStore:      mocks.NewMockFileStore(),
	}
	f.svc = services.NewTicketService(
		f.ticketRepo, f.userRepo, f.activityRepo, f.attachmentRepo,
		f.txManager, f.pusher, f.notifier, f.fileStore, discardLogger(),
	)
	return f
}

func userIdentity(id uuid.UUID, username string) ports.Identity {
	return ports.Identity{UserID: id, Username: username, Role: domain.RoleUser}
}

func techIdentity(id uuid.UUID, username string) ports.Identity {
	return ports.Identity{UserID: id, Username: username, Role: domain.RoleTechnician}
}

func adminIdentity(id uuid.UUID, username string) ports.Identity {
	return ports.Identity{UserID: id, Username: username, Role: domain.RoleAdmin}
}

func anyTx() interface{} {
	return mock.AnythingOfType("func(context.Context) error")
}

func TestTicketService_CreateTicket(t *testing.T) {
	ctx := context.Background()
	alice := uuid.New()

	t.Run("success writes ticket and created activity in one tx", func(t *testing.T) {
		f := newTicketServiceFixture()

		f.txManager.On("WithTransaction", ctx, anyTx()).Return(nil)
		f.ticketRepo.On("Create", ctx, mock.AnythingOfType("*domain.Ticket")).
			Return(&domain.Ticket{
				ID:        1,
				Title:     "Printer broken",
				Status:    domain.StatusOpen,
				Priority:  domain.PriorityMedium,
				CreatorID: alice,
			}, nil)
		f.activityRepo.On("Append", ctx, mock.MatchedBy(func(acts []domain.Activity) bool {
			return len(acts) == 1 && acts[0].Action == domain.ActivityCreated && acts[0].TicketID == 1
		})).Return(nil)
		f.userRepo.On("GetByID", ctx, alice).
			Return(&domain.User{ID: alice, Username: "alice", FullName: "Alice A"}, nil)
		f.pusher.On("SendToRole", domain.RoleTechnician, mock.Anything, mock.Anything).Return()
		f.pusher.On("SendToRole", domain.RoleAdmin, mock.Anything, mock.Anything).Return()

		ticket, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title: "Printer broken",
			Actor: userIdentity(alice, "alice"),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), ticket.ID)
		f.ticketRepo.AssertExpectations(t)
		f.activityRepo.AssertExpectations(t)
		f.pusher.AssertExpectations(t)
	})

	t.Run("validation error for empty title", func(t *testing.T) {
		f := newTicketServiceFixture()

		ticket, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title: "",
			Actor: userIdentity(alice, "alice"),
		})

		assert.Nil(t, ticket)
		assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
		f.ticketRepo.AssertNotCalled(t, "Create")
	})

	t.Run("plain user cannot pre-assign", func(t *testing.T) {
		f := newTicketServiceFixture()
		bob := uuid.New()

		f.txManager.On("WithTransaction", ctx, anyTx()).Return(nil)
		f.ticketRepo.On("Create", ctx, mock.MatchedBy(func(tk *domain.Ticket) bool {
			return tk.AssigneeID == nil
		})).Return(&domain.Ticket{ID: 2, Title: "x", CreatorID: alice, Status: domain.StatusOpen}, nil)
		f.activityRepo.On("Append", ctx, mock.Anything).Return(nil)
		f.userRepo.On("GetByID", ctx, alice).Return(&domain.User{ID: alice, FullName: "Alice"}, nil)
		f.pusher.On("SendToRole", mock.Anything, mock.Anything, mock.Anything).Return()

		_, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:      "x",
			AssigneeID: &bob,
			Actor:      userIdentity(alice, "alice"),
		})

		require.NoError(t, err)
		f.ticketRepo.AssertExpectations(t)
	})

	t.Run("staff pre-assignment requires a staff assignee", func(t *testing.T) {
		f := newTicketServiceFixture()
		target := uuid.New()
		admin := uuid.New()

		f.userRepo.On("GetByID", ctx, target).
			Return(&domain.User{ID: target, Role: domain.RoleUser, IsActive: true}, nil)

		_, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:      "x",
			AssigneeID: &target,
			Actor:      adminIdentity(admin, "root"),
		})

		assert.ErrorIs(t, err, apperrors.ErrAssigneeNotStaff)
		f.ticketRepo.AssertNotCalled(t, "Create")
	})
}

func TestTicketService_GetTicket(t *testing.T) {
	ctx := context.Background()
	alice := uuid.New()
	mallory := uuid.New()

	t.Run("creator can read own ticket", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("GetByID", ctx, int64(1)).
			Return(&domain.Ticket{ID: 1, CreatorID: alice, Status: domain.StatusOpen}, nil)

		ticket, err := f.svc.GetTicket(ctx, 1, userIdentity(alice, "alice"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), ticket.ID)
	})

	t.Run("unrelated user is forbidden", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("GetByID", ctx, int64(1)).
			Return(&domain.Ticket{ID: 1, CreatorID: alice, Status: domain.StatusOpen}, nil)

		_, err := f.svc.GetTicket(ctx, 1, userIdentity(mallory, "mallory"))
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("staff can read any ticket", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("GetByID", ctx, int64(1)).
			Return(&domain.Ticket{ID: 1, CreatorID: alice, Status: domain.StatusOpen}, nil)

		_, err := f.svc.GetTicket(ctx, 1, techIdentity(mallory, "bob"))
		assert.NoError(t, err)
	})

	t.Run("not found propagates", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("GetByID", ctx, int64(99)).Return(nil, apperrors.ErrTicketNotFound)

		_, err := f.svc.GetTicket(ctx, 99, userIdentity(alice, "alice"))
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})
}

func TestTicketService_ListTickets(t *testing.T) {
	ctx := context.Background()
	alice := uuid.New()

	t.Run("user listing is scoped to creator", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("List", ctx, mock.Anything, mock.MatchedBy(func(scope domain.VisibilityScope) bool {
			return scope.CreatorID != nil && *scope.CreatorID == alice
		})).Return([]*domain.Ticket{{ID: 1, CreatorID: alice}}, nil)
		f.ticketRepo.On("Count", ctx, mock.Anything, mock.Anything).Return(int64(1), nil)

		tickets, total, err := f.svc.ListTickets(ctx, ports.ListTicketsParams{Actor: userIdentity(alice, "alice")})
		require.NoError(t, err)
		assert.Len(t, tickets, 1)
		assert.Equal(t, int64(1), total)
		f.ticketRepo.AssertExpectations(t)
	})

	t.Run("repository fault degrades to empty page", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("List", ctx, mock.Anything, mock.Anything).
			Return(nil, errors.New("connection refused"))

		tickets, total, err := f.svc.ListTickets(ctx, ports.ListTicketsParams{Actor: userIdentity(alice, "alice")})
		require.NoError(t, err)
		assert.Empty(t, tickets)
		assert.Zero(t, total)
	})
}

func TestTicketService_UpdateTicket(t *testing.T) {
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	titlePatch := func(s string) domain.TicketUpdate {
		return domain.TicketUpdate{Title: &s}
	}

	t.Run("no-op update skips transaction and notifications", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("GetByID", ctx, int64(1)).
			Return(&domain.Ticket{ID: 1, Title: "same", CreatorID: alice, Status: domain.StatusOpen}, nil)

		ticket, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID: 1,
			Patch:    titlePatch("same"),
			Actor:    userIdentity(alice, "alice"),
		})

		require.NoError(t, err)
		assert.Equal(t, "same", ticket.Title)
		f.txManager.AssertNotCalled(t, "WithTransaction")
		f.activityRepo.AssertNotCalled(t, "Append")
		f.pusher.AssertNotCalled(t, "SendToUser")
	})

	t.Run("user edit on locked status is rejected", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("GetByID", ctx, int64(1)).
			Return(&domain.Ticket{ID: 1, Title: "t", CreatorID: alice, Status: domain.StatusResolved}, nil)

		_, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID: 1,
			Patch:    titlePatch("new"),
			Actor:    userIdentity(alice, "alice"),
		})

		assert.ErrorIs(t, err, apperrors.ErrTicketLocked)
		f.ticketRepo.AssertNotCalled(t, "Update")
	})

	t.Run("status change to resolved fans out status and resolved messages", func(t *testing.T) {
		f := newTicketServiceFixture()
		status := domain.StatusResolved
		ticket := &domain.Ticket{ID: 1, Title: "t", CreatorID: alice, AssigneeID: &bob, Status: domain.StatusInProgress}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)
		f.txManager.On("WithTransaction", ctx, anyTx()).Return(nil)
		f.ticketRepo.On("Update", ctx, mock.AnythingOfType("*domain.Ticket")).Return(ticket, nil)
		f.activityRepo.On("Append", ctx, mock.MatchedBy(func(acts []domain.Activity) bool {
			return len(acts) == 1 && acts[0].Field == "status"
		})).Return(nil)
		f.userRepo.On("GetByID", ctx, bob).
			Return(&domain.User{ID: bob, Username: "bob", FullName: "Bob B"}, nil)
		// alice gets the status change and the resolution, bob is excluded as actor
		f.pusher.On("SendToUser", alice, mock.Anything).Return().Twice()

		_, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID: 1,
			Patch:    domain.TicketUpdate{Status: &status},
			Actor:    techIdentity(bob, "bob"),
		})

		require.NoError(t, err)
		f.pusher.AssertExpectations(t)
		f.pusher.AssertNotCalled(t, "SendToUser", bob, mock.Anything)
	})

	t.Run("assignment notifies assignee and emails them", func(t *testing.T) {
		f := newTicketServiceFixture()
		admin := uuid.New()
		ticket := &domain.Ticket{ID: 1, Title: "t", CreatorID: alice, Status: domain.StatusOpen}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)
		f.userRepo.On("GetByID", ctx, bob).
			Return(&domain.User{ID: bob, Role: domain.RoleTechnician, IsActive: true}, nil)
		f.txManager.On("WithTransaction", ctx, anyTx()).Return(nil)
		f.ticketRepo.On("Update", ctx, mock.AnythingOfType("*domain.Ticket")).Return(ticket, nil)
		f.activityRepo.On("Append", ctx, mock.Anything).Return(nil)
		f.userRepo.On("GetByID", ctx, admin).
			Return(&domain.User{ID: admin, Username: "root", FullName: "Root"}, nil)
		f.pusher.On("SendToUser", bob, mock.Anything).Return()
		f.pusher.On("SendToUser", alice, mock.Anything).Return()
		f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(p ports.NotificationParams) bool {
			return p.RecipientUserID == bob && p.TicketID == 1
		})).Return()

		_, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID: 1,
			Patch:    domain.TicketUpdate{AssigneeID: &bob},
			Actor:    adminIdentity(admin, "root"),
		})

		require.NoError(t, err)
		f.pusher.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("transaction failure surfaces and skips notifications", func(t *testing.T) {
		f := newTicketServiceFixture()
		status := domain.StatusClosed
		ticket := &domain.Ticket{ID: 1, Title: "t", CreatorID: alice, Status: domain.StatusOpen}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)
		f.txManager.On("WithTransaction", ctx, anyTx()).Return(errors.New("deadlock"))

		_, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID: 1,
			Patch:    domain.TicketUpdate{Status: &status},
			Actor:    adminIdentity(uuid.New(), "root"),
		})

		assert.Error(t, err)
		f.pusher.AssertNotCalled(t, "SendToUser")
	})
}

func TestTicketService_DeleteTicket(t *testing.T) {
	ctx := context.Background()
	alice := uuid.New()
	admin := uuid.New()

	t.Run("only admins may delete", func(t *testing.T) {
		f := newTicketServiceFixture()

		err := f.svc.DeleteTicket(ctx, 1, techIdentity(alice, "bob"))
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		f.ticketRepo.AssertNotCalled(t, "Delete")
	})

	t.Run("delete broadcasts to everyone but the deleter", func(t *testing.T) {
		f := newTicketServiceFixture()
		ticket := &domain.Ticket{ID: 1, Title: "t", CreatorID: alice}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)
		f.attachmentRepo.On("ListByTicket", ctx, int64(1)).
			Return([]*domain.Attachment{{ID: 5, StoredName: "abc_file.txt"}}, nil)
		f.ticketRepo.On("Delete", ctx, int64(1)).Return(nil)
		f.fileStore.On("Delete", ctx, "abc_file.txt").Return(nil)
		f.userRepo.On("GetByID", ctx, admin).Return(&domain.User{ID: admin, FullName: "Root"}, nil)
		f.pusher.On("Broadcast", mock.Anything, []uuid.UUID{admin}).Return()

		err := f.svc.DeleteTicket(ctx, 1, adminIdentity(admin, "root"))
		require.NoError(t, err)
		f.pusher.AssertExpectations(t)
		f.fileStore.AssertExpectations(t)
	})
}
