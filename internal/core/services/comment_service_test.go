package services_test

import (
	"context"
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

type commentServiceFixture struct {
	commentRepo *mocks.MockCommentRepository
	ticketRepo  *mocks.MockTicketRepository
	userRepo    *mocks.MockUserRepository
	pusher      *mocks.MockNotificationPusher
	svc         ports.CommentService
}

func newCommentServiceFixture() *commentServiceFixture {
	f := &commentServiceFixture{
		commentRepo: mocks.NewMockCommentRepository(),
		ticketRepo:  mocks.NewMockTicketRepository(),
		userRepo:    mocks.NewMockUserRepository(),
		pusher:      mocks.NewMockNotificationPusher(),
	}
	f.svc = services.NewCommentService(f.commentRepo, f.ticketRepo, f.userRepo, f.pusher)
	return f
}

func TestCommentService_CreateComment(t *testing.T) {
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	t.Run("public comment notifies the creator", func(t *testing.T) {
		f := newCommentServiceFixture()
		ticket := &domain.Ticket{ID: 1, CreatorID: alice, AssigneeID: &bob, Status: domain.StatusOpen}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)
		f.commentRepo.On("Create", ctx, mock.AnythingOfType("*domain.Comment")).
			Return(&domain.Comment{ID: 10, TicketID: 1, AuthorID: bob, Content: "on it"}, nil)
		f.userRepo.On("GetByID", ctx, bob).
			Return(&domain.User{ID: bob, Username: "bob", FullName: "Bob B"}, nil)
		f.pusher.On("SendToUser", alice, mock.MatchedBy(func(payload interface{}) bool {
			n, ok := payload.(domain.Notification)
			return ok && n.Type == domain.NotificationNewComment && n.TicketID == 1
		})).Return()

		comment, err := f.svc.CreateComment(ctx, ports.CreateCommentParams{
			TicketID: 1,
			Content:  "on it",
			Actor:    techIdentity(bob, "bob"),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(10), comment.ID)
		f.pusher.AssertExpectations(t)
	})

	t.Run("internal comment produces no notification", func(t *testing.T) {
		f := newCommentServiceFixture()
		ticket := &domain.Ticket{ID: 1, CreatorID: alice, AssigneeID: &bob, Status: domain.StatusOpen}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)
		f.commentRepo.On("Create", ctx, mock.AnythingOfType("*domain.Comment")).
			Return(&domain.Comment{ID: 11, TicketID: 1, AuthorID: bob, Content: "internal note", IsInternal: true}, nil)
		f.userRepo.On("GetByID", ctx, bob).
			Return(&domain.User{ID: bob, Username: "bob", FullName: "Bob B"}, nil)

		_, err := f.svc.CreateComment(ctx, ports.CreateCommentParams{
			TicketID:   1,
			Content:    "internal note",
			IsInternal: true,
			Actor:      techIdentity(bob, "bob"),
		})

		require.NoError(t, err)
		f.pusher.AssertNotCalled(t, "SendToUser", mock.Anything, mock.Anything)
	})

	t.Run("internal flag from a plain user is dropped, not rejected", func(t *testing.T) {
		f := newCommentServiceFixture()
		ticket := &domain.Ticket{ID: 1, CreatorID: alice, Status: domain.StatusOpen}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)
		f.commentRepo.On("Create", ctx, mock.MatchedBy(func(c *domain.Comment) bool {
			return !c.IsInternal
		})).Return(&domain.Comment{ID: 12, TicketID: 1, AuthorID: alice, Content: "sneaky"}, nil)
		f.userRepo.On("GetByID", ctx, alice).
			Return(&domain.User{ID: alice, Username: "alice", FullName: "Alice A"}, nil)

		comment, err := f.svc.CreateComment(ctx, ports.CreateCommentParams{
			TicketID:   1,
			Content:    "sneaky",
			IsInternal: true,
			Actor:      userIdentity(alice, "alice"),
		})

		require.NoError(t, err)
		assert.False(t, comment.IsInternal)
		f.commentRepo.AssertExpectations(t)
	})

	t.Run("outsider cannot comment", func(t *testing.T) {
		f := newCommentServiceFixture()
		mallory := uuid.New()
		ticket := &domain.Ticket{ID: 1, CreatorID: alice, Status: domain.StatusOpen}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)

		_, err := f.svc.CreateComment(ctx, ports.CreateCommentParams{
			TicketID: 1,
			Content:  "hi",
			Actor:    userIdentity(mallory, "mallory"),
		})

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("empty body rejected", func(t *testing.T) {
		f := newCommentServiceFixture()
		ticket := &domain.Ticket{ID: 1, CreatorID: alice, Status: domain.StatusOpen}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)

		_, err := f.svc.CreateComment(ctx, ports.CreateCommentParams{
			TicketID: 1,
			Content:  "",
			Actor:    userIdentity(alice, "alice"),
		})

		assert.ErrorIs(t, err, apperrors.ErrCommentBodyRequired)
	})
}

func TestCommentService_ListComments(t *testing.T) {
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	t.Run("staff see internal notes", func(t *testing.T) {
		f := newCommentServiceFixture()
		ticket := &domain.Ticket{ID: 1, CreatorID: alice, Status: domain.StatusOpen}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)
		f.commentRepo.On("ListByTicket", ctx, int64(1), true).
			Return([]*domain.Comment{{ID: 1}, {ID: 2, IsInternal: true}}, nil)

		comments, err := f.svc.ListComments(ctx, 1, techIdentity(bob, "bob"))
		require.NoError(t, err)
		assert.Len(t, comments, 2)
	})

	t.Run("creator does not see internal notes", func(t *testing.T) {
		f := newCommentServiceFixture()
		ticket := &domain.Ticket{ID: 1, CreatorID: alice, Status: domain.StatusOpen}

		f.ticketRepo.On("GetByID", ctx, int64(1)).Return(ticket, nil)
		f.commentRepo.On("ListByTicket", ctx, int64(1), false).
			Return([]*domain.Comment{{ID: 1}}, nil)

		comments, err := f.svc.ListComments(ctx, 1, userIdentity(alice, "alice"))
		require.NoError(t, err)
		assert.Len(t, comments, 1)
	})
}
