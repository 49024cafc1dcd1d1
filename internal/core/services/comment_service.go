package services

import (
	"context"
	"time"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// CommentService implements business logic for ticket comments
type CommentService struct {
	commentRepo ports.CommentRepository
	ticketRepo  ports.TicketRepository
	userRepo    ports.UserRepository
	pusher      ports.NotificationPusher
}

var _ ports.CommentService = (*CommentService)(nil)

// NewCommentService creates a new comment service
func NewCommentService(
	commentRepo ports.CommentRepository,
	ticketRepo ports.TicketRepository,
	userRepo ports.UserRepository,
	pusher ports.NotificationPusher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		ticketRepo:  ticketRepo,
		userRepo:    userRepo,
		pusher:      pusher,
	}
}

// CreateComment posts a comment on a ticket the actor may view. Internal
// notes are a staff capability: a non-staff author's internal flag is
// dropped silently, and internal notes never fan out to the creator.
func (s *CommentService) CreateComment(ctx context.Context, params ports.CreateCommentParams) (*domain.Comment, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanView(params.Actor.UserID, params.Actor.Role) {
		return nil, apperrors.ErrForbidden
	}

	comment, err := domain.NewComment(params.TicketID, params.Actor.UserID, params.Content, params.IsInternal, params.Actor.Role)
	if err != nil {
		return nil, err
	}

	created, err := s.commentRepo.Create(ctx, comment)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	actor := domain.Actor{ID: params.Actor.UserID, Username: params.Actor.Username, FullName: params.Actor.Username}
	if user, lookupErr := s.userRepo.GetByID(ctx, params.Actor.UserID); lookupErr == nil {
		actor.FullName = user.FullName
	}
	for _, out := range domain.NewCommentNotifications(ticket, created, actor, now) {
		for _, userID := range out.Users {
			s.pusher.SendToUser(userID, out.Notification)
		}
	}

	return created, nil
}

// ListComments returns a ticket's comments. Internal notes are filtered out
// for non-staff callers at query time.
func (s *CommentService) ListComments(ctx context.Context, ticketID int64, actor ports.Identity) ([]*domain.Comment, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanView(actor.UserID, actor.Role) {
		return nil, apperrors.ErrForbidden
	}
	return s.commentRepo.ListByTicket(ctx, ticketID, actor.Role.IsStaff())
}
