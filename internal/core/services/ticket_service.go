package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// TicketService implements business logic for ticket management
type TicketService struct {
	ticketRepo     ports.TicketRepository
	userRepo       ports.UserRepository
	activityRepo   ports.ActivityRepository
	attachmentRepo ports.AttachmentRepository
	txManager      ports.TransactionManager
	pusher         ports.NotificationPusher
	notifier       ports.Notifier
	fileStore      ports.FileStore
	logger         *slog.Logger
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service
func NewTicketService(
	ticketRepo ports.TicketRepository,
	userRepo ports.UserRepository,
	activityRepo ports.ActivityRepository,
	attachmentRepo ports.AttachmentRepository,
	txManager ports.TransactionManager,
	pusher ports.NotificationPusher,
	notifier ports.Notifier,
	fileStore ports.FileStore,
	logger *slog.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo:     ticketRepo,
		userRepo:       userRepo,
		activityRepo:   activityRepo,
		attachmentRepo: attachmentRepo,
		txManager:      txManager,
		pusher:         pusher,
		notifier:       notifier,
		fileStore:      fileStore,
		logger:         logger,
	}
}

// CreateTicket handles the use case for submitting a new ticket
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	ticket, err := domain.NewTicket(params.Title, params.Description, params.Priority, params.CategoryID, params.Actor.UserID)
	if err != nil {
		return nil, err
	}

	// Only staff may pre-assign at creation time. A plain user's assignee
	// field is dropped the same way restricted update fields are.
	if params.AssigneeID != nil && params.Actor.Role.IsStaff() {
		if err := s.checkAssignable(ctx, *params.AssigneeID); err != nil {
			return nil, err
		}
		ticket.AssigneeID = params.AssigneeID
	}

	var created *domain.Ticket
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		created, txErr = s.ticketRepo.Create(ctx, ticket)
		if txErr != nil {
			return txErr
		}
		return s.activityRepo.Append(ctx, []domain.Activity{{
			TicketID:  created.ID,
			ActorID:   params.Actor.UserID,
			Action:    domain.ActivityCreated,
			CreatedAt: created.CreatedAt,
		}})
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	actor := s.resolveActor(ctx, params.Actor)
	s.dispatch(domain.TicketCreatedNotifications(created, actor, now))
	if created.AssigneeID != nil {
		s.dispatch(domain.TicketAssignedNotifications(created, *created.AssigneeID, actor, now))
		s.notifyAssignee(created, *created.AssigneeID)
	}

	return created, nil
}

// GetTicket retrieves a specific ticket with authorization
func (s *TicketService) GetTicket(ctx context.Context, ticketID int64, actor ports.Identity) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanView(actor.UserID, actor.Role) {
		return nil, apperrors.ErrForbidden
	}
	return ticket, nil
}

// ListTickets returns the tickets visible to the actor, with explicit filters
// ANDed on top of the role-derived scope. A repository fault degrades to an
// empty page rather than failing the request.
func (s *TicketService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, int64, error) {
	scope := domain.ScopeFor(params.Actor.UserID, params.Actor.Role)

	tickets, err := s.ticketRepo.List(ctx, params.Filter, scope)
	if err != nil {
		s.logger.ErrorContext(ctx, "ticket listing failed, returning empty page",
			slog.String("user_id", params.Actor.UserID.String()),
			slog.String("error", err.Error()))
		return []*domain.Ticket{}, 0, nil
	}

	total, err := s.ticketRepo.Count(ctx, params.Filter, scope)
	if err != nil {
		s.logger.ErrorContext(ctx, "ticket count failed",
			slog.String("error", err.Error()))
		total = int64(len(tickets))
	}

	return tickets, total, nil
}

// UpdateTicket applies a partial update with role-based field restrictions.
// The field changes and their audit rows commit in one transaction.
func (s *TicketService) UpdateTicket(ctx context.Context, params ports.UpdateTicketParams) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanEdit(params.Actor.UserID, params.Actor.Role) {
		return nil, apperrors.ErrForbidden
	}

	if params.Patch.AssigneeID != nil && *params.Patch.AssigneeID != uuid.Nil && params.Actor.Role.IsStaff() {
		if err := s.checkAssignable(ctx, *params.Patch.AssigneeID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	changes, err := ticket.ApplyUpdate(params.Patch, params.Actor.Role, now)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return ticket, nil
	}

	var updated *domain.Ticket
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		updated, txErr = s.ticketRepo.Update(ctx, ticket)
		if txErr != nil {
			return txErr
		}
		return s.activityRepo.Append(ctx, domain.ActivitiesFromChanges(ticket.ID, params.Actor.UserID, changes, now))
	})
	if err != nil {
		return nil, err
	}

	actor := s.resolveActor(ctx, params.Actor)

	if newStatus, ok := domain.StatusChanged(changes); ok {
		s.dispatch(domain.TicketStatusChangedNotifications(updated, newStatus, actor, now))
		if newStatus == domain.StatusResolved {
			s.dispatch(domain.TicketResolvedNotifications(updated, actor, now))
		}
	}
	if newAssignee, ok := domain.AssigneeChanged(changes); ok {
		if assigneeID, parseErr := uuid.Parse(newAssignee); parseErr == nil {
			s.dispatch(domain.TicketAssignedNotifications(updated, assigneeID, actor, now))
			s.notifyAssignee(updated, assigneeID)
		}
	}

	return updated, nil
}

// DeleteTicket removes a ticket and everything hanging off it. Admin only.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID int64, actor ports.Identity) error {
	if !actor.Role.IsAdmin() {
		return apperrors.ErrForbidden
	}

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}

	attachments, err := s.attachmentRepo.ListByTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	// Comments, attachments, activities and the evaluation cascade in the
	// database. The files on disk are cleaned up best-effort afterwards.
	if err := s.ticketRepo.Delete(ctx, ticketID); err != nil {
		return err
	}

	for _, att := range attachments {
		if rmErr := s.fileStore.Delete(ctx, att.StoredName); rmErr != nil {
			s.logger.WarnContext(ctx, "orphaned attachment file",
				slog.String("stored_name", att.StoredName),
				slog.String("error", rmErr.Error()))
		}
	}

	s.dispatch(domain.TicketDeletedNotifications(ticket, s.resolveActor(ctx, actor), time.Now().UTC()))
	return nil
}

// ListActivities returns the audit trail for a ticket the actor may view.
func (s *TicketService) ListActivities(ctx context.Context, ticketID int64, actor ports.Identity) ([]*domain.Activity, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanView(actor.UserID, actor.Role) {
		return nil, apperrors.ErrForbidden
	}
	return s.activityRepo.ListByTicket(ctx, ticketID)
}

// checkAssignable verifies the target user exists and holds a staff role.
func (s *TicketService) checkAssignable(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Role.IsStaff() {
		return apperrors.ErrAssigneeNotStaff
	}
	if !user.IsActive {
		return apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Assignee account is disabled")
	}
	return nil
}

// resolveActor fetches the actor's display name for notification payloads.
// Falls back to the token identity if the lookup fails.
func (s *TicketService) resolveActor(ctx context.Context, identity ports.Identity) domain.Actor {
	actor := domain.Actor{ID: identity.UserID, Username: identity.Username, FullName: identity.Username}
	if user, err := s.userRepo.GetByID(ctx, identity.UserID); err == nil {
		actor.FullName = user.FullName
	}
	return actor
}

// dispatch hands a batch of targeted notifications to the pusher.
func (s *TicketService) dispatch(outbounds []domain.Outbound) {
	for _, out := range outbounds {
		switch {
		case out.Broadcast:
			s.pusher.Broadcast(out.Notification, out.Except)
		case len(out.Roles) > 0:
			for _, role := range out.Roles {
				s.pusher.SendToRole(role, out.Notification, out.Except)
			}
		default:
			for _, userID := range out.Users {
				s.pusher.SendToUser(userID, out.Notification)
			}
		}
	}
}

// notifyAssignee sends the out-of-band notification for a new assignment.
func (s *TicketService) notifyAssignee(ticket *domain.Ticket, assigneeID uuid.UUID) {
	s.notifier.Notify(context.Background(), ports.NotificationParams{
		RecipientUserID: assigneeID,
		Subject:         fmt.Sprintf("Ticket #%d assigned to you", ticket.ID),
		Message:         fmt.Sprintf("You have been assigned ticket '%s'.", ticket.Title),
		TicketID:        ticket.ID,
	})
}
