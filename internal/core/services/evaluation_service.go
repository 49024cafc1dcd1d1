package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// EvaluationService implements satisfaction ratings on finished tickets.
type EvaluationService struct {
	evaluationRepo ports.EvaluationRepository
	ticketRepo     ports.TicketRepository
	activityRepo   ports.ActivityRepository
	txManager      ports.TransactionManager
}

var _ ports.EvaluationService = (*EvaluationService)(nil)

func NewEvaluationService(
	evaluationRepo ports.EvaluationRepository,
	ticketRepo ports.TicketRepository,
	activityRepo ports.ActivityRepository,
	txManager ports.TransactionManager,
) *EvaluationService {
	return &EvaluationService{
		evaluationRepo: evaluationRepo,
		ticketRepo:     ticketRepo,
		activityRepo:   activityRepo,
		txManager:      txManager,
	}
}

// CreateEvaluation records a one-time rating by the ticket creator.
func (s *EvaluationService) CreateEvaluation(ctx context.Context, ticketID int64, rating int, comment string, actor ports.Identity) (*domain.Evaluation, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if existing, lookupErr := s.evaluationRepo.GetByTicket(ctx, ticketID); lookupErr == nil && existing != nil {
		return nil, apperrors.ErrEvaluationExists
	} else if lookupErr != nil && !errors.Is(lookupErr, apperrors.ErrEvaluationNotFound) {
		return nil, lookupErr
	}

	ev, err := domain.NewEvaluation(ticket, actor.UserID, rating, comment)
	if err != nil {
		return nil, err
	}

	var created *domain.Evaluation
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		created, txErr = s.evaluationRepo.Create(ctx, ev)
		if txErr != nil {
			return txErr
		}
		return s.activityRepo.Append(ctx, []domain.Activity{{
			TicketID:  ticketID,
			ActorID:   actor.UserID,
			Action:    domain.ActivityEvaluated,
			NewValue:  strconv.Itoa(rating),
			CreatedAt: time.Now().UTC(),
		}})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *EvaluationService) GetForTicket(ctx context.Context, ticketID int64, actor ports.Identity) (*domain.Evaluation, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanView(actor.UserID, actor.Role) {
		return nil, apperrors.ErrForbidden
	}
	return s.evaluationRepo.GetByTicket(ctx, ticketID)
}

// ListEvaluations is a staff-only report across all tickets.
func (s *EvaluationService) ListEvaluations(ctx context.Context, actor ports.Identity, limit, offset int) ([]*domain.Evaluation, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.ErrForbidden
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.evaluationRepo.List(ctx, limit, offset)
}
