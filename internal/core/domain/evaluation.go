package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
)

// Evaluation is the creator's satisfaction rating for a finished ticket.
// One evaluation per ticket.
type Evaluation struct {
	ID        int64
	TicketID  int64
	UserID    uuid.UUID
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// NewEvaluation validates the rating and the ticket state. Only the creator
// of a resolved or closed ticket may evaluate it.
func NewEvaluation(ticket *Ticket, userID uuid.UUID, rating int, comment string) (*Evaluation, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.ErrInvalidRating
	}
	if ticket.Status != StatusResolved && ticket.Status != StatusClosed {
		return nil, apperrors.ErrTicketNotResolved
	}
	if ticket.CreatorID != userID {
		return nil, apperrors.ErrNotTicketCreator
	}

	return &Evaluation{
		TicketID:  ticket.ID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}, nil
}
