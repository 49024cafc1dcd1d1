package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
)

const MaxCommentLength = 5000

// Comment is a message on a ticket. Internal comments are visible to staff only.
type Comment struct {
	ID         int64
	TicketID   int64
	AuthorID   uuid.UUID
	Content    string
	IsInternal bool
	CreatedAt  time.Time
}

// NewComment validates and builds a comment. Only staff may post internal
// notes; for other authors the flag is cleared, not rejected.
func NewComment(ticketID int64, authorID uuid.UUID, content string, internal bool, authorRole Role) (*Comment, error) {
	if ticketID == 0 {
		return nil, apperrors.ErrTicketIDRequired
	}
	if authorID == uuid.Nil {
		return nil, apperrors.ErrAuthorIDRequired
	}
	if content == "" {
		return nil, apperrors.ErrCommentBodyRequired
	}
	if len(content) > MaxCommentLength {
		return nil, apperrors.ErrCommentBodyTooLong
	}
	if internal && !authorRole.IsStaff() {
		internal = false
	}

	return &Comment{
		TicketID:   ticketID,
		AuthorID:   authorID,
		Content:    content,
		IsInternal: internal,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
