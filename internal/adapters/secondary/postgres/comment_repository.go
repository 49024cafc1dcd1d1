package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

type CommentRepository struct {
	pool *pgxpool.Pool
}

var _ ports.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

const commentColumns = `id, ticket_id, author_id, content, is_internal, created_at`

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Content, &c.IsInternal, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	const query = `
INSERT INTO ticket_comments (ticket_id, author_id, content, is_internal, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + commentColumns

	return scanComment(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		comment.TicketID, comment.AuthorID, comment.Content, comment.IsInternal, comment.CreatedAt))
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	const query = `SELECT ` + commentColumns + ` FROM ticket_comments WHERE id = $1`
	return scanComment(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *CommentRepository) ListByTicket(ctx context.Context, ticketID int64, includeInternal bool) ([]*domain.Comment, error) {
	const query = `
SELECT ` + commentColumns + `
FROM ticket_comments
WHERE ticket_id = $1 AND (is_internal = false OR $2)
ORDER BY created_at`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, ticketID, includeInternal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*domain.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
