package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

const (
	defaultTicketLimit = 20
	maxTicketLimit     = 100
)

type TicketRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

const ticketColumns = `id, title, description, solution, status, priority, category_id, creator_id, assignee_id, created_at, updated_at, resolved_at, closed_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t        domain.Ticket
		status   string
		priority string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Solution, &status, &priority,
		&t.CategoryID, &t.CreatorID, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt, &t.ResolvedAt, &t.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	t.Status = domain.TicketStatus(status)
	t.Priority = domain.TicketPriority(priority)
	return &t, nil
}

func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	const query = `
INSERT INTO tickets (title, description, solution, status, priority, category_id, creator_id, assignee_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + ticketColumns

	return scanTicket(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		ticket.Title, ticket.Description, ticket.Solution,
		string(ticket.Status), string(ticket.Priority),
		ticket.CategoryID, ticket.CreatorID, ticket.AssigneeID, ticket.CreatedAt))
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return scanTicket(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
}

// ticketConditions builds the WHERE clause shared by List and Count. The
// visibility scope is always ANDed with the caller's filter so a narrower
// explicit filter can never widen what the actor is allowed to see.
func ticketConditions(filter domain.TicketFilter, scope domain.VisibilityScope) (string, []interface{}) {
	conditions := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)

	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if scope.CreatorID != nil {
		add("creator_id = $%d", *scope.CreatorID)
	}
	if scope.AssigneeID != nil {
		add("assignee_id = $%d", *scope.AssigneeID)
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	if filter.Priority != nil {
		add("priority = $%d", string(*filter.Priority))
	}
	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	}
	if filter.AssigneeID != nil {
		add("assignee_id = $%d", *filter.AssigneeID)
	}
	if filter.CreatorID != nil {
		add("creator_id = $%d", *filter.CreatorID)
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%' OR solution ILIKE '%%' || $%d || '%%')", n, n, n))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *TicketRepository) List(ctx context.Context, filter domain.TicketFilter, scope domain.VisibilityScope) ([]*domain.Ticket, error) {
	where, args := ticketConditions(filter, scope)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTicketLimit
	}
	if limit > maxTicketLimit {
		limit = maxTicketLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *TicketRepository) Count(ctx context.Context, filter domain.TicketFilter, scope domain.VisibilityScope) (int64, error) {
	where, args := ticketConditions(filter, scope)

	query := `SELECT COUNT(*) FROM tickets` + where

	var total int64
	if err := GetDBTX(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	const query = `
UPDATE tickets
SET title = $2, description = $3, solution = $4, status = $5, priority = $6,
    category_id = $7, assignee_id = $8, updated_at = $9, resolved_at = $10, closed_at = $11
WHERE id = $1
RETURNING ` + ticketColumns

	return scanTicket(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		ticket.ID, ticket.Title, ticket.Description, ticket.Solution,
		string(ticket.Status), string(ticket.Priority),
		ticket.CategoryID, ticket.AssigneeID, ticket.UpdatedAt, ticket.ResolvedAt, ticket.ClosedAt))
}

func (r *TicketRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM tickets WHERE id = $1`

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}
