package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

type EvaluationRepository struct {
	pool *pgxpool.Pool
}

var _ ports.EvaluationRepository = (*EvaluationRepository)(nil)

func NewEvaluationRepository(pool *pgxpool.Pool) *EvaluationRepository {
	return &EvaluationRepository{pool: pool}
}

const evaluationColumns = `id, ticket_id, user_id, rating, comment, created_at`

func scanEvaluation(row pgx.Row) (*domain.Evaluation, error) {
	var e domain.Evaluation
	err := row.Scan(&e.ID, &e.TicketID, &e.UserID, &e.Rating, &e.Comment, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEvaluationNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EvaluationRepository) Create(ctx context.Context, ev *domain.Evaluation) (*domain.Evaluation, error) {
	const query = `
INSERT INTO ticket_evaluations (ticket_id, user_id, rating, comment, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + evaluationColumns

	created, err := scanEvaluation(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		ev.TicketID, ev.UserID, ev.Rating, ev.Comment, ev.CreatedAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrEvaluationExists
		}
		return nil, err
	}
	return created, nil
}

func (r *EvaluationRepository) GetByTicket(ctx context.Context, ticketID int64) (*domain.Evaluation, error) {
	const query = `SELECT ` + evaluationColumns + ` FROM ticket_evaluations WHERE ticket_id = $1`
	return scanEvaluation(GetDBTX(ctx, r.pool).QueryRow(ctx, query, ticketID))
}

func (r *EvaluationRepository) List(ctx context.Context, limit, offset int) ([]*domain.Evaluation, error) {
	const query = `
SELECT ` + evaluationColumns + `
FROM ticket_evaluations
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	evaluations := make([]*domain.Evaluation, 0)
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return evaluations, nil
}
