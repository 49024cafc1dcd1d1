package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

type ActivityRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ActivityRepository = (*ActivityRepository)(nil)

func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func (r *ActivityRepository) Append(ctx context.Context, activities []domain.Activity) error {
	const query = `
INSERT INTO ticket_activities (ticket_id, actor_id, action, field, old_value, new_value, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	db := GetDBTX(ctx, r.pool)
	for _, a := range activities {
		_, err := db.Exec(ctx, query,
			a.TicketID, a.ActorID, a.Action, a.Field, a.OldValue, a.NewValue, a.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ActivityRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Activity, error) {
	const query = `
SELECT id, ticket_id, actor_id, action, field, old_value, new_value, created_at
FROM ticket_activities
WHERE ticket_id = $1
ORDER BY created_at DESC, id DESC`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]*domain.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(&a.ID, &a.TicketID, &a.ActorID, &a.Action, &a.Field, &a.OldValue, &a.NewValue, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
