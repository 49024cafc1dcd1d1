package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

type DashboardRepository struct {
	pool *pgxpool.Pool
}

var _ ports.DashboardRepository = (*DashboardRepository)(nil)

func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// scopeClause renders the visibility scope as a WHERE fragment. Returns an
// empty string for an unrestricted scope.
func scopeClause(scope domain.VisibilityScope, args *[]interface{}) string {
	conditions := make([]string, 0, 2)
	if scope.CreatorID != nil {
		*args = append(*args, *scope.CreatorID)
		conditions = append(conditions, fmt.Sprintf("creator_id = $%d", len(*args)))
	}
	if scope.AssigneeID != nil {
		*args = append(*args, *scope.AssigneeID)
		conditions = append(conditions, fmt.Sprintf("assignee_id = $%d", len(*args)))
	}
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func (r *DashboardRepository) Stats(ctx context.Context, scope domain.VisibilityScope) (*domain.DashboardStats, error) {
	args := make([]interface{}, 0, 2)
	where := scopeClause(scope, &args)
	db := GetDBTX(ctx, r.pool)

	stats := &domain.DashboardStats{
		ByStatus:   make(map[domain.TicketStatus]int64),
		ByPriority: make(map[domain.TicketPriority]int64),
	}

	summary := `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE assignee_id IS NULL),
       COUNT(*) FILTER (WHERE created_at >= now() - interval '7 days'),
       COUNT(*) FILTER (WHERE resolved_at >= now() - interval '7 days'),
       COALESCE(AVG(EXTRACT(EPOCH FROM resolved_at - created_at) / 3600) FILTER (WHERE resolved_at IS NOT NULL), 0)
FROM tickets` + where

	err := db.QueryRow(ctx, summary, args...).Scan(
		&stats.TotalTickets, &stats.Unassigned,
		&stats.OpenedLast7Days, &stats.ResolvedLast7Days, &stats.AvgResolutionHours)
	if err != nil {
		return nil, err
	}

	byStatus := `SELECT status, COUNT(*) FROM tickets` + where + ` GROUP BY status`
	rows, err := db.Query(ctx, byStatus, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[domain.TicketStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byPriority := `SELECT priority, COUNT(*) FROM tickets` + where + ` GROUP BY priority`
	rows, err = db.Query(ctx, byPriority, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			priority string
			count    int64
		)
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		stats.ByPriority[domain.TicketPriority(priority)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rating := `
SELECT COALESCE(AVG(e.rating), 0)
FROM ticket_evaluations e
JOIN tickets t ON t.id = e.ticket_id` + strings.Replace(strings.Replace(where, "creator_id", "t.creator_id", 1), "assignee_id", "t.assignee_id", 1)

	if err := db.QueryRow(ctx, rating, args...).Scan(&stats.AvgRating); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *DashboardRepository) TicketsByMonth(ctx context.Context, scope domain.VisibilityScope, months int) ([]*domain.MonthBucket, error) {
	args := make([]interface{}, 0, 3)
	scoped := strings.Replace(scopeClause(scope, &args), " WHERE ", " AND ", 1)
	args = append(args, months)
	cutoff := fmt.Sprintf("date_trunc('month', now()) - make_interval(months => $%d - 1)", len(args))

	query := fmt.Sprintf(`
SELECT month, SUM(opened), SUM(resolved)
FROM (
    SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, COUNT(*) AS opened, 0 AS resolved
    FROM tickets
    WHERE created_at >= %[1]s%[2]s
    GROUP BY 1
    UNION ALL
    SELECT to_char(date_trunc('month', resolved_at), 'YYYY-MM'), 0, COUNT(*)
    FROM tickets
    WHERE resolved_at >= %[1]s%[2]s
    GROUP BY 1
) buckets
GROUP BY month
ORDER BY month`, cutoff, scoped)

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]*domain.MonthBucket, 0)
	for rows.Next() {
		var bucket domain.MonthBucket
		if err := rows.Scan(&bucket.Month, &bucket.Opened, &bucket.Resolved); err != nil {
			return nil, err
		}
		buckets = append(buckets, &bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buckets, nil
}

func (r *DashboardRepository) TechnicianLoads(ctx context.Context) ([]*domain.TechnicianLoad, error) {
	const query = `
SELECT u.id, u.full_name,
       COUNT(t.id) FILTER (WHERE t.status NOT IN ('resolved', 'closed')),
       COUNT(t.id) FILTER (WHERE t.status IN ('resolved', 'closed')),
       COALESCE(AVG(e.rating), 0)
FROM users u
LEFT JOIN tickets t ON t.assignee_id = u.id
LEFT JOIN ticket_evaluations e ON e.ticket_id = t.id
WHERE u.role IN ('technician', 'admin') AND u.is_active = true
GROUP BY u.id, u.full_name
ORDER BY u.full_name`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := make([]*domain.TechnicianLoad, 0)
	for rows.Next() {
		var load domain.TechnicianLoad
		if err := rows.Scan(&load.TechnicianID, &load.FullName, &load.Assigned, &load.Resolved, &load.AvgRating); err != nil {
			return nil, err
		}
		loads = append(loads, &load)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return loads, nil
}
