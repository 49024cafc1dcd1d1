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

type CategoryRepository struct {
	pool *pgxpool.Pool
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, name, description, is_active, created_at`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	const query = `
INSERT INTO categories (name, description, is_active, created_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + categoryColumns

	created, err := scanCategory(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		cat.Name, cat.Description, cat.IsActive, cat.CreatedAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrCategoryExists
		}
		return nil, err
	}
	return created, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	return scanCategory(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE lower(name) = lower($1)`
	return scanCategory(GetDBTX(ctx, r.pool).QueryRow(ctx, query, name))
}

func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	const query = `
SELECT ` + categoryColumns + `
FROM categories
WHERE is_active = true OR NOT $1
ORDER BY name`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) Update(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	const query = `
UPDATE categories
SET name = $2, description = $3, is_active = $4
WHERE id = $1
RETURNING ` + categoryColumns

	updated, err := scanCategory(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		cat.ID, cat.Name, cat.Description, cat.IsActive))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrCategoryExists
		}
		return nil, err
	}
	return updated, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM categories WHERE id = $1`

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) TicketCount(ctx context.Context, id int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE category_id = $1`

	var count int64
	if err := GetDBTX(ctx, r.pool).QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
