package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, email, full_name, hashed_password, role, is_active, is_ldap_user, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.HashedPassword, &role, &u.IsActive, &u.IsLDAPUser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	u.Role = domain.ParseRole(role)
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
INSERT INTO users (id, username, email, full_name, hashed_password, role, is_active, is_ldap_user, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + userColumns

	db := GetDBTX(ctx, r.pool)
	created, err := scanUser(db.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.HashedPassword,
		user.Role.String(), user.IsActive, user.IsLDAPUser, user.CreatedAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrUserExists
		}
		return nil, err
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(GetDBTX(ctx, r.pool).QueryRow(ctx, query, strings.ToLower(username)))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(GetDBTX(ctx, r.pool).QueryRow(ctx, query, strings.ToLower(email)))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *UserRepository) ListByRoles(ctx context.Context, roles []domain.Role) ([]*domain.User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE role = ANY($1)
ORDER BY full_name`

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.String())
	}

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
UPDATE users
SET username = $2, email = $3, full_name = $4, hashed_password = $5,
    role = $6, is_active = $7, is_ldap_user = $8, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

	updated, err := scanUser(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.HashedPassword,
		user.Role.String(), user.IsActive, user.IsLDAPUser))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrUserExists
		}
		return nil, err
	}
	return updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM users WHERE id = $1`

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func collectUsers(rows pgx.Rows) ([]*domain.User, error) {
	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
