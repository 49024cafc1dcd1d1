package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

type SettingsRepository struct {
	pool *pgxpool.Pool
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

const settingColumns = `key, value, description, updated_at`

func scanSetting(row pgx.Row) (*domain.SystemSetting, error) {
	var s domain.SystemSetting
	err := row.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSettingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (*domain.SystemSetting, error) {
	const query = `SELECT ` + settingColumns + ` FROM system_settings WHERE key = $1`
	return scanSetting(GetDBTX(ctx, r.pool).QueryRow(ctx, query, key))
}

func (r *SettingsRepository) GetAll(ctx context.Context) ([]*domain.SystemSetting, error) {
	const query = `SELECT ` + settingColumns + ` FROM system_settings ORDER BY key`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]*domain.SystemSetting, 0)
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, setting *domain.SystemSetting) (*domain.SystemSetting, error) {
	const query = `
INSERT INTO system_settings (key, value, description, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
RETURNING ` + settingColumns

	return scanSetting(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		setting.Key, setting.Value, setting.Description, time.Now().UTC()))
}
