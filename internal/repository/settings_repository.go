package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepository struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get получает настройку по ключу
func (r *SettingsRepository) Get(ctx context.Context, key string) (*model.AppSetting, error) {
	query := `SELECT key, value, updated_at FROM app_settings WHERE key = $1`

	var setting model.AppSetting
	err := r.pool.QueryRow(ctx, query, key).Scan(&setting.Key, &setting.Value, &setting.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Настройка не задана
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}

	return &setting, nil
}

// Set записывает настройку (upsert)
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO app_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`

	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}

	return nil
}
