package repository

import (
	"context"

	"veritas-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Default limits applied when the settings row does not exist yet.
const (
	defaultFreeDailyLimit    = 10
	defaultPremiumDailyLimit = 0 // unlimited
)

// SettingsRepository handles the single global settings row
type SettingsRepository struct {
	db *pgxpool.Pool
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get reads the current settings, creating the default row on first use.
// Callers read fresh on every request so admin changes apply immediately.
func (r *SettingsRepository) Get(ctx context.Context) (*models.GlobalSettings, error) {
	settings := &models.GlobalSettings{}
	query := `
		INSERT INTO global_settings (id, free_daily_limit, premium_daily_limit)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET id = global_settings.id
		RETURNING free_daily_limit, premium_daily_limit, is_maintenance_mode,
			min_app_version, updated_at`

	err := r.db.QueryRow(ctx, query, defaultFreeDailyLimit, defaultPremiumDailyLimit).Scan(
		&settings.FreeDailyLimit,
		&settings.PremiumDailyLimit,
		&settings.IsMaintenanceMode,
		&settings.MinAppVersion,
		&settings.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// SettingsPatch carries the fields an admin wants to change. Nil fields are
// left as they are.
type SettingsPatch struct {
	FreeDailyLimit    *int    `json:"freeDailyLimit"`
	PremiumDailyLimit *int    `json:"premiumDailyLimit"`
	IsMaintenanceMode *bool   `json:"isMaintenanceMode"`
	MinAppVersion     *string `json:"minAppVersion"`
}

// Update applies a partial settings change and returns the new state
func (r *SettingsRepository) Update(ctx context.Context, patch SettingsPatch) (*models.GlobalSettings, error) {
	if _, err := r.Get(ctx); err != nil {
		return nil, err
	}

	settings := &models.GlobalSettings{}
	query := `
		UPDATE global_settings SET
			free_daily_limit = COALESCE($1, free_daily_limit),
			premium_daily_limit = COALESCE($2, premium_daily_limit),
			is_maintenance_mode = COALESCE($3, is_maintenance_mode),
			min_app_version = COALESCE($4, min_app_version),
			updated_at = NOW()
		WHERE id = 1
		RETURNING free_daily_limit, premium_daily_limit, is_maintenance_mode,
			min_app_version, updated_at`

	err := r.db.QueryRow(ctx, query,
		patch.FreeDailyLimit,
		patch.PremiumDailyLimit,
		patch.IsMaintenanceMode,
		patch.MinAppVersion,
	).Scan(
		&settings.FreeDailyLimit,
		&settings.PremiumDailyLimit,
		&settings.IsMaintenanceMode,
		&settings.MinAppVersion,
		&settings.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return settings, nil
}
