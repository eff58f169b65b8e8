package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"bakery_backend/internal/models"
)

// SettingsRepository defines the interface for application_settings access.
type SettingsRepository interface {
	GetAll() ([]models.ApplicationSetting, error)
	// Upsert writes one key. Callers batching several keys should pass a tx.
	Upsert(executor SQLExecutor, key, value string) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetAll() ([]models.ApplicationSetting, error) {
	query := `SELECT setting_key, setting_value, description, updated_at FROM application_settings ORDER BY setting_key`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: getting application settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	settings := []models.ApplicationSetting{}
	for rows.Next() {
		var s models.ApplicationSetting
		if err := rows.Scan(&s.SettingKey, &s.SettingValue, &s.Description, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning application setting: %v", ErrDatabaseError, err)
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating application settings: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *settingsRepository) Upsert(executor SQLExecutor, key, value string) error {
	query := `INSERT INTO application_settings (setting_key, setting_value, updated_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (setting_key)
	          DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = EXCLUDED.updated_at`
	if _, err := executor.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("%w: upserting setting %s: %v", ErrDatabaseError, key, err)
	}
	return nil
}
