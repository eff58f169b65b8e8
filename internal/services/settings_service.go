package services

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"bakery_backend/internal/models"
	"bakery_backend/internal/repositories"
	"bakery_backend/pkg/utils"
)

// UpdateSettingsRequest carries the keys to change; nil fields are left untouched.
type UpdateSettingsRequest struct {
	UnitTypes               *[]string `json:"unit_types"`
	EnableManageStock       *bool     `json:"enable_manage_stock"`
	EnableDecimalQuantities *bool     `json:"enable_decimal_quantities"`
	SummaryEmail            *string   `json:"summary_email"`
	AlertsEnabled           *bool     `json:"alerts_enabled"`
}

// SettingsService owns the typed application settings. Other services read
// the cached copy through Get instead of touching option rows themselves.
type SettingsService interface {
	Get() models.AppSettings
	Reload() error
	Update(req UpdateSettingsRequest) (models.AppSettings, error)
}

type settingsService struct {
	settingsRepo repositories.SettingsRepository
	db           *sql.DB

	mu      sync.RWMutex
	current models.AppSettings
}

// NewSettingsService creates the service and loads the settings cache.
// Missing keys fall back to defaults; a load failure leaves the defaults in place.
func NewSettingsService(settingsRepo repositories.SettingsRepository, db *sql.DB) SettingsService {
	s := &settingsService{
		settingsRepo: settingsRepo,
		db:           db,
		current:      models.DefaultAppSettings(),
	}
	if err := s.Reload(); err != nil {
		utils.LogError(err, "Failed to load application settings, using defaults")
	}
	return s
}

// Get returns a copy of the cached settings.
func (s *settingsService) Get() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.current
	settings.UnitTypes = append([]string(nil), s.current.UnitTypes...)
	return settings
}

// Reload reads application_settings and swaps the cache.
func (s *settingsService) Reload() error {
	rows, err := s.settingsRepo.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	settings := models.DefaultAppSettings()
	for _, row := range rows {
		if row.SettingValue == nil {
			continue
		}
		value := *row.SettingValue
		switch row.SettingKey {
		case models.SettingKeyUnitTypes:
			if units := parseUnitTypes(value); len(units) > 0 {
				settings.UnitTypes = units
			}
		case models.SettingKeyManageStock:
			settings.EnableManageStock = parseSettingBool(value)
		case models.SettingKeyDecimalQty:
			settings.EnableDecimalQuantities = parseSettingBool(value)
		case models.SettingKeySummaryEmail:
			settings.SummaryEmail = strings.TrimSpace(value)
		case models.SettingKeyAlertsEnabled:
			settings.AlertsEnabled = parseSettingBool(value)
		}
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	return nil
}

// Update persists the provided keys in one transaction, then reloads the cache.
func (s *settingsService) Update(req UpdateSettingsRequest) (models.AppSettings, error) {
	if req.SummaryEmail != nil && *req.SummaryEmail != "" && !utils.IsValidEmail(*req.SummaryEmail) {
		return models.AppSettings{}, fmt.Errorf("%w: summary_email is not a valid email address", ErrValidation)
	}
	if req.UnitTypes != nil && len(parseUnitTypes(strings.Join(*req.UnitTypes, ","))) == 0 {
		return models.AppSettings{}, fmt.Errorf("%w: unit_types must contain at least one unit", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.AppSettings{}, fmt.Errorf("failed to start transaction for settings update: %w", err)
	}
	defer tx.Rollback()

	upserts := map[string]*string{}
	if req.UnitTypes != nil {
		value := strings.Join(parseUnitTypes(strings.Join(*req.UnitTypes, ",")), ", ")
		upserts[models.SettingKeyUnitTypes] = &value
	}
	if req.EnableManageStock != nil {
		value := formatSettingBool(*req.EnableManageStock)
		upserts[models.SettingKeyManageStock] = &value
	}
	if req.EnableDecimalQuantities != nil {
		value := formatSettingBool(*req.EnableDecimalQuantities)
		upserts[models.SettingKeyDecimalQty] = &value
	}
	if req.SummaryEmail != nil {
		value := strings.TrimSpace(*req.SummaryEmail)
		upserts[models.SettingKeySummaryEmail] = &value
	}
	if req.AlertsEnabled != nil {
		value := formatSettingBool(*req.AlertsEnabled)
		upserts[models.SettingKeyAlertsEnabled] = &value
	}

	for key, value := range upserts {
		if err := s.settingsRepo.Upsert(tx, key, *value); err != nil {
			return models.AppSettings{}, fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.AppSettings{}, fmt.Errorf("failed to commit settings update: %w", err)
	}

	if err := s.Reload(); err != nil {
		return models.AppSettings{}, err
	}
	return s.Get(), nil
}

func parseUnitTypes(value string) []string {
	parts := strings.Split(value, ",")
	units := make([]string, 0, len(parts))
	for _, part := range parts {
		if unit := strings.TrimSpace(part); unit != "" {
			units = append(units, unit)
		}
	}
	return units
}

func parseSettingBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func formatSettingBool(value bool) string {
	if value {
		return "1"
	}
	return "0"
}
