package models

import "time"

// Setting keys stored in application_settings.
const (
	SettingKeyUnitTypes     = "unit_types"
	SettingKeyManageStock   = "enable_manage_stock"
	SettingKeyDecimalQty    = "enable_decimal_quantities"
	SettingKeySummaryEmail  = "summary_email"
	SettingKeyAlertsEnabled = "alerts_enabled"
)

// ApplicationSetting represents a key-value pair for application configuration
type ApplicationSetting struct {
	SettingKey   string    `json:"setting_key" db:"setting_key" binding:"required"`
	SettingValue *string   `json:"setting_value,omitempty" db:"setting_value"`
	Description  *string   `json:"description,omitempty" db:"description"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// AppSettings is the typed view of application_settings consumed by services.
// Services receive it through the settings service rather than reading option
// rows themselves.
type AppSettings struct {
	UnitTypes               []string `json:"unit_types"`
	EnableManageStock       bool     `json:"enable_manage_stock"`
	EnableDecimalQuantities bool     `json:"enable_decimal_quantities"`
	SummaryEmail            string   `json:"summary_email"`
	AlertsEnabled           bool     `json:"alerts_enabled"`
}

// DefaultAppSettings returns the values seeded when a key is missing.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		UnitTypes:               []string{"kg", "litre", "piece"},
		EnableManageStock:       true,
		EnableDecimalQuantities: false,
		SummaryEmail:            "",
		AlertsEnabled:           true,
	}
}
