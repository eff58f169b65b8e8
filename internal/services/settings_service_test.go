package services

import (
	"testing"

	"bakery_backend/internal/models"
	"bakery_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettingsRepo struct {
	values map[string]string
}

func (r *fakeSettingsRepo) GetAll() ([]models.ApplicationSetting, error) {
	rows := []models.ApplicationSetting{}
	for key, value := range r.values {
		v := value
		rows = append(rows, models.ApplicationSetting{SettingKey: key, SettingValue: &v})
	}
	return rows, nil
}

func (r *fakeSettingsRepo) Upsert(_ repositories.SQLExecutor, key, value string) error {
	r.values[key] = value
	return nil
}

func newSettingsFixture(t *testing.T, values map[string]string) (SettingsService, *fakeSettingsRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := &fakeSettingsRepo{values: values}
	return NewSettingsService(repo, db), repo, mock
}

func TestSettingsLoadFromStoredRows(t *testing.T) {
	svc, _, _ := newSettingsFixture(t, map[string]string{
		models.SettingKeyUnitTypes:     "kg, litre , piece,,box",
		models.SettingKeyManageStock:   "0",
		models.SettingKeyDecimalQty:    "1",
		models.SettingKeySummaryEmail:  " owner@bakery.test ",
		models.SettingKeyAlertsEnabled: "true",
	})

	settings := svc.Get()
	assert.Equal(t, []string{"kg", "litre", "piece", "box"}, settings.UnitTypes)
	assert.False(t, settings.EnableManageStock)
	assert.True(t, settings.EnableDecimalQuantities)
	assert.Equal(t, "owner@bakery.test", settings.SummaryEmail)
	assert.True(t, settings.AlertsEnabled)
}

func TestSettingsMissingKeysFallBackToDefaults(t *testing.T) {
	svc, _, _ := newSettingsFixture(t, map[string]string{})

	settings := svc.Get()
	defaults := models.DefaultAppSettings()
	assert.Equal(t, defaults.UnitTypes, settings.UnitTypes)
	assert.Equal(t, defaults.EnableManageStock, settings.EnableManageStock)
	assert.Equal(t, defaults.EnableDecimalQuantities, settings.EnableDecimalQuantities)
	assert.Equal(t, defaults.AlertsEnabled, settings.AlertsEnabled)
}

func TestSettingsGetReturnsIndependentCopy(t *testing.T) {
	svc, _, _ := newSettingsFixture(t, map[string]string{})

	first := svc.Get()
	first.UnitTypes[0] = "tampered"

	second := svc.Get()
	assert.NotEqual(t, "tampered", second.UnitTypes[0])
}

func TestSettingsUpdatePersistsAndReloads(t *testing.T) {
	svc, repo, mock := newSettingsFixture(t, map[string]string{})

	mock.ExpectBegin()
	mock.ExpectCommit()

	manageStock := false
	email := "owner@bakery.test"
	units := []string{"kg", "dozen"}
	settings, err := svc.Update(UpdateSettingsRequest{
		UnitTypes:         &units,
		EnableManageStock: &manageStock,
		SummaryEmail:      &email,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"kg", "dozen"}, settings.UnitTypes)
	assert.False(t, settings.EnableManageStock)
	assert.Equal(t, "owner@bakery.test", settings.SummaryEmail)

	assert.Equal(t, "kg, dozen", repo.values[models.SettingKeyUnitTypes])
	assert.Equal(t, "0", repo.values[models.SettingKeyManageStock])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsUpdateRejectsInvalidEmail(t *testing.T) {
	svc, _, _ := newSettingsFixture(t, map[string]string{})

	email := "not-an-email"
	_, err := svc.Update(UpdateSettingsRequest{SummaryEmail: &email})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSettingsUpdateRejectsEmptyUnitList(t *testing.T) {
	svc, _, _ := newSettingsFixture(t, map[string]string{})

	units := []string{"  ", ""}
	_, err := svc.Update(UpdateSettingsRequest{UnitTypes: &units})
	assert.ErrorIs(t, err, ErrValidation)
}
