package repositories

import (
	"testing"
	"time"

	"bakery_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*productionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &productionRepository{db: db}, mock
}

func TestInsertLogEntryReturnsID(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery("INSERT INTO production_log").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	entry := &models.ProductionLogEntry{
		ProductID:        1,
		QuantityProduced: 5,
		QuantityWasted:   1,
		PreviousStock:    10,
		NewStock:         14,
		UnitType:         "piece",
	}
	id, err := repo.InsertLogEntry(repo.db, entry)
	require.NoError(t, err)

	assert.Equal(t, int64(7), id)
	assert.Equal(t, int64(7), entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetColdBalanceForUpdateMissingRowIsZero(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery("SELECT quantity FROM cold_storage").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

	quantity, err := repo.GetColdBalanceForUpdate(repo.db, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, quantity)
}

func TestGetColdBalanceForUpdateReturnsBalance(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery("SELECT quantity FROM cold_storage").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(12.5))

	quantity, err := repo.GetColdBalanceForUpdate(repo.db, 5)
	require.NoError(t, err)
	assert.Equal(t, 12.5, quantity)
}

func TestSetColdStorageQuantityMissingRow(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectExec("UPDATE cold_storage SET quantity").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetColdStorageQuantity(repo.db, 5, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLatestBatchGroupsByTimestamp(t *testing.T) {
	repo, mock := newMockDB(t)

	batchTime := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "product_id", "name", "quantity_produced", "quantity_wasted",
		"previous_stock", "new_stock", "unit_type", "note", "created_by", "created_at",
	}).
		AddRow(int64(1), int64(1), "Sourdough", 10.0, 1.0, 5.0, 14.0, "piece", nil, "baker", batchTime).
		AddRow(int64(2), int64(9), "Deleted Product #9", 3.0, 0.0, 0.0, 3.0, "piece", nil, "baker", batchTime)

	mock.ExpectQuery("FROM production_log pl").WillReturnRows(rows)

	entries, err := repo.GetLatestBatch()
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "Sourdough", entries[0].ProductName)
	assert.Equal(t, "Deleted Product #9", entries[1].ProductName)
	assert.Equal(t, batchTime, entries[0].CreatedAt)
}
