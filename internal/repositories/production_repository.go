package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakery_backend/internal/models"
)

// ProductionRepository defines the interface for production history and
// cold-storage database operations.
type ProductionRepository interface {
	InsertLogEntry(executor SQLExecutor, entry *models.ProductionLogEntry) (int64, error)
	// GetLatestBatch returns the rows sharing the most recent created_at,
	// i.e. the last submitted production batch.
	GetLatestBatch() ([]models.ProductionLogEntry, error)
	GetLog(filters models.ProductionLogFilters) ([]models.ProductionLogEntry, int, error)

	// GetColdBalanceForUpdate locks the cold-storage row for the surrounding
	// transaction. Returns 0 (not ErrNotFound) when no row exists yet.
	GetColdBalanceForUpdate(executor SQLExecutor, productID int64) (float64, error)
	AddToColdStorage(executor SQLExecutor, productID int64, quantity float64) error
	SetColdStorageQuantity(executor SQLExecutor, productID int64, quantity float64) error
	ListColdStorage() ([]models.ColdStorageBalance, error)
}

type productionRepository struct {
	db *sql.DB
}

// NewProductionRepository creates a new instance of ProductionRepository.
func NewProductionRepository(db *sql.DB) ProductionRepository {
	return &productionRepository{db: db}
}

func (r *productionRepository) InsertLogEntry(executor SQLExecutor, entry *models.ProductionLogEntry) (int64, error) {
	query := `INSERT INTO production_log
	          (product_id, quantity_produced, quantity_wasted, previous_stock, new_stock, unit_type, note, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		entry.ProductID, entry.QuantityProduced, entry.QuantityWasted,
		entry.PreviousStock, entry.NewStock, entry.UnitType,
		entry.Note, entry.CreatedBy, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: inserting production log entry: %v", ErrDatabaseError, err)
	}
	return entry.ID, nil
}

func (r *productionRepository) GetLatestBatch() ([]models.ProductionLogEntry, error) {
	query := `SELECT pl.id, pl.product_id, COALESCE(p.name, 'Deleted Product #' || pl.product_id),
	                 pl.quantity_produced, pl.quantity_wasted, pl.previous_stock, pl.new_stock,
	                 pl.unit_type, pl.note, pl.created_by, pl.created_at
	          FROM production_log pl
	          LEFT JOIN products p ON p.id = pl.product_id
	          WHERE pl.created_at = (SELECT MAX(created_at) FROM production_log)
	          ORDER BY pl.id`
	return r.queryLogEntries(query)
}

func (r *productionRepository) GetLog(filters models.ProductionLogFilters) ([]models.ProductionLogEntry, int, error) {
	entries := []models.ProductionLogEntry{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT pl.id, pl.product_id, COALESCE(p.name, 'Deleted Product #' || pl.product_id),
	       pl.quantity_produced, pl.quantity_wasted, pl.previous_stock, pl.new_stock,
	       pl.unit_type, pl.note, pl.created_by, pl.created_at,
	       COUNT(*) OVER() AS total_count
	  FROM production_log pl
	  LEFT JOIN products p ON p.id = pl.product_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("pl.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.StartDate != nil && *filters.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("pl.created_at >= $%d", argCount))
		args = append(args, *filters.StartDate+" 00:00:00")
		argCount++
	}
	if filters.EndDate != nil && *filters.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("pl.created_at <= $%d", argCount))
		args = append(args, *filters.EndDate+" 23:59:59")
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY pl.created_at DESC, pl.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting production log: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.ProductionLogEntry
		if err := rows.Scan(
			&e.ID, &e.ProductID, &e.ProductName,
			&e.QuantityProduced, &e.QuantityWasted, &e.PreviousStock, &e.NewStock,
			&e.UnitType, &e.Note, &e.CreatedBy, &e.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning production log entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating production log: %v", ErrDatabaseError, err)
	}
	return entries, totalCount, nil
}

func (r *productionRepository) queryLogEntries(query string, args ...interface{}) ([]models.ProductionLogEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying production log: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	entries := []models.ProductionLogEntry{}
	for rows.Next() {
		var e models.ProductionLogEntry
		if err := rows.Scan(
			&e.ID, &e.ProductID, &e.ProductName,
			&e.QuantityProduced, &e.QuantityWasted, &e.PreviousStock, &e.NewStock,
			&e.UnitType, &e.Note, &e.CreatedBy, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning production log entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating production log: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

func (r *productionRepository) GetColdBalanceForUpdate(executor SQLExecutor, productID int64) (float64, error) {
	var quantity float64
	query := `SELECT quantity FROM cold_storage WHERE product_id = $1 FOR UPDATE`
	err := executor.QueryRow(query, productID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: locking cold storage for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return quantity, nil
}

func (r *productionRepository) AddToColdStorage(executor SQLExecutor, productID int64, quantity float64) error {
	query := `INSERT INTO cold_storage (product_id, quantity, updated_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (product_id)
	          DO UPDATE SET quantity = cold_storage.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	if _, err := executor.Exec(query, productID, quantity, time.Now()); err != nil {
		return fmt.Errorf("%w: adding to cold storage for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return nil
}

func (r *productionRepository) SetColdStorageQuantity(executor SQLExecutor, productID int64, quantity float64) error {
	query := `UPDATE cold_storage SET quantity = $1, updated_at = $2 WHERE product_id = $3`
	result, err := executor.Exec(query, quantity, time.Now(), productID)
	if err != nil {
		return fmt.Errorf("%w: setting cold storage quantity for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productionRepository) ListColdStorage() ([]models.ColdStorageBalance, error) {
	query := `SELECT cs.id, cs.product_id, COALESCE(p.name, 'Deleted Product #' || cs.product_id), cs.quantity, cs.updated_at
	          FROM cold_storage cs
	          LEFT JOIN products p ON p.id = cs.product_id
	          WHERE cs.quantity > 0
	          ORDER BY p.name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: listing cold storage: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	balances := []models.ColdStorageBalance{}
	for rows.Next() {
		var b models.ColdStorageBalance
		if err := rows.Scan(&b.ID, &b.ProductID, &b.ProductName, &b.Quantity, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning cold storage balance: %v", ErrDatabaseError, err)
		}
		balances = append(balances, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating cold storage: %v", ErrDatabaseError, err)
	}
	return balances, nil
}
