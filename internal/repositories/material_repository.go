package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakery_backend/internal/models"
)

// MaterialRepository defines the interface for raw-material and
// material-transaction database operations.
type MaterialRepository interface {
	Create(executor SQLExecutor, material *models.RawMaterial) (int64, error)
	GetByID(id int64) (*models.RawMaterial, error)
	// GetByIDForUpdate locks the material row for the surrounding transaction.
	GetByIDForUpdate(executor SQLExecutor, id int64) (*models.RawMaterial, error)
	List(page, pageSize int) ([]models.RawMaterial, int, error)
	Update(executor SQLExecutor, material *models.RawMaterial) error
	Delete(executor SQLExecutor, id int64) error
	// SetQuantity writes back the new balance and edit stamp for a locked row.
	SetQuantity(executor SQLExecutor, id int64, quantity float64, editedBy *string) error
	// ListBelowThreshold returns materials at or below their warning quantity.
	ListBelowThreshold() ([]models.RawMaterial, error)

	InsertTransaction(executor SQLExecutor, txn *models.MaterialTransaction) (int64, error)
	GetTransactions(filters models.TransactionFilters) ([]models.MaterialTransaction, int, error)
}

type materialRepository struct {
	db *sql.DB
}

// NewMaterialRepository creates a new instance of MaterialRepository.
func NewMaterialRepository(db *sql.DB) MaterialRepository {
	return &materialRepository{db: db}
}

const materialColumns = `id, name, unit_type, quantity, warning_quantity, supplier, price, last_updated, last_edited_by`

func scanMaterial(row interface{ Scan(...interface{}) error }, m *models.RawMaterial) error {
	return row.Scan(
		&m.ID, &m.Name, &m.UnitType, &m.Quantity, &m.WarningQuantity,
		&m.Supplier, &m.Price, &m.LastUpdated, &m.LastEditedBy,
	)
}

func (r *materialRepository) Create(executor SQLExecutor, material *models.RawMaterial) (int64, error) {
	query := `INSERT INTO raw_materials (name, unit_type, quantity, warning_quantity, supplier, price, last_updated, last_edited_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	err := executor.QueryRow(query,
		material.Name, material.UnitType, material.Quantity, material.WarningQuantity,
		material.Supplier, material.Price, time.Now(), material.LastEditedBy,
	).Scan(&material.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: material name '%s' already exists", ErrDuplicateKey, material.Name)
		}
		return 0, fmt.Errorf("%w: creating raw material: %v", ErrDatabaseError, err)
	}
	return material.ID, nil
}

func (r *materialRepository) GetByID(id int64) (*models.RawMaterial, error) {
	material := &models.RawMaterial{}
	query := `SELECT ` + materialColumns + ` FROM raw_materials WHERE id = $1`
	if err := scanMaterial(r.db.QueryRow(query, id), material); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting raw material by ID %d: %v", ErrDatabaseError, id, err)
	}
	return material, nil
}

func (r *materialRepository) GetByIDForUpdate(executor SQLExecutor, id int64) (*models.RawMaterial, error) {
	material := &models.RawMaterial{}
	query := `SELECT ` + materialColumns + ` FROM raw_materials WHERE id = $1 FOR UPDATE`
	if err := scanMaterial(executor.QueryRow(query, id), material); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking raw material ID %d: %v", ErrDatabaseError, id, err)
	}
	return material, nil
}

func (r *materialRepository) List(page, pageSize int) ([]models.RawMaterial, int, error) {
	materials := []models.RawMaterial{}
	totalCount := 0

	query := `SELECT ` + materialColumns + `, COUNT(*) OVER() AS total_count FROM raw_materials ORDER BY name`
	var args []interface{}
	if pageSize > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, pageSize, (page-1)*pageSize)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing raw materials: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.RawMaterial
		if err := rows.Scan(
			&m.ID, &m.Name, &m.UnitType, &m.Quantity, &m.WarningQuantity,
			&m.Supplier, &m.Price, &m.LastUpdated, &m.LastEditedBy, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning raw material: %v", ErrDatabaseError, err)
		}
		materials = append(materials, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating raw materials: %v", ErrDatabaseError, err)
	}
	return materials, totalCount, nil
}

func (r *materialRepository) Update(executor SQLExecutor, material *models.RawMaterial) error {
	query := `UPDATE raw_materials SET
	            name = $1, unit_type = $2, quantity = $3, warning_quantity = $4,
	            supplier = $5, price = $6, last_updated = $7, last_edited_by = $8
	          WHERE id = $9`
	result, err := executor.Exec(query,
		material.Name, material.UnitType, material.Quantity, material.WarningQuantity,
		material.Supplier, material.Price, time.Now(), material.LastEditedBy, material.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: material name '%s' already exists", ErrDuplicateKey, material.Name)
		}
		return fmt.Errorf("%w: updating raw material ID %d: %v", ErrDatabaseError, material.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *materialRepository) Delete(executor SQLExecutor, id int64) error {
	query := `DELETE FROM raw_materials WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		return fmt.Errorf("%w: deleting raw material ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *materialRepository) SetQuantity(executor SQLExecutor, id int64, quantity float64, editedBy *string) error {
	query := `UPDATE raw_materials SET quantity = $1, last_updated = $2, last_edited_by = COALESCE($3, last_edited_by) WHERE id = $4`
	result, err := executor.Exec(query, quantity, time.Now(), editedBy, id)
	if err != nil {
		return fmt.Errorf("%w: setting quantity for raw material ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *materialRepository) ListBelowThreshold() ([]models.RawMaterial, error) {
	materials := []models.RawMaterial{}
	query := `SELECT ` + materialColumns + ` FROM raw_materials
	          WHERE warning_quantity > 0 AND quantity <= warning_quantity
	          ORDER BY name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: listing low-stock materials: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.RawMaterial
		if err := scanMaterial(rows, &m); err != nil {
			return nil, fmt.Errorf("%w: scanning low-stock material: %v", ErrDatabaseError, err)
		}
		materials = append(materials, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating low-stock materials: %v", ErrDatabaseError, err)
	}
	return materials, nil
}

func (r *materialRepository) InsertTransaction(executor SQLExecutor, txn *models.MaterialTransaction) (int64, error) {
	query := `INSERT INTO material_transactions
	          (material_id, type, quantity, price, supplier, reason, transaction_date, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if txn.TransactionDate.IsZero() {
		txn.TransactionDate = time.Now()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		txn.MaterialID, txn.Type, txn.Quantity, txn.Price,
		txn.Supplier, txn.Reason, txn.TransactionDate, txn.CreatedBy, txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: inserting material transaction: %v", ErrDatabaseError, err)
	}
	return txn.ID, nil
}

func (r *materialRepository) GetTransactions(filters models.TransactionFilters) ([]models.MaterialTransaction, int, error) {
	transactions := []models.MaterialTransaction{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT mt.id, mt.material_id, COALESCE(rm.name, ''), mt.type, mt.quantity, mt.price,
	       mt.supplier, mt.reason, mt.transaction_date, mt.created_by, mt.created_at,
	       COUNT(*) OVER() AS total_count
	  FROM material_transactions mt
	  LEFT JOIN raw_materials rm ON rm.id = mt.material_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.MaterialID != nil {
		conditions = append(conditions, fmt.Sprintf("mt.material_id = $%d", argCount))
		args = append(args, *filters.MaterialID)
		argCount++
	}
	if filters.Type != nil && *filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("mt.type = $%d", argCount))
		args = append(args, *filters.Type)
		argCount++
	}
	if filters.StartDate != nil && *filters.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("mt.transaction_date >= $%d", argCount))
		args = append(args, *filters.StartDate+" 00:00:00")
		argCount++
	}
	if filters.EndDate != nil && *filters.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("mt.transaction_date <= $%d", argCount))
		args = append(args, *filters.EndDate+" 23:59:59")
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY mt.transaction_date DESC, mt.id DESC")
	// PageSize -1 means export everything.
	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
		args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting material transactions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.MaterialTransaction
		if err := rows.Scan(
			&t.ID, &t.MaterialID, &t.MaterialName, &t.Type, &t.Quantity, &t.Price,
			&t.Supplier, &t.Reason, &t.TransactionDate, &t.CreatedBy, &t.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning material transaction: %v", ErrDatabaseError, err)
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating material transactions: %v", ErrDatabaseError, err)
	}
	return transactions, totalCount, nil
}
