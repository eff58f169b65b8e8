package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakery_backend/internal/models"

	"github.com/lib/pq"
)

// ProductRepository defines the interface for catalog database operations.
type ProductRepository interface {
	Create(executor SQLExecutor, product *models.Product) (int64, error)
	GetByID(id int64) (*models.Product, error)
	// GetByIDForUpdate locks the product row for the duration of the
	// surrounding transaction. Callers must pass a *sql.Tx.
	GetByIDForUpdate(executor SQLExecutor, id int64) (*models.Product, error)
	Search(filters models.ProductFilters) ([]models.Product, int, error)
	Update(executor SQLExecutor, product *models.Product) error
	SoftDelete(executor SQLExecutor, id int64) error
	// SetStock writes back the reconciled stock state for a locked row.
	SetStock(executor SQLExecutor, id int64, quantity float64, status string, manageStock bool) error
	GetStockInfo(id int64) (*models.ProductStockInfo, error)
	// GetNamesByIDs resolves product names in bulk for report rows.
	// Missing ids are simply absent from the result map.
	GetNamesByIDs(ids []int64) (map[int64]string, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, sku, unit_type, price, parent_id, manage_stock, stock_quantity, stock_status, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }, p *models.Product) error {
	return row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.UnitType, &p.Price, &p.ParentID,
		&p.ManageStock, &p.StockQuantity, &p.StockStatus, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *productRepository) Create(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products (name, sku, unit_type, price, parent_id, manage_stock, stock_quantity, stock_status, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		product.Name, product.SKU, product.UnitType, product.Price, product.ParentID,
		product.ManageStock, product.StockQuantity, product.StockStatus, true,
		currentTime, currentTime,
	).Scan(&product.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: product SKU already exists (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product.ID, nil
}

func (r *productRepository) GetByID(id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND is_active = TRUE`
	if err := scanProduct(r.db.QueryRow(query, id), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return product, nil
}

func (r *productRepository) GetByIDForUpdate(executor SQLExecutor, id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND is_active = TRUE FOR UPDATE`
	if err := scanProduct(executor.QueryRow(query, id), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking product ID %d: %v", ErrDatabaseError, id, err)
	}
	return product, nil
}

func (r *productRepository) Search(filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + `, COUNT(*) OVER() AS total_count FROM products WHERE is_active = TRUE`)

	var args []interface{}
	argCount := 1
	if filters.Term != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+filters.Term+"%")
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: searching products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.SKU, &p.UnitType, &p.Price, &p.ParentID,
			&p.ManageStock, &p.StockQuantity, &p.StockStatus, &p.IsActive,
			&p.CreatedAt, &p.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

func (r *productRepository) Update(executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products SET
	            name = $1, sku = $2, unit_type = $3, price = $4, parent_id = $5,
	            manage_stock = $6, stock_quantity = $7, stock_status = $8, updated_at = $9
	          WHERE id = $10 AND is_active = TRUE`
	result, err := executor.Exec(query,
		product.Name, product.SKU, product.UnitType, product.Price, product.ParentID,
		product.ManageStock, product.StockQuantity, product.StockStatus, time.Now(), product.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product SKU already exists", ErrDuplicateKey)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete deactivates a product instead of removing the row so that
// production logs and order lines keep resolving.
func (r *productRepository) SoftDelete(executor SQLExecutor, id int64) error {
	query := `UPDATE products SET is_active = FALSE, updated_at = $1 WHERE id = $2 AND is_active = TRUE`
	result, err := executor.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) SetStock(executor SQLExecutor, id int64, quantity float64, status string, manageStock bool) error {
	query := `UPDATE products SET stock_quantity = $1, stock_status = $2, manage_stock = $3, updated_at = $4 WHERE id = $5`
	result, err := executor.Exec(query, quantity, status, manageStock, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: setting stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) GetStockInfo(id int64) (*models.ProductStockInfo, error) {
	info := &models.ProductStockInfo{}
	query := `SELECT id, name, COALESCE(stock_quantity, 0), manage_stock FROM products WHERE id = $1 AND is_active = TRUE`
	err := r.db.QueryRow(query, id).Scan(&info.ProductID, &info.ProductName, &info.Stock, &info.ManageStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting stock info for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return info, nil
}

func (r *productRepository) GetNamesByIDs(ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	query := `SELECT id, name FROM products WHERE id = ANY($1) AND is_active = TRUE`
	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: resolving product names: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("%w: scanning product name: %v", ErrDatabaseError, err)
		}
		names[id] = name
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product names: %v", ErrDatabaseError, err)
	}
	return names, nil
}
