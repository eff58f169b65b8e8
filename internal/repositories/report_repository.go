package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bakery_backend/internal/models"

	"github.com/lib/pq"
)

// ReportRepository defines the aggregate queries feeding the report endpoints.
// All ranges are inclusive timestamps already normalized by the service.
type ReportRepository interface {
	// ProductionAggregates sums produced/wasted per product from the
	// production log. Cold-storage waste rows carry produced=0 so they only
	// contribute to the wasted column.
	ProductionAggregates(start, end time.Time, productID *int64) ([]models.ProductionAggregate, error)
	// SalesAggregates sums quantities sold per resolved product from order
	// lines of processing/completed orders. A line resolves to its variation
	// when variation_id is non-zero, otherwise to its product.
	SalesAggregates(start, end time.Time, productID *int64) ([]models.SalesAggregate, error)
	// CurrentStocks returns the clamped display stock for the given products.
	CurrentStocks(ids []int64) (map[int64]float64, error)

	InventorySummary(start, end time.Time) (*models.InventorySummary, error)
	MaterialAggregates(txnType string, start, end time.Time) ([]models.MaterialAggregate, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) ProductionAggregates(start, end time.Time, productID *int64) ([]models.ProductionAggregate, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT pl.product_id,
	       COALESCE(MAX(p.name), 'Deleted Product #' || pl.product_id),
	       COALESCE(SUM(pl.quantity_produced), 0),
	       COALESCE(SUM(pl.quantity_wasted), 0)
	  FROM production_log pl
	  LEFT JOIN products p ON p.id = pl.product_id AND p.is_active = TRUE
	  WHERE pl.created_at BETWEEN $1 AND $2`)

	args := []interface{}{start, end}
	if productID != nil {
		queryBuilder.WriteString(" AND pl.product_id = $3")
		args = append(args, *productID)
	}
	queryBuilder.WriteString(" GROUP BY pl.product_id ORDER BY pl.product_id")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating production: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	aggregates := []models.ProductionAggregate{}
	for rows.Next() {
		var a models.ProductionAggregate
		if err := rows.Scan(&a.ProductID, &a.ProductName, &a.Produced, &a.Wasted); err != nil {
			return nil, fmt.Errorf("%w: scanning production aggregate: %v", ErrDatabaseError, err)
		}
		aggregates = append(aggregates, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating production aggregates: %v", ErrDatabaseError, err)
	}
	return aggregates, nil
}

func (r *reportRepository) SalesAggregates(start, end time.Time, productID *int64) ([]models.SalesAggregate, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT COALESCE(NULLIF(oi.variation_id, 0), oi.product_id) AS resolved_id,
	       COALESCE(SUM(oi.quantity), 0)
	  FROM order_items oi
	  JOIN orders o ON o.id = oi.order_id
	  WHERE o.status IN ('processing', 'completed')
	    AND o.order_time BETWEEN $1 AND $2`)

	args := []interface{}{start, end}
	if productID != nil {
		queryBuilder.WriteString(" AND COALESCE(NULLIF(oi.variation_id, 0), oi.product_id) = $3")
		args = append(args, *productID)
	}
	queryBuilder.WriteString(" GROUP BY resolved_id ORDER BY resolved_id")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	aggregates := []models.SalesAggregate{}
	for rows.Next() {
		var a models.SalesAggregate
		if err := rows.Scan(&a.ProductID, &a.Sold); err != nil {
			return nil, fmt.Errorf("%w: scanning sales aggregate: %v", ErrDatabaseError, err)
		}
		aggregates = append(aggregates, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sales aggregates: %v", ErrDatabaseError, err)
	}
	return aggregates, nil
}

func (r *reportRepository) CurrentStocks(ids []int64) (map[int64]float64, error) {
	stocks := make(map[int64]float64, len(ids))
	if len(ids) == 0 {
		return stocks, nil
	}
	query := `SELECT id, GREATEST(COALESCE(stock_quantity, 0), 0) FROM products WHERE id = ANY($1) AND is_active = TRUE`
	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: reading current stocks: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var stock float64
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, fmt.Errorf("%w: scanning current stock: %v", ErrDatabaseError, err)
		}
		stocks[id] = stock
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating current stocks: %v", ErrDatabaseError, err)
	}
	return stocks, nil
}

func (r *reportRepository) InventorySummary(start, end time.Time) (*models.InventorySummary, error) {
	summary := &models.InventorySummary{}
	query := `SELECT
	            COALESCE(SUM(quantity) FILTER (WHERE type = 'add'), 0),
	            COALESCE(SUM(quantity * price) FILTER (WHERE type = 'add'), 0),
	            COALESCE(SUM(quantity) FILTER (WHERE type = 'use'), 0)
	          FROM material_transactions
	          WHERE transaction_date BETWEEN $1 AND $2`
	err := r.db.QueryRow(query, start, end).Scan(
		&summary.PurchasesQuantity, &summary.PurchasesValue, &summary.UsageQuantity,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: summarizing inventory: %v", ErrDatabaseError, err)
	}
	return summary, nil
}

func (r *reportRepository) MaterialAggregates(txnType string, start, end time.Time) ([]models.MaterialAggregate, error) {
	query := `SELECT mt.material_id, COALESCE(rm.name, ''), COALESCE(rm.unit_type, ''),
	                 COALESCE(SUM(mt.quantity), 0), COALESCE(SUM(mt.quantity * mt.price), 0)
	          FROM material_transactions mt
	          LEFT JOIN raw_materials rm ON rm.id = mt.material_id
	          WHERE mt.type = $1 AND mt.transaction_date BETWEEN $2 AND $3
	          GROUP BY mt.material_id, rm.name, rm.unit_type
	          ORDER BY rm.name`
	rows, err := r.db.Query(query, txnType, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating materials: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	aggregates := []models.MaterialAggregate{}
	for rows.Next() {
		var a models.MaterialAggregate
		if err := rows.Scan(&a.MaterialID, &a.MaterialName, &a.UnitType, &a.Quantity, &a.Value); err != nil {
			return nil, fmt.Errorf("%w: scanning material aggregate: %v", ErrDatabaseError, err)
		}
		aggregates = append(aggregates, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating material aggregates: %v", ErrDatabaseError, err)
	}
	return aggregates, nil
}
