package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakery_backend/internal/models"
)

// OrderRepository defines the interface for order database operations.
type OrderRepository interface {
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	InsertItem(executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderByID(id int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	UpdateStatus(executor SQLExecutor, id int64, status string) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders (status, ordered_by, order_time, total_amount, note, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	if order.OrderTime.IsZero() {
		order.OrderTime = currentTime
	}
	err := executor.QueryRow(query,
		order.Status, order.OrderedBy, order.OrderTime, order.TotalAmount, order.Note,
		currentTime, currentTime,
	).Scan(&order.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) InsertItem(executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items (order_id, product_id, variation_id, quantity, unit_price, total_price)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := executor.QueryRow(query,
		item.OrderID, item.ProductID, item.VariationID, item.Quantity, item.UnitPrice, item.TotalPrice,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: inserting order item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *orderRepository) GetOrderByID(id int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT id, status, ordered_by, order_time, total_amount, note, created_at, updated_at
	          FROM orders WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&order.ID, &order.Status, &order.OrderedBy, &order.OrderTime,
		&order.TotalAmount, &order.Note, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, id, err)
	}

	itemsQuery := `SELECT id, order_id, product_id, variation_id, quantity, unit_price, total_price
	               FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := r.db.Query(itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("%w: getting items for order ID %d: %v", ErrDatabaseError, id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.VariationID,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		order.Items = append(order.Items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order items: %v", ErrDatabaseError, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, status, ordered_by, order_time, total_amount, note, created_at, updated_at,
	       COUNT(*) OVER() AS total_count
	  FROM orders`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.StartDate != nil && *filters.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("order_time >= $%d", argCount))
		args = append(args, *filters.StartDate+" 00:00:00")
		argCount++
	}
	if filters.EndDate != nil && *filters.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("order_time <= $%d", argCount))
		args = append(args, *filters.EndDate+" 23:59:59")
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY order_time DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		if err := rows.Scan(
			&o.ID, &o.Status, &o.OrderedBy, &o.OrderTime,
			&o.TotalAmount, &o.Note, &o.CreatedAt, &o.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating orders: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) UpdateStatus(executor SQLExecutor, id int64, status string) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: updating status for order ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
