package models

import "time"

// Order statuses. Production reports only count processing and completed
// orders as sales.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Order is a sales order; creating one decrements catalog stock per line.
type Order struct {
	ID          int64       `json:"id" db:"id"`
	Status      string      `json:"status" db:"status"`
	OrderedBy   *string     `json:"ordered_by,omitempty" db:"ordered_by"`
	OrderTime   time.Time   `json:"order_time" db:"order_time"`
	TotalAmount float64     `json:"total_amount" db:"total_amount"`
	Note        *string     `json:"note,omitempty" db:"note"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	Items       []OrderItem `json:"items,omitempty"`
}

// OrderItem is one sales line. VariationID is set when the line sold a
// variation; reporting resolves the line to the variation when it is non-zero
// and to ProductID otherwise.
type OrderItem struct {
	ID          int64   `json:"id" db:"id"`
	OrderID     int64   `json:"order_id" db:"order_id"`
	ProductID   int64   `json:"product_id" db:"product_id"`
	VariationID *int64  `json:"variation_id,omitempty" db:"variation_id"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	TotalPrice  float64 `json:"total_price" db:"total_price"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	Status    *string `form:"status"`
	StartDate *string `form:"start_date"` // YYYY-MM-DD
	EndDate   *string `form:"end_date"`   // YYYY-MM-DD
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}
