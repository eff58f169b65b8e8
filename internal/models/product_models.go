package models

import "time"

// Product statuses mirror the catalog's binary stock flag.
const (
	StockStatusInStock    = "instock"
	StockStatusOutOfStock = "outofstock"
)

// Product represents a sellable catalog item. A variation is a child product
// whose ParentID points at the configurable parent; stock always lives on the
// sellable row.
type Product struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	SKU           *string   `json:"sku,omitempty" db:"sku"`
	UnitType      string    `json:"unit_type" db:"unit_type"`
	Price         float64   `json:"price" db:"price"`
	ParentID      *int64    `json:"parent_id,omitempty" db:"parent_id"`
	ManageStock   bool      `json:"manage_stock" db:"manage_stock"`
	StockQuantity float64   `json:"stock_quantity" db:"stock_quantity"`
	StockStatus   string    `json:"stock_status" db:"stock_status"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ProductStockInfo is the lightweight stock lookup payload.
type ProductStockInfo struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Stock       float64 `json:"stock"`
	ManageStock bool    `json:"manage_stock"`
}

// ProductFilters defines the available filters for querying the catalog.
type ProductFilters struct {
	Term     string `form:"term"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
