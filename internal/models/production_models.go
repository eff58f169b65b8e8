package models

import "time"

// Production dispositions: where a finished batch goes.
const (
	ProductionTypeDirect      = "direct"
	ProductionTypeColdStorage = "cold_storage"
)

// Unit tags used on cold-storage log rows so history can tell cook and waste
// operations apart from regular production entries.
const (
	UnitColdStorageCook  = "cold_storage_cook"
	UnitColdStorageWaste = "cold_storage_waste"
)

// ProductionLogEntry is an append-only record of one reconciliation step.
// NewStock is the catalog stock after the entry was applied:
// max(0, previous_stock + quantity_produced - quantity_wasted).
type ProductionLogEntry struct {
	ID               int64     `json:"id" db:"id"`
	ProductID        int64     `json:"product_id" db:"product_id"`
	ProductName      string    `json:"product_name,omitempty"` // joined from products
	QuantityProduced float64   `json:"quantity_produced" db:"quantity_produced"`
	QuantityWasted   float64   `json:"quantity_wasted" db:"quantity_wasted"`
	PreviousStock    float64   `json:"previous_stock" db:"previous_stock"`
	NewStock         float64   `json:"new_stock" db:"new_stock"`
	UnitType         string    `json:"unit_type" db:"unit_type"`
	Note             *string   `json:"note,omitempty" db:"note"`
	CreatedBy        *string   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ColdStorageBalance is the per-product cold storage level.
type ColdStorageBalance struct {
	ID          int64     `json:"id" db:"id"`
	ProductID   int64     `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name,omitempty"` // joined from products
	Quantity    float64   `json:"quantity" db:"quantity"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductionLogFilters narrows the paged production history listing.
type ProductionLogFilters struct {
	ProductID *int64  `form:"product_id"`
	StartDate *string `form:"start_date"` // YYYY-MM-DD
	EndDate   *string `form:"end_date"`   // YYYY-MM-DD
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}
