package models

import "time"

// Material transaction types.
const (
	TransactionTypeAdd = "add"
	TransactionTypeUse = "use"
)

// RawMaterial represents an ingredient tracked by the inventory ledger.
// Quantity is the current balance and never drops below zero; WarningQuantity
// is the low-stock alert threshold.
type RawMaterial struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	UnitType        string    `json:"unit_type" db:"unit_type"`
	Quantity        float64   `json:"quantity" db:"quantity"`
	WarningQuantity float64   `json:"warning_quantity" db:"warning_quantity"`
	Supplier        *string   `json:"supplier,omitempty" db:"supplier"`
	Price           float64   `json:"price" db:"price"`
	LastUpdated     time.Time `json:"last_updated" db:"last_updated"`
	LastEditedBy    *string   `json:"last_edited_by,omitempty" db:"last_edited_by"`
}

// MaterialTransaction is an append-only audit row for a stock change.
type MaterialTransaction struct {
	ID              int64     `json:"id" db:"id"`
	MaterialID      int64     `json:"material_id" db:"material_id"`
	MaterialName    string    `json:"material_name,omitempty"` // joined from raw_materials
	Type            string    `json:"type" db:"type"`          // add | use
	Quantity        float64   `json:"quantity" db:"quantity"`
	Price           float64   `json:"price" db:"price"`
	Supplier        *string   `json:"supplier,omitempty" db:"supplier"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	TransactionDate time.Time `json:"transaction_date" db:"transaction_date"`
	CreatedBy       *string   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// TransactionFilters narrows the paged transaction listing and the CSV export.
type TransactionFilters struct {
	MaterialID *int64  `form:"material_id"`
	Type       *string `form:"type"`       // add | use
	StartDate  *string `form:"start_date"` // YYYY-MM-DD
	EndDate    *string `form:"end_date"`   // YYYY-MM-DD
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"` // -1 returns everything
}
