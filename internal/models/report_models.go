package models

// ProductionReportRow is one product's production-versus-sales line.
// NetAdded = Produced - Wasted; Remaining = NetAdded - Sold; a product that
// sold without any production in range is oversold with Remaining = -Sold.
type ProductionReportRow struct {
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	Produced     float64 `json:"total_produced"`
	Wasted       float64 `json:"total_wasted"`
	NetAdded     float64 `json:"net_added"`
	Sold         float64 `json:"total_sold"`
	CurrentStock float64 `json:"current_stock"` // display only, clamped at zero
	Remaining    float64 `json:"remaining_stock"`
	Oversold     bool    `json:"oversold"`
}

// ProductionReportTotals holds the column-wise sums of the report rows.
type ProductionReportTotals struct {
	Produced     float64 `json:"total_produced"`
	Wasted       float64 `json:"total_wasted"`
	NetAdded     float64 `json:"net_added"`
	Sold         float64 `json:"total_sold"`
	CurrentStock float64 `json:"current_stock"`
	Remaining    float64 `json:"remaining_stock"`
}

// ProductionReportChart carries the parallel series consumed by the chart.
type ProductionReportChart struct {
	Labels   []string  `json:"labels"`
	Produced []float64 `json:"produced"`
	Wasted   []float64 `json:"wasted"`
	Sold     []float64 `json:"sold"`
}

// ProductionReportFilters echoes the resolved filter state back to the client.
type ProductionReportFilters struct {
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	ProductID   *int64  `json:"product_id,omitempty"`
	ProductName *string `json:"product_name,omitempty"`
}

// ProductionReport is the full aggregator payload.
type ProductionReport struct {
	Rows    []ProductionReportRow   `json:"rows"`
	Totals  ProductionReportTotals  `json:"totals"`
	Chart   ProductionReportChart   `json:"chart"`
	Filters ProductionReportFilters `json:"filters"`
}

// ProductionAggregate is the per-product produced/wasted sum from the log.
type ProductionAggregate struct {
	ProductID   int64
	ProductName string
	Produced    float64
	Wasted      float64
}

// SalesAggregate is the per-product quantity sold from order lines.
type SalesAggregate struct {
	ProductID int64
	Sold      float64
}

// InventorySummary totals material purchases and usage over a range.
type InventorySummary struct {
	PurchasesQuantity float64 `json:"purchases_quantity"`
	PurchasesValue    float64 `json:"purchases_value"`
	UsageQuantity     float64 `json:"usage_quantity"`
}

// MaterialAggregate is one material's totals in an inventory report.
type MaterialAggregate struct {
	MaterialID   int64   `json:"material_id"`
	MaterialName string  `json:"material_name"`
	UnitType     string  `json:"unit_type"`
	Quantity     float64 `json:"quantity"`
	Value        float64 `json:"value"`
}

// ReportRequestParams holds common query parameters for report endpoints.
type ReportRequestParams struct {
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`   // YYYY-MM-DD
	ProductID *int64 `form:"product_id"`
}
