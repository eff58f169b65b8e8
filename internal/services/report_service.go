package services

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"bakery_backend/internal/models"
	"bakery_backend/internal/repositories"
)

// defaultReportDays is the trailing window used when no range is given.
const defaultReportDays = 7

// ReportService joins production history against sales to answer "what was
// produced, what sold, what remains" per product, plus the raw-material
// purchase/usage aggregates.
type ReportService interface {
	ProductionReport(params models.ReportRequestParams) (*models.ProductionReport, error)
	ExportProductionReportCSV(params models.ReportRequestParams) (*CSVExport, error)
	InventorySummary(params models.ReportRequestParams) (*models.InventorySummary, error)
	MaterialPurchases(params models.ReportRequestParams) ([]models.MaterialAggregate, error)
	MaterialUsage(params models.ReportRequestParams) ([]models.MaterialAggregate, error)
}

type reportService struct {
	reportRepo  repositories.ReportRepository
	productRepo repositories.ProductRepository
}

// NewReportService creates a new instance of ReportService.
func NewReportService(reportRepo repositories.ReportRepository, productRepo repositories.ProductRepository) ReportService {
	return &reportService{reportRepo: reportRepo, productRepo: productRepo}
}

// resolveRange parses the date filters. Missing bounds fall back to the
// trailing week ending today; swapped bounds are normalized. The returned
// range spans whole days: 00:00:00 through 23:59:59.
func resolveRange(params models.ReportRequestParams) (start, end time.Time, err error) {
	today := time.Now()
	startDay := today.AddDate(0, 0, -defaultReportDays+1)
	endDay := today

	if params.StartDate != "" {
		if startDay, err = time.Parse("2006-01-02", params.StartDate); err != nil {
			return start, end, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrValidation)
		}
	}
	if params.EndDate != "" {
		if endDay, err = time.Parse("2006-01-02", params.EndDate); err != nil {
			return start, end, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrValidation)
		}
	}
	if startDay.After(endDay) {
		startDay, endDay = endDay, startDay
	}

	loc := time.Local
	start = time.Date(startDay.Year(), startDay.Month(), startDay.Day(), 0, 0, 0, 0, loc)
	end = time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, 0, loc)
	return start, end, nil
}

func (s *reportService) ProductionReport(params models.ReportRequestParams) (*models.ProductionReport, error) {
	start, end, err := resolveRange(params)
	if err != nil {
		return nil, err
	}

	production, err := s.reportRepo.ProductionAggregates(start, end, params.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate production: %w", err)
	}
	sales, err := s.reportRepo.SalesAggregates(start, end, params.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}

	// Full outer merge keyed by product id. Sales without any production in
	// range still get a row so oversold products are visible.
	type merged struct {
		name     string
		produced float64
		wasted   float64
		sold     float64
	}
	byProduct := map[int64]*merged{}
	for _, p := range production {
		byProduct[p.ProductID] = &merged{name: p.ProductName, produced: p.Produced, wasted: p.Wasted}
	}
	soldOnly := []int64{}
	for _, sale := range sales {
		m, ok := byProduct[sale.ProductID]
		if !ok {
			m = &merged{}
			byProduct[sale.ProductID] = m
			soldOnly = append(soldOnly, sale.ProductID)
		}
		m.sold = sale.Sold
	}

	if len(soldOnly) > 0 {
		names, err := s.productRepo.GetNamesByIDs(soldOnly)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve product names: %w", err)
		}
		for _, id := range soldOnly {
			if name, ok := names[id]; ok {
				byProduct[id].name = name
			} else {
				byProduct[id].name = fmt.Sprintf("Deleted Product #%d", id)
			}
		}
	}

	ids := make([]int64, 0, len(byProduct))
	for id := range byProduct {
		ids = append(ids, id)
	}
	stocks, err := s.reportRepo.CurrentStocks(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read current stocks: %w", err)
	}

	sort.Slice(ids, func(i, j int) bool {
		a, b := byProduct[ids[i]], byProduct[ids[j]]
		if a.name != b.name {
			return a.name < b.name
		}
		return ids[i] < ids[j]
	})

	report := &models.ProductionReport{
		Rows: make([]models.ProductionReportRow, 0, len(ids)),
		Chart: models.ProductionReportChart{
			Labels:   []string{},
			Produced: []float64{},
			Wasted:   []float64{},
			Sold:     []float64{},
		},
		Filters: models.ProductionReportFilters{
			StartDate: start.Format("2006-01-02"),
			EndDate:   end.Format("2006-01-02"),
			ProductID: params.ProductID,
		},
	}

	for _, id := range ids {
		m := byProduct[id]
		netAdded := m.produced - m.wasted
		row := models.ProductionReportRow{
			ProductID:    id,
			ProductName:  m.name,
			Produced:     m.produced,
			Wasted:       m.wasted,
			NetAdded:     netAdded,
			Sold:         m.sold,
			CurrentStock: stocks[id], // zero for deleted products
			Remaining:    netAdded - m.sold,
			Oversold:     m.sold > netAdded,
		}
		report.Rows = append(report.Rows, row)

		report.Totals.Produced += row.Produced
		report.Totals.Wasted += row.Wasted
		report.Totals.NetAdded += row.NetAdded
		report.Totals.Sold += row.Sold
		report.Totals.CurrentStock += row.CurrentStock
		report.Totals.Remaining += row.Remaining

		report.Chart.Labels = append(report.Chart.Labels, row.ProductName)
		report.Chart.Produced = append(report.Chart.Produced, row.Produced)
		report.Chart.Wasted = append(report.Chart.Wasted, row.Wasted)
		report.Chart.Sold = append(report.Chart.Sold, row.Sold)
	}

	// Resolve the filter product's name even when nothing matched, so the
	// client can still label the empty result.
	if params.ProductID != nil {
		if m, ok := byProduct[*params.ProductID]; ok {
			report.Filters.ProductName = &m.name
		} else if names, err := s.productRepo.GetNamesByIDs([]int64{*params.ProductID}); err == nil {
			if name, ok := names[*params.ProductID]; ok {
				report.Filters.ProductName = &name
			}
		}
	}

	return report, nil
}

// ExportProductionReportCSV renders the report rows as a CSV download.
func (s *reportService) ExportProductionReportCSV(params models.ReportRequestParams) (*CSVExport, error) {
	report, err := s.ProductionReport(params)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Product ID", "Product Name", "Total Produced", "Total Wasted", "Net Added", "Total Sold", "Current Stock", "Remaining Stock", "Oversold"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range report.Rows {
		oversold := "No"
		if row.Oversold {
			oversold = "Yes"
		}
		record := []string{
			strconv.FormatInt(row.ProductID, 10),
			row.ProductName,
			formatQty(row.Produced),
			formatQty(row.Wasted),
			formatQty(row.NetAdded),
			formatQty(row.Sold),
			formatQty(row.CurrentStock),
			formatQty(row.Remaining),
			oversold,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return &CSVExport{
		Filename: fmt.Sprintf("production-report-%s.csv", time.Now().Format("20060102-150405")),
		Content:  base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

func (s *reportService) InventorySummary(params models.ReportRequestParams) (*models.InventorySummary, error) {
	start, end, err := resolveRange(params)
	if err != nil {
		return nil, err
	}
	summary, err := s.reportRepo.InventorySummary(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize inventory: %w", err)
	}
	return summary, nil
}

func (s *reportService) MaterialPurchases(params models.ReportRequestParams) ([]models.MaterialAggregate, error) {
	start, end, err := resolveRange(params)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.MaterialAggregates(models.TransactionTypeAdd, start, end)
}

func (s *reportService) MaterialUsage(params models.ReportRequestParams) ([]models.MaterialAggregate, error) {
	start, end, err := resolveRange(params)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.MaterialAggregates(models.TransactionTypeUse, start, end)
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
