package services

import (
	"encoding/base64"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"bakery_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReportRepo struct {
	production []models.ProductionAggregate
	sales      []models.SalesAggregate
	stocks     map[int64]float64
	summary    models.InventorySummary
	aggregates map[string][]models.MaterialAggregate

	lastStart time.Time
	lastEnd   time.Time
}

func (r *fakeReportRepo) ProductionAggregates(start, end time.Time, _ *int64) ([]models.ProductionAggregate, error) {
	r.lastStart, r.lastEnd = start, end
	return r.production, nil
}

func (r *fakeReportRepo) SalesAggregates(_, _ time.Time, _ *int64) ([]models.SalesAggregate, error) {
	return r.sales, nil
}

func (r *fakeReportRepo) CurrentStocks(ids []int64) (map[int64]float64, error) {
	result := map[int64]float64{}
	for _, id := range ids {
		if stock, ok := r.stocks[id]; ok {
			result[id] = stock
		}
	}
	return result, nil
}

func (r *fakeReportRepo) InventorySummary(_, _ time.Time) (*models.InventorySummary, error) {
	summary := r.summary
	return &summary, nil
}

func (r *fakeReportRepo) MaterialAggregates(txnType string, _, _ time.Time) ([]models.MaterialAggregate, error) {
	return r.aggregates[txnType], nil
}

func TestProductionReportWorkedExample(t *testing.T) {
	reportRepo := &fakeReportRepo{
		production: []models.ProductionAggregate{
			{ProductID: 1, ProductName: "Sourdough", Produced: 100, Wasted: 10},
		},
		sales:  []models.SalesAggregate{{ProductID: 1, Sold: 40}},
		stocks: map[int64]float64{1: 55},
	}
	svc := NewReportService(reportRepo, newFakeProductRepo())

	report, err := svc.ProductionReport(models.ReportRequestParams{StartDate: "2026-08-01", EndDate: "2026-08-07"})
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, 100.0, row.Produced)
	assert.Equal(t, 10.0, row.Wasted)
	assert.Equal(t, 90.0, row.NetAdded)
	assert.Equal(t, 40.0, row.Sold)
	assert.Equal(t, 50.0, row.Remaining)
	assert.Equal(t, 55.0, row.CurrentStock)
	assert.False(t, row.Oversold)

	assert.Equal(t, "2026-08-01", report.Filters.StartDate)
	assert.Equal(t, "2026-08-07", report.Filters.EndDate)
}

func TestProductionReportSalesOnlyRowIsOversold(t *testing.T) {
	product := &models.Product{ID: 2, Name: "Croissant"}
	reportRepo := &fakeReportRepo{
		sales:  []models.SalesAggregate{{ProductID: 2, Sold: 7}},
		stocks: map[int64]float64{},
	}
	svc := NewReportService(reportRepo, newFakeProductRepo(product))

	report, err := svc.ProductionReport(models.ReportRequestParams{StartDate: "2026-08-01", EndDate: "2026-08-07"})
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, "Croissant", row.ProductName)
	assert.Equal(t, 0.0, row.NetAdded)
	assert.Equal(t, 7.0, row.Sold)
	assert.Equal(t, -7.0, row.Remaining)
	assert.True(t, row.Oversold)
	assert.Equal(t, 0.0, row.CurrentStock)
}

func TestProductionReportLabelsDeletedProducts(t *testing.T) {
	reportRepo := &fakeReportRepo{
		sales:  []models.SalesAggregate{{ProductID: 42, Sold: 3}},
		stocks: map[int64]float64{},
	}
	svc := NewReportService(reportRepo, newFakeProductRepo())

	report, err := svc.ProductionReport(models.ReportRequestParams{StartDate: "2026-08-01", EndDate: "2026-08-07"})
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	assert.Equal(t, "Deleted Product #42", report.Rows[0].ProductName)
}

func TestProductionReportTotalsAndChart(t *testing.T) {
	reportRepo := &fakeReportRepo{
		production: []models.ProductionAggregate{
			{ProductID: 1, ProductName: "Sourdough", Produced: 10, Wasted: 2},
			{ProductID: 2, ProductName: "Croissant", Produced: 20, Wasted: 1},
		},
		sales: []models.SalesAggregate{
			{ProductID: 1, Sold: 5},
			{ProductID: 2, Sold: 12},
		},
		stocks: map[int64]float64{1: 13, 2: 7},
	}
	svc := NewReportService(reportRepo, newFakeProductRepo())

	report, err := svc.ProductionReport(models.ReportRequestParams{StartDate: "2026-08-01", EndDate: "2026-08-07"})
	require.NoError(t, err)

	assert.Equal(t, 30.0, report.Totals.Produced)
	assert.Equal(t, 3.0, report.Totals.Wasted)
	assert.Equal(t, 27.0, report.Totals.NetAdded)
	assert.Equal(t, 17.0, report.Totals.Sold)
	assert.Equal(t, 20.0, report.Totals.CurrentStock)
	assert.Equal(t, 10.0, report.Totals.Remaining)

	// Rows sort by name, so Croissant comes first.
	assert.Equal(t, []string{"Croissant", "Sourdough"}, report.Chart.Labels)
	assert.Equal(t, []float64{20, 10}, report.Chart.Produced)
	assert.Equal(t, []float64{1, 2}, report.Chart.Wasted)
	assert.Equal(t, []float64{12, 5}, report.Chart.Sold)
}

func TestProductionReportNormalizesSwappedDates(t *testing.T) {
	reportRepo := &fakeReportRepo{stocks: map[int64]float64{}}
	svc := NewReportService(reportRepo, newFakeProductRepo())

	report, err := svc.ProductionReport(models.ReportRequestParams{StartDate: "2026-08-07", EndDate: "2026-08-01"})
	require.NoError(t, err)

	assert.Equal(t, "2026-08-01", report.Filters.StartDate)
	assert.Equal(t, "2026-08-07", report.Filters.EndDate)
	assert.True(t, reportRepo.lastStart.Before(reportRepo.lastEnd))
}

func TestProductionReportRejectsMalformedDate(t *testing.T) {
	svc := NewReportService(&fakeReportRepo{}, newFakeProductRepo())

	_, err := svc.ProductionReport(models.ReportRequestParams{StartDate: "08/01/2026"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductionReportDefaultsToTrailingWeek(t *testing.T) {
	reportRepo := &fakeReportRepo{stocks: map[int64]float64{}}
	svc := NewReportService(reportRepo, newFakeProductRepo())

	_, err := svc.ProductionReport(models.ReportRequestParams{})
	require.NoError(t, err)

	days := reportRepo.lastEnd.Sub(reportRepo.lastStart).Hours() / 24
	assert.InDelta(t, 7.0, days, 0.1)
}

func TestExportProductionReportCSV(t *testing.T) {
	reportRepo := &fakeReportRepo{
		production: []models.ProductionAggregate{
			{ProductID: 1, ProductName: "Sourdough", Produced: 100, Wasted: 10},
		},
		sales:  []models.SalesAggregate{{ProductID: 1, Sold: 40}, {ProductID: 42, Sold: 3}},
		stocks: map[int64]float64{1: 55},
	}
	svc := NewReportService(reportRepo, newFakeProductRepo())

	export, err := svc.ExportProductionReportCSV(models.ReportRequestParams{StartDate: "2026-08-01", EndDate: "2026-08-07"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(export.Filename, "production-report-"))
	assert.True(t, strings.HasSuffix(export.Filename, ".csv"))

	decoded, err := base64.StdEncoding.DecodeString(export.Content)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(decoded))).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3) // header + two products
	assert.Equal(t, []string{"Product ID", "Product Name", "Total Produced", "Total Wasted", "Net Added", "Total Sold", "Current Stock", "Remaining Stock", "Oversold"}, records[0])

	byID := map[string][]string{}
	for _, record := range records[1:] {
		byID[record[0]] = record
	}
	assert.Equal(t, "No", byID["1"][8])
	assert.Equal(t, "Yes", byID["42"][8])
	assert.Equal(t, "90", byID["1"][4])
	assert.Equal(t, "-3", byID["42"][7])
}

func TestInventorySummaryPassesThrough(t *testing.T) {
	reportRepo := &fakeReportRepo{
		summary: models.InventorySummary{PurchasesQuantity: 12, PurchasesValue: 340.5, UsageQuantity: 8},
	}
	svc := NewReportService(reportRepo, newFakeProductRepo())

	summary, err := svc.InventorySummary(models.ReportRequestParams{})
	require.NoError(t, err)
	assert.Equal(t, 12.0, summary.PurchasesQuantity)
	assert.Equal(t, 340.5, summary.PurchasesValue)
	assert.Equal(t, 8.0, summary.UsageQuantity)
}

func TestMaterialPurchasesAndUsageSelectType(t *testing.T) {
	reportRepo := &fakeReportRepo{
		aggregates: map[string][]models.MaterialAggregate{
			models.TransactionTypeAdd: {{MaterialID: 1, MaterialName: "Flour", Quantity: 50}},
			models.TransactionTypeUse: {{MaterialID: 1, MaterialName: "Flour", Quantity: 30}},
		},
	}
	svc := NewReportService(reportRepo, newFakeProductRepo())

	purchases, err := svc.MaterialPurchases(models.ReportRequestParams{})
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, 50.0, purchases[0].Quantity)

	usage, err := svc.MaterialUsage(models.ReportRequestParams{})
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 30.0, usage[0].Quantity)
}
