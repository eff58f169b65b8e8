package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bakery_backend/internal/models"
	"bakery_backend/internal/repositories"
	"bakery_backend/pkg/utils"
)

var (
	ErrNoEntriesProcessed    = errors.New("no production entries could be processed")
	ErrInsufficientColdStock = errors.New("not enough stock in cold storage")
)

// ProductionEntryInput is one line of a production batch. ProductionType
// overrides the batch-level disposition when set.
type ProductionEntryInput struct {
	ProductID        int64   `json:"product_id" binding:"required"`
	QuantityProduced float64 `json:"quantity_produced"`
	QuantityWasted   float64 `json:"quantity_wasted"`
	UnitType         string  `json:"unit_type"`
	Note             *string `json:"note"`
	ProductionType   string  `json:"production_type"`
}

// InventoryUsageInput decrements a raw material consumed by the batch.
type InventoryUsageInput struct {
	MaterialID int64   `json:"material_id" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"required,gt=0"`
}

// SaveProductionRequest DTO
type SaveProductionRequest struct {
	ProductionDate string                 `json:"production_date"` // optional back-date, defaults to now
	ProductionType string                 `json:"production_type"` // direct | cold_storage
	Entries        []ProductionEntryInput `json:"entries" binding:"required"`
	InventoryUsage []InventoryUsageInput  `json:"inventory_usage"`
}

// ProductionRow is one reconciled line of the batch response.
type ProductionRow struct {
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name"`
	PreviousStock float64 `json:"previous_stock"`
	Produced      float64 `json:"produced"`
	Wasted        float64 `json:"wasted"`
	NewStock      float64 `json:"new_stock"`
}

// ProductionBatchResponse is returned by SaveEntries and LatestSummary.
type ProductionBatchResponse struct {
	Rows          []ProductionRow `json:"rows"`
	TotalProduced float64         `json:"totalProduced"`
	TotalWasted   float64         `json:"totalWasted"`
	Warnings      []string        `json:"warnings"`
	Timestamp     time.Time       `json:"timestamp"`
	CreatedBy     string          `json:"created_by"`
	HasHistory    bool            `json:"hasHistory"`
}

// ColdStorageOpRequest DTO for cook and waste operations.
type ColdStorageOpRequest struct {
	ProductID      int64   `json:"product_id" binding:"required"`
	Quantity       float64 `json:"quantity" binding:"required,gt=0"`
	Note           *string `json:"note"`
	ProductionDate string  `json:"production_date"` // optional back-date, defaults to now
}

// ProductionService handles production batches, the append-only log and the
// cold-storage balance operations.
type ProductionService interface {
	SaveEntries(req SaveProductionRequest, createdBy string) (*ProductionBatchResponse, error)
	CookColdStorage(req ColdStorageOpRequest, createdBy string) (*ProductionRow, error)
	WasteColdStorage(req ColdStorageOpRequest, createdBy string) (*ProductionRow, error)
	ListColdStorage() ([]models.ColdStorageBalance, error)
	LatestSummary() (*ProductionBatchResponse, error)
	GetLog(filters models.ProductionLogFilters) ([]models.ProductionLogEntry, int, error)
}

type productionService struct {
	productionRepo repositories.ProductionRepository
	productRepo    repositories.ProductRepository
	inventorySvc   InventoryService
	settingsSvc    SettingsService
	db             *sql.DB
}

// NewProductionService creates a new instance of ProductionService.
func NewProductionService(
	productionRepo repositories.ProductionRepository,
	productRepo repositories.ProductRepository,
	inventorySvc InventoryService,
	settingsSvc SettingsService,
	db *sql.DB,
) ProductionService {
	return &productionService{
		productionRepo: productionRepo,
		productRepo:    productRepo,
		inventorySvc:   inventorySvc,
		settingsSvc:    settingsSvc,
		db:             db,
	}
}

// resolveBatchTime parses an optional back-dated production date so the log
// rows land in the right report range. Empty input stamps the current time.
func resolveBatchTime(productionDate string) (time.Time, error) {
	if productionDate == "" {
		return time.Now(), nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, productionDate); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: production_date must be YYYY-MM-DD or YYYY-MM-DD HH:MM:SS", ErrValidation)
}

// reconcileStock applies the core arithmetic: the new stock never drops below
// zero regardless of how much waste is recorded.
func reconcileStock(previous, produced, wasted float64) float64 {
	newStock := previous + produced - wasted
	if newStock < 0 {
		return 0
	}
	return utils.RoundQuantity(newStock)
}

// SaveEntries processes a production batch entry by entry. Each entry runs in
// its own transaction with the product row locked; invalid entries become
// warnings and the rest of the batch still goes through. The call fails only
// when not a single entry succeeded.
func (s *productionService) SaveEntries(req SaveProductionRequest, createdBy string) (*ProductionBatchResponse, error) {
	if len(req.Entries) == 0 {
		return nil, fmt.Errorf("%w: entries must not be empty", ErrValidation)
	}

	batchTime, err := resolveBatchTime(req.ProductionDate)
	if err != nil {
		return nil, err
	}

	settings := s.settingsSvc.Get()
	response := &ProductionBatchResponse{
		Rows:      []ProductionRow{},
		Warnings:  []string{},
		Timestamp: batchTime,
		CreatedBy: createdBy,
	}

	// Raw-material usage is applied before the entries, mirroring the order
	// the batch form submits in. Back-dated batches back-date their usage too.
	var usageDate *string
	if req.ProductionDate != "" {
		formatted := batchTime.Format("2006-01-02")
		usageDate = &formatted
	}
	for _, usage := range req.InventoryUsage {
		reason := "Production Usage"
		_, err := s.inventorySvc.CreateTransaction(CreateTransactionRequest{
			MaterialID:      usage.MaterialID,
			Type:            models.TransactionTypeUse,
			Quantity:        usage.Quantity,
			Reason:          &reason,
			TransactionDate: usageDate,
		}, createdBy)
		if err != nil {
			response.Warnings = append(response.Warnings,
				fmt.Sprintf("inventory usage for material %d failed: %v", usage.MaterialID, err))
		}
	}

	for i, entry := range req.Entries {
		row, err := s.processEntry(entry, req.ProductionType, settings, batchTime, createdBy)
		if err != nil {
			response.Warnings = append(response.Warnings, fmt.Sprintf("entry %d: %v", i+1, err))
			continue
		}
		response.Rows = append(response.Rows, *row)
		response.TotalProduced += row.Produced
		response.TotalWasted += row.Wasted
	}

	if len(response.Rows) == 0 {
		return nil, fmt.Errorf("%w: %d entries rejected", ErrNoEntriesProcessed, len(response.Warnings))
	}
	response.HasHistory = true
	return response, nil
}

func (s *productionService) processEntry(
	entry ProductionEntryInput,
	batchType string,
	settings models.AppSettings,
	batchTime time.Time,
	createdBy string,
) (*ProductionRow, error) {
	if entry.QuantityProduced < 0 || entry.QuantityWasted < 0 {
		return nil, fmt.Errorf("quantities must not be negative")
	}
	if entry.QuantityProduced == 0 && entry.QuantityWasted == 0 {
		return nil, fmt.Errorf("nothing to record")
	}
	if !settings.EnableDecimalQuantities {
		if !utils.IsWholeNumber(entry.QuantityProduced) || !utils.IsWholeNumber(entry.QuantityWasted) {
			return nil, fmt.Errorf("decimal quantities are disabled")
		}
	}

	disposition := entry.ProductionType
	if disposition == "" {
		disposition = batchType
	}
	if disposition == "" {
		disposition = models.ProductionTypeDirect
	}
	if disposition != models.ProductionTypeDirect && disposition != models.ProductionTypeColdStorage {
		return nil, fmt.Errorf("unknown production type '%s'", disposition)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := s.productRepo.GetByIDForUpdate(tx, entry.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("product %d not found", entry.ProductID)
		}
		return nil, fmt.Errorf("failed to lock product %d: %w", entry.ProductID, err)
	}

	row := &ProductionRow{
		ProductID:   product.ID,
		ProductName: product.Name,
		Produced:    entry.QuantityProduced,
		Wasted:      entry.QuantityWasted,
	}

	if disposition == models.ProductionTypeColdStorage {
		// Direct-to-cold production only moves the cold balance. Catalog
		// stock and the production log are touched later, when the batch is
		// cooked or wasted out of cold storage.
		if err := s.productionRepo.AddToColdStorage(tx, product.ID, entry.QuantityProduced); err != nil {
			return nil, fmt.Errorf("failed to add to cold storage: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit cold storage entry: %w", err)
		}
		row.PreviousStock = product.StockQuantity
		row.NewStock = product.StockQuantity
		return row, nil
	}

	previous := product.StockQuantity
	newStock := reconcileStock(previous, entry.QuantityProduced, entry.QuantityWasted)
	manageStock := product.ManageStock || settings.EnableManageStock

	if err := s.productRepo.SetStock(tx, product.ID, newStock, stockStatusFor(newStock), manageStock); err != nil {
		return nil, fmt.Errorf("failed to write back stock: %w", err)
	}

	unitType := entry.UnitType
	if unitType == "" {
		unitType = product.UnitType
	}
	logEntry := &models.ProductionLogEntry{
		ProductID:        product.ID,
		QuantityProduced: entry.QuantityProduced,
		QuantityWasted:   entry.QuantityWasted,
		PreviousStock:    previous,
		NewStock:         newStock,
		UnitType:         unitType,
		Note:             entry.Note,
		CreatedBy:        utils.NewNullString(createdBy),
		CreatedAt:        batchTime,
	}
	if _, err := s.productionRepo.InsertLogEntry(tx, logEntry); err != nil {
		return nil, fmt.Errorf("failed to append production log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit production entry: %w", err)
	}

	row.PreviousStock = previous
	row.NewStock = newStock
	return row, nil
}

// CookColdStorage moves quantity from the cold balance into catalog stock and
// appends a log row tagged as a cold-storage cook.
func (s *productionService) CookColdStorage(req ColdStorageOpRequest, createdBy string) (*ProductionRow, error) {
	opTime, err := resolveBatchTime(req.ProductionDate)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := s.productRepo.GetByIDForUpdate(tx, req.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	coldBalance, err := s.productionRepo.GetColdBalanceForUpdate(tx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cold storage: %w", err)
	}
	if req.Quantity > coldBalance {
		return nil, fmt.Errorf("%w: requested %.4f, available %.4f", ErrInsufficientColdStock, req.Quantity, coldBalance)
	}

	if err := s.productionRepo.SetColdStorageQuantity(tx, req.ProductID, utils.RoundQuantity(coldBalance-req.Quantity)); err != nil {
		return nil, fmt.Errorf("failed to decrement cold storage: %w", err)
	}

	previous := product.StockQuantity
	newStock := reconcileStock(previous, req.Quantity, 0)
	if err := s.productRepo.SetStock(tx, product.ID, newStock, stockStatusFor(newStock), true); err != nil {
		return nil, fmt.Errorf("failed to write back stock: %w", err)
	}

	note := "Cooked from Cold Storage"
	if req.Note != nil && *req.Note != "" {
		note = *req.Note
	}
	logEntry := &models.ProductionLogEntry{
		ProductID:        product.ID,
		QuantityProduced: req.Quantity,
		PreviousStock:    previous,
		NewStock:         newStock,
		UnitType:         models.UnitColdStorageCook,
		Note:             &note,
		CreatedBy:        utils.NewNullString(createdBy),
		CreatedAt:        opTime,
	}
	if _, err := s.productionRepo.InsertLogEntry(tx, logEntry); err != nil {
		return nil, fmt.Errorf("failed to append production log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cook operation: %w", err)
	}

	return &ProductionRow{
		ProductID:     product.ID,
		ProductName:   product.Name,
		PreviousStock: previous,
		Produced:      req.Quantity,
		NewStock:      newStock,
	}, nil
}

// WasteColdStorage discards quantity from the cold balance. Catalog stock is
// untouched; the log row records the unchanged stock level for the audit trail.
func (s *productionService) WasteColdStorage(req ColdStorageOpRequest, createdBy string) (*ProductionRow, error) {
	opTime, err := resolveBatchTime(req.ProductionDate)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := s.productRepo.GetByIDForUpdate(tx, req.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	coldBalance, err := s.productionRepo.GetColdBalanceForUpdate(tx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cold storage: %w", err)
	}
	if req.Quantity > coldBalance {
		return nil, fmt.Errorf("%w: requested %.4f, available %.4f", ErrInsufficientColdStock, req.Quantity, coldBalance)
	}

	if err := s.productionRepo.SetColdStorageQuantity(tx, req.ProductID, utils.RoundQuantity(coldBalance-req.Quantity)); err != nil {
		return nil, fmt.Errorf("failed to decrement cold storage: %w", err)
	}

	note := "Wasted from Cold Storage"
	if req.Note != nil && *req.Note != "" {
		note = *req.Note
	}
	logEntry := &models.ProductionLogEntry{
		ProductID:      product.ID,
		QuantityWasted: req.Quantity,
		PreviousStock:  product.StockQuantity,
		NewStock:       product.StockQuantity,
		UnitType:       models.UnitColdStorageWaste,
		Note:           &note,
		CreatedBy:      utils.NewNullString(createdBy),
		CreatedAt:      opTime,
	}
	if _, err := s.productionRepo.InsertLogEntry(tx, logEntry); err != nil {
		return nil, fmt.Errorf("failed to append production log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit waste operation: %w", err)
	}

	return &ProductionRow{
		ProductID:     product.ID,
		ProductName:   product.Name,
		PreviousStock: product.StockQuantity,
		Wasted:        req.Quantity,
		NewStock:      product.StockQuantity,
	}, nil
}

func (s *productionService) ListColdStorage() ([]models.ColdStorageBalance, error) {
	return s.productionRepo.ListColdStorage()
}

// LatestSummary rebuilds the response of the most recent batch from the log.
func (s *productionService) LatestSummary() (*ProductionBatchResponse, error) {
	entries, err := s.productionRepo.GetLatestBatch()
	if err != nil {
		return nil, fmt.Errorf("failed to load latest batch: %w", err)
	}

	response := &ProductionBatchResponse{
		Rows:     []ProductionRow{},
		Warnings: []string{},
	}
	if len(entries) == 0 {
		return response, nil
	}

	response.HasHistory = true
	response.Timestamp = entries[0].CreatedAt
	if entries[0].CreatedBy != nil {
		response.CreatedBy = *entries[0].CreatedBy
	}
	for _, e := range entries {
		response.Rows = append(response.Rows, ProductionRow{
			ProductID:     e.ProductID,
			ProductName:   e.ProductName,
			PreviousStock: e.PreviousStock,
			Produced:      e.QuantityProduced,
			Wasted:        e.QuantityWasted,
			NewStock:      e.NewStock,
		})
		response.TotalProduced += e.QuantityProduced
		response.TotalWasted += e.QuantityWasted
	}
	return response, nil
}

func (s *productionService) GetLog(filters models.ProductionLogFilters) ([]models.ProductionLogEntry, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	return s.productionRepo.GetLog(filters)
}
