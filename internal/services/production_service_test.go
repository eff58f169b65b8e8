package services

import (
	"testing"
	"time"

	"bakery_backend/internal/models"
	"bakery_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- shared fakes ---

type fakeProductRepo struct {
	products map[int64]*models.Product
	names    map[int64]string

	setStockCalls int
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: map[int64]*models.Product{}, names: map[int64]string{}}
	for _, p := range products {
		repo.products[p.ID] = p
		repo.names[p.ID] = p.Name
	}
	return repo
}

func (r *fakeProductRepo) Create(_ repositories.SQLExecutor, product *models.Product) (int64, error) {
	r.products[product.ID] = product
	return product.ID, nil
}

func (r *fakeProductRepo) GetByID(id int64) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProductRepo) GetByIDForUpdate(_ repositories.SQLExecutor, id int64) (*models.Product, error) {
	return r.GetByID(id)
}

func (r *fakeProductRepo) Search(models.ProductFilters) ([]models.Product, int, error) {
	return nil, 0, nil
}

func (r *fakeProductRepo) Update(_ repositories.SQLExecutor, product *models.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) SoftDelete(_ repositories.SQLExecutor, id int64) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) SetStock(_ repositories.SQLExecutor, id int64, quantity float64, status string, manageStock bool) error {
	p, ok := r.products[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.StockQuantity = quantity
	p.StockStatus = status
	p.ManageStock = manageStock
	r.setStockCalls++
	return nil
}

func (r *fakeProductRepo) GetStockInfo(id int64) (*models.ProductStockInfo, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &models.ProductStockInfo{ProductID: p.ID, ProductName: p.Name, Stock: p.StockQuantity, ManageStock: p.ManageStock}, nil
}

func (r *fakeProductRepo) GetNamesByIDs(ids []int64) (map[int64]string, error) {
	result := map[int64]string{}
	for _, id := range ids {
		if name, ok := r.names[id]; ok {
			result[id] = name
		}
	}
	return result, nil
}

type fakeProductionRepo struct {
	logEntries []models.ProductionLogEntry
	cold       map[int64]float64
	latest     []models.ProductionLogEntry
}

func newFakeProductionRepo() *fakeProductionRepo {
	return &fakeProductionRepo{cold: map[int64]float64{}}
}

func (r *fakeProductionRepo) InsertLogEntry(_ repositories.SQLExecutor, entry *models.ProductionLogEntry) (int64, error) {
	entry.ID = int64(len(r.logEntries) + 1)
	r.logEntries = append(r.logEntries, *entry)
	return entry.ID, nil
}

func (r *fakeProductionRepo) GetLatestBatch() ([]models.ProductionLogEntry, error) {
	return r.latest, nil
}

func (r *fakeProductionRepo) GetLog(models.ProductionLogFilters) ([]models.ProductionLogEntry, int, error) {
	return r.logEntries, len(r.logEntries), nil
}

func (r *fakeProductionRepo) GetColdBalanceForUpdate(_ repositories.SQLExecutor, productID int64) (float64, error) {
	return r.cold[productID], nil
}

func (r *fakeProductionRepo) AddToColdStorage(_ repositories.SQLExecutor, productID int64, quantity float64) error {
	r.cold[productID] += quantity
	return nil
}

func (r *fakeProductionRepo) SetColdStorageQuantity(_ repositories.SQLExecutor, productID int64, quantity float64) error {
	r.cold[productID] = quantity
	return nil
}

func (r *fakeProductionRepo) ListColdStorage() ([]models.ColdStorageBalance, error) {
	balances := []models.ColdStorageBalance{}
	for id, qty := range r.cold {
		if qty > 0 {
			balances = append(balances, models.ColdStorageBalance{ProductID: id, Quantity: qty})
		}
	}
	return balances, nil
}

type stubSettingsService struct {
	settings models.AppSettings
}

func (s *stubSettingsService) Get() models.AppSettings { return s.settings }
func (s *stubSettingsService) Reload() error           { return nil }
func (s *stubSettingsService) Update(UpdateSettingsRequest) (models.AppSettings, error) {
	return s.settings, nil
}

type fakeInventoryService struct {
	transactions []CreateTransactionRequest
	failErr      error
}

func (s *fakeInventoryService) CreateMaterial(CreateMaterialRequest, string) (*models.RawMaterial, error) {
	return nil, nil
}
func (s *fakeInventoryService) GetMaterial(int64) (*models.RawMaterial, error) { return nil, nil }
func (s *fakeInventoryService) ListMaterials(int, int) ([]models.RawMaterial, int, error) {
	return nil, 0, nil
}
func (s *fakeInventoryService) UpdateMaterial(int64, UpdateMaterialRequest, string) (*models.RawMaterial, error) {
	return nil, nil
}
func (s *fakeInventoryService) DeleteMaterial(int64) error { return nil }

func (s *fakeInventoryService) CreateTransaction(req CreateTransactionRequest, _ string) (*models.MaterialTransaction, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	s.transactions = append(s.transactions, req)
	return &models.MaterialTransaction{MaterialID: req.MaterialID, Type: req.Type, Quantity: req.Quantity}, nil
}

func (s *fakeInventoryService) ListTransactions(models.TransactionFilters) ([]models.MaterialTransaction, int, error) {
	return nil, 0, nil
}
func (s *fakeInventoryService) LowStockMaterials() ([]models.RawMaterial, error) { return nil, nil }
func (s *fakeInventoryService) ExportTransactionsCSV(models.TransactionFilters) (*CSVExport, error) {
	return nil, nil
}

func decimalFriendlySettings() *stubSettingsService {
	settings := models.DefaultAppSettings()
	settings.EnableDecimalQuantities = true
	return &stubSettingsService{settings: settings}
}

func newProductionFixture(t *testing.T, products ...*models.Product) (ProductionService, *fakeProductRepo, *fakeProductionRepo, *fakeInventoryService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	productRepo := newFakeProductRepo(products...)
	productionRepo := newFakeProductionRepo()
	inventorySvc := &fakeInventoryService{}
	svc := NewProductionService(productionRepo, productRepo, inventorySvc, decimalFriendlySettings(), db)
	return svc, productRepo, productionRepo, inventorySvc, mock
}

// --- tests ---

func TestSaveEntriesReconcilesStock(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Sourdough", UnitType: "piece", StockQuantity: 10, ManageStock: true}
	svc, productRepo, productionRepo, _, mock := newProductionFixture(t, product)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.SaveEntries(SaveProductionRequest{
		Entries: []ProductionEntryInput{{ProductID: 1, QuantityProduced: 5, QuantityWasted: 3}},
	}, "baker")
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	assert.Equal(t, 10.0, resp.Rows[0].PreviousStock)
	assert.Equal(t, 12.0, resp.Rows[0].NewStock)
	assert.Equal(t, 5.0, resp.TotalProduced)
	assert.Equal(t, 3.0, resp.TotalWasted)
	assert.True(t, resp.HasHistory)
	assert.Empty(t, resp.Warnings)

	assert.Equal(t, 12.0, productRepo.products[1].StockQuantity)
	assert.Equal(t, models.StockStatusInStock, productRepo.products[1].StockStatus)

	require.Len(t, productionRepo.logEntries, 1)
	logged := productionRepo.logEntries[0]
	assert.Equal(t, 10.0, logged.PreviousStock)
	assert.Equal(t, 12.0, logged.NewStock)
	assert.Equal(t, "piece", logged.UnitType)
	require.NotNil(t, logged.CreatedBy)
	assert.Equal(t, "baker", *logged.CreatedBy)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEntriesClampsStockAtZero(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Croissant", StockQuantity: 2, ManageStock: true}
	svc, productRepo, productionRepo, _, mock := newProductionFixture(t, product)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.SaveEntries(SaveProductionRequest{
		Entries: []ProductionEntryInput{{ProductID: 1, QuantityWasted: 10}},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, 0.0, resp.Rows[0].NewStock)
	assert.Equal(t, 0.0, productRepo.products[1].StockQuantity)
	assert.Equal(t, models.StockStatusOutOfStock, productRepo.products[1].StockStatus)
	assert.Equal(t, 0.0, productionRepo.logEntries[0].NewStock)
}

func TestSaveEntriesPartialFailure(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Baguette", StockQuantity: 0, ManageStock: true}
	svc, _, _, _, mock := newProductionFixture(t, product)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.SaveEntries(SaveProductionRequest{
		Entries: []ProductionEntryInput{
			{ProductID: 1, QuantityProduced: 4},
			{ProductID: 1, QuantityProduced: -1},
			{ProductID: 99, QuantityProduced: 2}, // unknown product
		},
	}, "")
	require.NoError(t, err)

	assert.Len(t, resp.Rows, 1)
	assert.Len(t, resp.Warnings, 2)
	assert.Equal(t, 4.0, resp.TotalProduced)
}

func TestSaveEntriesFailsWhenNothingProcessed(t *testing.T) {
	svc, _, _, _, _ := newProductionFixture(t)

	_, err := svc.SaveEntries(SaveProductionRequest{
		Entries: []ProductionEntryInput{
			{ProductID: 1, QuantityProduced: 0, QuantityWasted: 0},
			{ProductID: 2, QuantityProduced: -5},
		},
	}, "")
	assert.ErrorIs(t, err, ErrNoEntriesProcessed)
}

func TestSaveEntriesRejectsEmptyBatch(t *testing.T) {
	svc, _, _, _, _ := newProductionFixture(t)

	_, err := svc.SaveEntries(SaveProductionRequest{}, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSaveEntriesRejectsDecimalsWhenDisabled(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Rye", StockQuantity: 1}
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	settings := &stubSettingsService{settings: models.DefaultAppSettings()} // decimals off
	svc := NewProductionService(newFakeProductionRepo(), newFakeProductRepo(product), &fakeInventoryService{}, settings, db)

	_, err = svc.SaveEntries(SaveProductionRequest{
		Entries: []ProductionEntryInput{{ProductID: 1, QuantityProduced: 1.5}},
	}, "")
	assert.ErrorIs(t, err, ErrNoEntriesProcessed)
}

func TestSaveEntriesColdStorageSkipsCatalogStock(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Frozen Pie", StockQuantity: 3, ManageStock: true}
	svc, productRepo, productionRepo, _, mock := newProductionFixture(t, product)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.SaveEntries(SaveProductionRequest{
		ProductionType: models.ProductionTypeColdStorage,
		Entries:        []ProductionEntryInput{{ProductID: 1, QuantityProduced: 6}},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, 6.0, productionRepo.cold[1])
	assert.Empty(t, productionRepo.logEntries)
	assert.Equal(t, 0, productRepo.setStockCalls)
	assert.Equal(t, 3.0, resp.Rows[0].PreviousStock)
	assert.Equal(t, 3.0, resp.Rows[0].NewStock)
}

func TestSaveEntriesAppliesInventoryUsage(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Bun", StockQuantity: 0}
	svc, _, _, inventorySvc, mock := newProductionFixture(t, product)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.SaveEntries(SaveProductionRequest{
		Entries:        []ProductionEntryInput{{ProductID: 1, QuantityProduced: 10}},
		InventoryUsage: []InventoryUsageInput{{MaterialID: 7, Quantity: 2.5}},
	}, "baker")
	require.NoError(t, err)
	assert.Empty(t, resp.Warnings)

	require.Len(t, inventorySvc.transactions, 1)
	usage := inventorySvc.transactions[0]
	assert.Equal(t, int64(7), usage.MaterialID)
	assert.Equal(t, models.TransactionTypeUse, usage.Type)
	assert.Equal(t, 2.5, usage.Quantity)
	require.NotNil(t, usage.Reason)
	assert.Equal(t, "Production Usage", *usage.Reason)
}

func TestSaveEntriesBackdatesLogAndUsage(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Stollen", StockQuantity: 0, ManageStock: true}
	svc, _, productionRepo, inventorySvc, mock := newProductionFixture(t, product)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.SaveEntries(SaveProductionRequest{
		ProductionDate: "2020-01-01",
		Entries:        []ProductionEntryInput{{ProductID: 1, QuantityProduced: 5}},
		InventoryUsage: []InventoryUsageInput{{MaterialID: 3, Quantity: 1}},
	}, "baker")
	require.NoError(t, err)

	assert.Equal(t, 2020, resp.Timestamp.Year())
	require.Len(t, productionRepo.logEntries, 1)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), productionRepo.logEntries[0].CreatedAt)

	require.Len(t, inventorySvc.transactions, 1)
	require.NotNil(t, inventorySvc.transactions[0].TransactionDate)
	assert.Equal(t, "2020-01-01", *inventorySvc.transactions[0].TransactionDate)
}

func TestSaveEntriesRejectsMalformedProductionDate(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Stollen", StockQuantity: 0}
	svc, _, _, _, _ := newProductionFixture(t, product)

	_, err := svc.SaveEntries(SaveProductionRequest{
		ProductionDate: "01/01/2020",
		Entries:        []ProductionEntryInput{{ProductID: 1, QuantityProduced: 5}},
	}, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSaveEntriesInventoryUsageFailureBecomesWarning(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Bun", StockQuantity: 0}
	svc, _, _, inventorySvc, mock := newProductionFixture(t, product)
	inventorySvc.failErr = ErrMaterialNotFound

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.SaveEntries(SaveProductionRequest{
		Entries:        []ProductionEntryInput{{ProductID: 1, QuantityProduced: 1}},
		InventoryUsage: []InventoryUsageInput{{MaterialID: 7, Quantity: 1}},
	}, "")
	require.NoError(t, err)

	assert.Len(t, resp.Rows, 1)
	assert.Len(t, resp.Warnings, 1)
}

func TestCookColdStorageMovesStock(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Frozen Pie", StockQuantity: 2, ManageStock: true}
	svc, productRepo, productionRepo, _, mock := newProductionFixture(t, product)
	productionRepo.cold[1] = 5

	mock.ExpectBegin()
	mock.ExpectCommit()

	row, err := svc.CookColdStorage(ColdStorageOpRequest{ProductID: 1, Quantity: 3}, "baker")
	require.NoError(t, err)

	assert.Equal(t, 2.0, productionRepo.cold[1])
	assert.Equal(t, 5.0, productRepo.products[1].StockQuantity)
	assert.Equal(t, 2.0, row.PreviousStock)
	assert.Equal(t, 5.0, row.NewStock)

	require.Len(t, productionRepo.logEntries, 1)
	logged := productionRepo.logEntries[0]
	assert.Equal(t, models.UnitColdStorageCook, logged.UnitType)
	assert.Equal(t, 3.0, logged.QuantityProduced)
	require.NotNil(t, logged.Note)
	assert.Equal(t, "Cooked from Cold Storage", *logged.Note)
}

func TestCookColdStorageBackdated(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Frozen Pie", StockQuantity: 0}
	svc, _, productionRepo, _, mock := newProductionFixture(t, product)
	productionRepo.cold[1] = 4

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.CookColdStorage(ColdStorageOpRequest{
		ProductID:      1,
		Quantity:       2,
		ProductionDate: "2021-05-05 09:30:00",
	}, "baker")
	require.NoError(t, err)

	require.Len(t, productionRepo.logEntries, 1)
	assert.Equal(t, time.Date(2021, 5, 5, 9, 30, 0, 0, time.UTC), productionRepo.logEntries[0].CreatedAt)
}

func TestCookColdStorageInsufficientBalance(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Frozen Pie", StockQuantity: 2}
	svc, _, productionRepo, _, mock := newProductionFixture(t, product)
	productionRepo.cold[1] = 1

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.CookColdStorage(ColdStorageOpRequest{ProductID: 1, Quantity: 3}, "")
	assert.ErrorIs(t, err, ErrInsufficientColdStock)
	assert.Equal(t, 1.0, productionRepo.cold[1])
	assert.Empty(t, productionRepo.logEntries)
}

func TestWasteColdStorageLeavesCatalogStockUntouched(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Frozen Pie", StockQuantity: 4}
	svc, productRepo, productionRepo, _, mock := newProductionFixture(t, product)
	productionRepo.cold[1] = 5

	mock.ExpectBegin()
	mock.ExpectCommit()

	row, err := svc.WasteColdStorage(ColdStorageOpRequest{ProductID: 1, Quantity: 2}, "")
	require.NoError(t, err)

	assert.Equal(t, 3.0, productionRepo.cold[1])
	assert.Equal(t, 4.0, productRepo.products[1].StockQuantity)
	assert.Equal(t, 4.0, row.PreviousStock)
	assert.Equal(t, 4.0, row.NewStock)

	require.Len(t, productionRepo.logEntries, 1)
	logged := productionRepo.logEntries[0]
	assert.Equal(t, models.UnitColdStorageWaste, logged.UnitType)
	assert.Equal(t, 2.0, logged.QuantityWasted)
	assert.Equal(t, 4.0, logged.PreviousStock)
	assert.Equal(t, 4.0, logged.NewStock)
}

func TestLatestSummaryEmptyHistory(t *testing.T) {
	svc, _, _, _, _ := newProductionFixture(t)

	resp, err := svc.LatestSummary()
	require.NoError(t, err)
	assert.False(t, resp.HasHistory)
	assert.Empty(t, resp.Rows)
}

func TestLatestSummaryRebuildsBatch(t *testing.T) {
	svc, _, productionRepo, _, _ := newProductionFixture(t)
	createdBy := "baker"
	batchTime := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	productionRepo.latest = []models.ProductionLogEntry{
		{ProductID: 1, ProductName: "Sourdough", QuantityProduced: 10, QuantityWasted: 1, PreviousStock: 5, NewStock: 14, CreatedBy: &createdBy, CreatedAt: batchTime},
		{ProductID: 2, ProductName: "Croissant", QuantityProduced: 20, QuantityWasted: 4, PreviousStock: 0, NewStock: 16, CreatedBy: &createdBy, CreatedAt: batchTime},
	}

	resp, err := svc.LatestSummary()
	require.NoError(t, err)

	assert.True(t, resp.HasHistory)
	assert.Equal(t, batchTime, resp.Timestamp)
	assert.Equal(t, "baker", resp.CreatedBy)
	assert.Len(t, resp.Rows, 2)
	assert.Equal(t, 30.0, resp.TotalProduced)
	assert.Equal(t, 5.0, resp.TotalWasted)
}
