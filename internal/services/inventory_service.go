package services

import (
	"bytes"
	"database/sql"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bakery_backend/internal/models"
	"bakery_backend/internal/repositories"
	"bakery_backend/pkg/utils"
)

var (
	ErrMaterialNotFound       = errors.New("raw material not found")
	ErrMaterialNameExists     = errors.New("material name already exists")
	ErrInvalidTransactionType = errors.New("transaction type must be 'add' or 'use'")
)

// CreateMaterialRequest DTO
type CreateMaterialRequest struct {
	Name            string  `json:"name" binding:"required"`
	UnitType        string  `json:"unit_type"`
	Quantity        float64 `json:"quantity" binding:"gte=0"`
	WarningQuantity float64 `json:"warning_quantity" binding:"gte=0"`
	Supplier        *string `json:"supplier"`
	Price           float64 `json:"price" binding:"gte=0"`
}

// UpdateMaterialRequest DTO. Nil fields are left unchanged.
type UpdateMaterialRequest struct {
	Name            *string  `json:"name"`
	UnitType        *string  `json:"unit_type"`
	Quantity        *float64 `json:"quantity"`
	WarningQuantity *float64 `json:"warning_quantity"`
	Supplier        *string  `json:"supplier"`
	Price           *float64 `json:"price"`
}

// CreateTransactionRequest DTO
type CreateTransactionRequest struct {
	MaterialID      int64   `json:"material_id" binding:"required"`
	Type            string  `json:"type" binding:"required"`
	Quantity        float64 `json:"quantity" binding:"required,gt=0"`
	Price           float64 `json:"price" binding:"gte=0"`
	Supplier        *string `json:"supplier"`
	Reason          *string `json:"reason"`
	TransactionDate *string `json:"transaction_date"` // YYYY-MM-DD, defaults to now
}

// InventoryService handles the raw-material ledger: material CRUD, the
// append-only transaction trail, low-stock alerting and CSV export.
type InventoryService interface {
	CreateMaterial(req CreateMaterialRequest, editedBy string) (*models.RawMaterial, error)
	GetMaterial(id int64) (*models.RawMaterial, error)
	ListMaterials(page, pageSize int) ([]models.RawMaterial, int, error)
	UpdateMaterial(id int64, req UpdateMaterialRequest, editedBy string) (*models.RawMaterial, error)
	DeleteMaterial(id int64) error

	CreateTransaction(req CreateTransactionRequest, createdBy string) (*models.MaterialTransaction, error)
	ListTransactions(filters models.TransactionFilters) ([]models.MaterialTransaction, int, error)
	LowStockMaterials() ([]models.RawMaterial, error)
	ExportTransactionsCSV(filters models.TransactionFilters) (*CSVExport, error)
}

type inventoryService struct {
	materialRepo repositories.MaterialRepository
	settingsSvc  SettingsService
	notifier     Notifier
	db           *sql.DB
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(materialRepo repositories.MaterialRepository, settingsSvc SettingsService, notifier Notifier, db *sql.DB) InventoryService {
	return &inventoryService{
		materialRepo: materialRepo,
		settingsSvc:  settingsSvc,
		notifier:     notifier,
		db:           db,
	}
}

func (s *inventoryService) CreateMaterial(req CreateMaterialRequest, editedBy string) (*models.RawMaterial, error) {
	unitType := req.UnitType
	if unitType == "" {
		unitType = "kg"
	}
	material := &models.RawMaterial{
		Name:            req.Name,
		UnitType:        unitType,
		Quantity:        req.Quantity,
		WarningQuantity: req.WarningQuantity,
		Supplier:        req.Supplier,
		Price:           req.Price,
		LastEditedBy:    utils.NewNullString(editedBy),
	}

	if _, err := s.materialRepo.Create(s.db, material); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrMaterialNameExists
		}
		return nil, fmt.Errorf("failed to create material: %w", err)
	}
	return s.materialRepo.GetByID(material.ID)
}

func (s *inventoryService) GetMaterial(id int64) (*models.RawMaterial, error) {
	material, err := s.materialRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return material, nil
}

// ListMaterials supports pageSize -1 to return the full list.
func (s *inventoryService) ListMaterials(page, pageSize int) ([]models.RawMaterial, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	return s.materialRepo.List(page, pageSize)
}

func (s *inventoryService) UpdateMaterial(id int64, req UpdateMaterialRequest, editedBy string) (*models.RawMaterial, error) {
	material, err := s.materialRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to load material for update: %w", err)
	}

	if req.Name != nil {
		material.Name = *req.Name
	}
	if req.UnitType != nil {
		material.UnitType = *req.UnitType
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
		}
		material.Quantity = *req.Quantity
	}
	if req.WarningQuantity != nil {
		if *req.WarningQuantity < 0 {
			return nil, fmt.Errorf("%w: warning_quantity must not be negative", ErrValidation)
		}
		material.WarningQuantity = *req.WarningQuantity
	}
	if req.Supplier != nil {
		material.Supplier = req.Supplier
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		material.Price = *req.Price
	}
	if editedBy != "" {
		material.LastEditedBy = utils.NewNullString(editedBy)
	}

	if err := s.materialRepo.Update(s.db, material); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrMaterialNameExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to update material: %w", err)
	}
	return s.materialRepo.GetByID(id)
}

func (s *inventoryService) DeleteMaterial(id int64) error {
	if err := s.materialRepo.Delete(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMaterialNotFound
		}
		return fmt.Errorf("failed to delete material: %w", err)
	}
	return nil
}

// CreateTransaction applies one add/use movement to the material balance and
// records the audit row in the same transaction. A 'use' clamps the balance
// at zero. Fires a low-stock alert after commit when the new balance is at or
// below the warning threshold.
func (s *inventoryService) CreateTransaction(req CreateTransactionRequest, createdBy string) (*models.MaterialTransaction, error) {
	if req.Type != models.TransactionTypeAdd && req.Type != models.TransactionTypeUse {
		return nil, ErrInvalidTransactionType
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}

	var transactionDate time.Time
	if req.TransactionDate != nil && *req.TransactionDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.TransactionDate)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction_date must be YYYY-MM-DD", ErrValidation)
		}
		transactionDate = parsed
	} else {
		transactionDate = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	material, err := s.materialRepo.GetByIDForUpdate(tx, req.MaterialID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to lock material: %w", err)
	}

	newQuantity := material.Quantity
	switch req.Type {
	case models.TransactionTypeAdd:
		newQuantity += req.Quantity
	case models.TransactionTypeUse:
		newQuantity -= req.Quantity
		if newQuantity < 0 {
			newQuantity = 0
		}
	}

	editedBy := utils.NewNullString(createdBy)
	if err := s.materialRepo.SetQuantity(tx, material.ID, newQuantity, editedBy); err != nil {
		return nil, fmt.Errorf("failed to update material balance: %w", err)
	}

	txn := &models.MaterialTransaction{
		MaterialID:      material.ID,
		MaterialName:    material.Name,
		Type:            req.Type,
		Quantity:        req.Quantity,
		Price:           req.Price,
		Supplier:        req.Supplier,
		Reason:          req.Reason,
		TransactionDate: transactionDate,
		CreatedBy:       editedBy,
	}
	if _, err := s.materialRepo.InsertTransaction(tx, txn); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if material.WarningQuantity > 0 && newQuantity <= material.WarningQuantity {
		settings := s.settingsSvc.Get()
		if settings.AlertsEnabled {
			alerted := *material
			alerted.Quantity = newQuantity
			s.notifier.NotifyLowStock(alerted, settings.SummaryEmail)
		}
	}

	return txn, nil
}

func (s *inventoryService) ListTransactions(filters models.TransactionFilters) ([]models.MaterialTransaction, int, error) {
	if filters.Type != nil && *filters.Type != "" &&
		*filters.Type != models.TransactionTypeAdd && *filters.Type != models.TransactionTypeUse {
		return nil, 0, ErrInvalidTransactionType
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize == 0 {
		filters.PageSize = 20
	}
	return s.materialRepo.GetTransactions(filters)
}

func (s *inventoryService) LowStockMaterials() ([]models.RawMaterial, error) {
	return s.materialRepo.ListBelowThreshold()
}

// ExportTransactionsCSV renders the filtered transaction list as a CSV file,
// returned base64-encoded with a timestamped filename.
func (s *inventoryService) ExportTransactionsCSV(filters models.TransactionFilters) (*CSVExport, error) {
	filters.Page = 1
	filters.PageSize = -1
	transactions, _, err := s.ListTransactions(filters)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Date", "Material", "Type", "Quantity", "Price", "Supplier", "Reason", "Recorded By"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, t := range transactions {
		supplier := ""
		if t.Supplier != nil {
			supplier = *t.Supplier
		}
		reason := ""
		if t.Reason != nil {
			reason = *t.Reason
		}
		createdBy := ""
		if t.CreatedBy != nil {
			createdBy = *t.CreatedBy
		}
		record := []string{
			t.TransactionDate.Format("2006-01-02 15:04:05"),
			t.MaterialName,
			t.Type,
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			strconv.FormatFloat(t.Price, 'f', -1, 64),
			supplier,
			reason,
			createdBy,
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
		Filename: fmt.Sprintf("material-transactions-%s.csv", time.Now().Format("20060102-150405")),
		Content:  base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}
