package services

import (
	"database/sql"
	"errors"
	"fmt"

	"bakery_backend/internal/models"
	"bakery_backend/internal/repositories"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSKUExists       = errors.New("product SKU already exists")
)

// CreateProductRequest DTO
type CreateProductRequest struct {
	Name          string  `json:"name" binding:"required"`
	SKU           *string `json:"sku"`
	UnitType      string  `json:"unit_type"`
	Price         float64 `json:"price" binding:"gte=0"`
	ParentID      *int64  `json:"parent_id"`
	ManageStock   bool    `json:"manage_stock"`
	StockQuantity float64 `json:"stock_quantity" binding:"gte=0"`
}

// UpdateProductRequest DTO. Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name          *string  `json:"name"`
	SKU           *string  `json:"sku"`
	UnitType      *string  `json:"unit_type"`
	Price         *float64 `json:"price"`
	ParentID      *int64   `json:"parent_id"`
	ManageStock   *bool    `json:"manage_stock"`
	StockQuantity *float64 `json:"stock_quantity"`
}

// ProductService handles catalog business logic.
type ProductService interface {
	CreateProduct(req CreateProductRequest) (*models.Product, error)
	GetProduct(id int64) (*models.Product, error)
	SearchProducts(filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(id int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(id int64) error
	GetStockInfo(id int64) (*models.ProductStockInfo, error)
}

type productService struct {
	productRepo repositories.ProductRepository
	db          *sql.DB
}

// NewProductService creates a new instance of ProductService.
func NewProductService(productRepo repositories.ProductRepository, db *sql.DB) ProductService {
	return &productService{productRepo: productRepo, db: db}
}

func stockStatusFor(quantity float64) string {
	if quantity > 0 {
		return models.StockStatusInStock
	}
	return models.StockStatusOutOfStock
}

func (s *productService) CreateProduct(req CreateProductRequest) (*models.Product, error) {
	unitType := req.UnitType
	if unitType == "" {
		unitType = "piece"
	}

	product := &models.Product{
		Name:          req.Name,
		SKU:           req.SKU,
		UnitType:      unitType,
		Price:         req.Price,
		ParentID:      req.ParentID,
		ManageStock:   req.ManageStock,
		StockQuantity: req.StockQuantity,
		StockStatus:   stockStatusFor(req.StockQuantity),
	}

	if req.ParentID != nil {
		if _, err := s.productRepo.GetByID(*req.ParentID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent product %d", ErrProductNotFound, *req.ParentID)
			}
			return nil, fmt.Errorf("failed to resolve parent product: %w", err)
		}
	}

	if _, err := s.productRepo.Create(s.db, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrSKUExists
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return s.productRepo.GetByID(product.ID)
}

func (s *productService) GetProduct(id int64) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *productService) SearchProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	return s.productRepo.Search(filters)
}

func (s *productService) UpdateProduct(id int64, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product for update: %w", err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.SKU != nil {
		product.SKU = req.SKU
	}
	if req.UnitType != nil {
		product.UnitType = *req.UnitType
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		product.Price = *req.Price
	}
	if req.ParentID != nil {
		product.ParentID = req.ParentID
	}
	if req.ManageStock != nil {
		product.ManageStock = *req.ManageStock
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return nil, fmt.Errorf("%w: stock_quantity must not be negative", ErrValidation)
		}
		product.StockQuantity = *req.StockQuantity
		product.StockStatus = stockStatusFor(*req.StockQuantity)
	}

	if err := s.productRepo.Update(s.db, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrSKUExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.productRepo.GetByID(id)
}

// DeleteProduct deactivates the product so history and reports keep
// resolving its rows.
func (s *productService) DeleteProduct(id int64) error {
	if err := s.productRepo.SoftDelete(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *productService) GetStockInfo(id int64) (*models.ProductStockInfo, error) {
	info, err := s.productRepo.GetStockInfo(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get stock info: %w", err)
	}
	return info, nil
}
