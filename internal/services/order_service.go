package services

import (
	"database/sql"
	"errors"
	"fmt"

	"bakery_backend/internal/models"
	"bakery_backend/internal/repositories"
	"bakery_backend/pkg/utils"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrInsufficientStock  = errors.New("insufficient stock for order item")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// OrderItemInput is one sales line of a new order. VariationID, when set,
// names the sellable child product the stock is taken from.
type OrderItemInput struct {
	ProductID   int64   `json:"product_id" binding:"required"`
	VariationID *int64  `json:"variation_id"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest DTO
type CreateOrderRequest struct {
	Status    string           `json:"status"` // defaults to processing
	OrderedBy *string          `json:"ordered_by"`
	Note      *string          `json:"note"`
	Items     []OrderItemInput `json:"items" binding:"required"`
}

// OrderService handles the sales ledger.
type OrderService interface {
	CreateOrder(req CreateOrderRequest) (*models.Order, error)
	GetOrder(id int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	UpdateStatus(id int64, status string) (*models.Order, error)
}

type orderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	db          *sql.DB
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, db *sql.DB) OrderService {
	return &orderService{orderRepo: orderRepo, productRepo: productRepo, db: db}
}

func validOrderStatus(status string) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusProcessing,
		models.OrderStatusCompleted, models.OrderStatusCancelled:
		return true
	}
	return false
}

// resolveSellableID applies the variation rule: a non-zero variation id is
// the sellable product, otherwise the line sells the product itself.
func resolveSellableID(item OrderItemInput) int64 {
	if item.VariationID != nil && *item.VariationID != 0 {
		return *item.VariationID
	}
	return item.ProductID
}

// CreateOrder creates the order and decrements catalog stock per line inside
// one transaction. A line on a stock-managed product fails the whole order
// when the available stock is short.
func (s *orderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	status := req.Status
	if status == "" {
		status = models.OrderStatusProcessing
	}
	if !validOrderStatus(status) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidOrderStatus, status)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	order := &models.Order{
		Status:    status,
		OrderedBy: req.OrderedBy,
		Note:      req.Note,
	}

	var items []models.OrderItem
	for _, input := range req.Items {
		sellableID := resolveSellableID(input)
		product, err := s.productRepo.GetByIDForUpdate(tx, sellableID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, sellableID)
			}
			return nil, fmt.Errorf("failed to lock product %d: %w", sellableID, err)
		}

		if product.ManageStock {
			if product.StockQuantity < input.Quantity {
				return nil, fmt.Errorf("%w: product '%s' has %.4f, requested %.4f",
					ErrInsufficientStock, product.Name, product.StockQuantity, input.Quantity)
			}
			newStock := utils.RoundQuantity(product.StockQuantity - input.Quantity)
			if err := s.productRepo.SetStock(tx, product.ID, newStock, stockStatusFor(newStock), product.ManageStock); err != nil {
				return nil, fmt.Errorf("failed to decrement stock for product %d: %w", product.ID, err)
			}
		}

		item := models.OrderItem{
			ProductID:   input.ProductID,
			VariationID: input.VariationID,
			Quantity:    input.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  utils.RoundQuantity(product.Price * input.Quantity),
		}
		order.TotalAmount += item.TotalPrice
		items = append(items, item)
	}
	order.TotalAmount = utils.RoundQuantity(order.TotalAmount)

	if _, err := s.orderRepo.CreateOrder(tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	for i := range items {
		items[i].OrderID = order.ID
		if _, err := s.orderRepo.InsertItem(tx, &items[i]); err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	order.Items = items
	return order, nil
}

func (s *orderService) GetOrder(id int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Status != nil && *filters.Status != "" && !validOrderStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: '%s'", ErrInvalidOrderStatus, *filters.Status)
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	return s.orderRepo.GetOrders(filters)
}

// UpdateStatus moves an order between statuses. Cancelling does not restock;
// corrections go through a production entry instead.
func (s *orderService) UpdateStatus(id int64, status string) (*models.Order, error) {
	if !validOrderStatus(status) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidOrderStatus, status)
	}
	if err := s.orderRepo.UpdateStatus(s.db, id, status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return s.GetOrder(id)
}
