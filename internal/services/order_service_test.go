package services

import (
	"testing"

	"bakery_backend/internal/models"
	"bakery_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	orders map[int64]*models.Order
	items  []models.OrderItem
	nextID int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*models.Order{}, nextID: 1}
}

func (r *fakeOrderRepo) CreateOrder(_ repositories.SQLExecutor, order *models.Order) (int64, error) {
	order.ID = r.nextID
	r.nextID++
	copied := *order
	r.orders[order.ID] = &copied
	return order.ID, nil
}

func (r *fakeOrderRepo) InsertItem(_ repositories.SQLExecutor, item *models.OrderItem) (int64, error) {
	item.ID = int64(len(r.items) + 1)
	r.items = append(r.items, *item)
	return item.ID, nil
}

func (r *fakeOrderRepo) GetOrderByID(id int64) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *order
	for _, item := range r.items {
		if item.OrderID == id {
			copied.Items = append(copied.Items, item)
		}
	}
	return &copied, nil
}

func (r *fakeOrderRepo) GetOrders(models.OrderFilters) ([]models.Order, int, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ repositories.SQLExecutor, id int64, status string) error {
	order, ok := r.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	order.Status = status
	return nil
}

func newOrderFixture(t *testing.T, products ...*models.Product) (OrderService, *fakeOrderRepo, *fakeProductRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	orderRepo := newFakeOrderRepo()
	productRepo := newFakeProductRepo(products...)
	return NewOrderService(orderRepo, productRepo, db), orderRepo, productRepo, mock
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Sourdough", Price: 6.5, StockQuantity: 10, ManageStock: true}
	svc, orderRepo, productRepo, mock := newOrderFixture(t, product)

	mock.ExpectBegin()
	mock.ExpectCommit()

	order, err := svc.CreateOrder(CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, 19.5, order.TotalAmount)
	assert.Equal(t, 7.0, productRepo.products[1].StockQuantity)
	require.Len(t, orderRepo.items, 1)
	assert.Equal(t, 6.5, orderRepo.items[0].UnitPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderResolvesVariation(t *testing.T) {
	parentID := int64(1)
	parent := &models.Product{ID: 1, Name: "Cake", Price: 20, ManageStock: false}
	variation := &models.Product{ID: 2, Name: "Cake - Large", Price: 30, ParentID: &parentID, StockQuantity: 5, ManageStock: true}
	svc, _, productRepo, mock := newOrderFixture(t, parent, variation)

	mock.ExpectBegin()
	mock.ExpectCommit()

	variationID := int64(2)
	order, err := svc.CreateOrder(CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: 1, VariationID: &variationID, Quantity: 2}},
	})
	require.NoError(t, err)

	// Stock and price come from the variation, not the parent.
	assert.Equal(t, 3.0, productRepo.products[2].StockQuantity)
	assert.Equal(t, 60.0, order.TotalAmount)
}

func TestCreateOrderZeroVariationFallsBackToProduct(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Bun", Price: 1, StockQuantity: 8, ManageStock: true}
	svc, _, productRepo, mock := newOrderFixture(t, product)

	mock.ExpectBegin()
	mock.ExpectCommit()

	zero := int64(0)
	_, err := svc.CreateOrder(CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: 1, VariationID: &zero, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 6.0, productRepo.products[1].StockQuantity)
}

func TestCreateOrderInsufficientStockFailsWholeOrder(t *testing.T) {
	first := &models.Product{ID: 1, Name: "Bun", Price: 1, StockQuantity: 8, ManageStock: true}
	second := &models.Product{ID: 2, Name: "Pie", Price: 4, StockQuantity: 1, ManageStock: true}
	svc, orderRepo, _, mock := newOrderFixture(t, first, second)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.CreateOrder(CreateOrderRequest{
		Items: []OrderItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 5},
		},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Empty(t, orderRepo.orders)
}

func TestCreateOrderUnmanagedStockIsNotChecked(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Custom Cake", Price: 45, StockQuantity: 0, ManageStock: false}
	svc, _, productRepo, mock := newOrderFixture(t, product)

	mock.ExpectBegin()
	mock.ExpectCommit()

	order, err := svc.CreateOrder(CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 90.0, order.TotalAmount)
	assert.Equal(t, 0.0, productRepo.products[1].StockQuantity)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)

	_, err := svc.CreateOrder(CreateOrderRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)

	_, err := svc.CreateOrder(CreateOrderRequest{
		Status: "shipped",
		Items:  []OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
}

func TestUpdateStatusCancellingDoesNotRestock(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Bun", Price: 1, StockQuantity: 8, ManageStock: true}
	svc, _, productRepo, mock := newOrderFixture(t, product)

	mock.ExpectBegin()
	mock.ExpectCommit()

	order, err := svc.CreateOrder(CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 5.0, productRepo.products[1].StockQuantity)

	cancelled, err := svc.UpdateStatus(order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 5.0, productRepo.products[1].StockQuantity)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)

	_, err := svc.UpdateStatus(99, models.OrderStatusCompleted)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
