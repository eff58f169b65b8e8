package handlers

import (
	"errors"
	"net/http"

	"bakery_backend/internal/models"
	"bakery_backend/internal/services"
	"bakery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

func (h *OrderHandler) respondOrderError(c *gin.Context, err error, action string) {
	utils.LogError(err, action+": Error from orderService")
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", ""))
	case errors.Is(err, services.ErrProductNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Ordered product not found.", err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Not enough stock for order item.", err.Error()))
	case errors.Is(err, services.ErrInvalidOrderStatus):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid order status.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Order operation failed.", "Internal error"))
	}
}

// CreateOrder handles creation of a sales order.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	if req.OrderedBy == nil {
		if username := currentUsername(c); username != "" {
			req.OrderedBy = &username
		}
	}

	order, err := h.orderService.CreateOrder(req)
	if err != nil {
		h.respondOrderError(c, err, "CreateOrder")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder returns one order with its items.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(id)
	if err != nil {
		h.respondOrderError(c, err, "GetOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrders returns the filtered, paged order list.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	orders, totalCount, err := h.orderService.GetOrders(filters)
	if err != nil {
		h.respondOrderError(c, err, "GetOrders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        orders,
		"total_count": totalCount,
	})
}

// UpdateOrderStatus moves an order between statuses.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	order, err := h.orderService.UpdateStatus(id, req.Status)
	if err != nil {
		h.respondOrderError(c, err, "UpdateOrderStatus")
		return
	}
	c.JSON(http.StatusOK, order)
}
