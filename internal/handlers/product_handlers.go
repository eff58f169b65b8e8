package handlers

import (
	"errors"
	"net/http"

	"bakery_backend/internal/models"
	"bakery_backend/internal/services"
	"bakery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ProductHandler holds the product service.
type ProductHandler struct {
	productService services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ps services.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

// parseIDParam reads the :id path parameter. Responds 400 and returns false
// when it is not a valid integer.
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid ID format.", c.Param("id")))
		return 0, false
	}
	return id, true
}

// CreateProduct handles creation of a new catalog product.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	product, err := h.productService.CreateProduct(req)
	if err != nil {
		utils.LogError(err, "CreateProduct: Error from productService.CreateProduct")
		switch {
		case errors.Is(err, services.ErrSKUExists):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A product with this SKU already exists.", err.Error()))
		case errors.Is(err, services.ErrProductNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Parent product not found.", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create product.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts handles the paged catalog search.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	products, totalCount, err := h.productService.SearchProducts(filters)
	if err != nil {
		utils.LogError(err, "GetProducts: Error from productService.SearchProducts")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to search products.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        products,
		"total_count": totalCount,
	})
}

// GetProduct handles retrieval of a single product.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", ""))
			return
		}
		utils.LogError(err, "GetProduct: Error from productService.GetProduct")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to get product.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles partial updates of a product.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(id, req)
	if err != nil {
		utils.LogError(err, "UpdateProduct: Error from productService.UpdateProduct")
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", ""))
		case errors.Is(err, services.ErrSKUExists):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A product with this SKU already exists.", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update product.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles the soft delete of a product.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(id); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", ""))
			return
		}
		utils.LogError(err, "DeleteProduct: Error from productService.DeleteProduct")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete product.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted."})
}

// GetProductStock handles the lightweight stock lookup.
func (h *ProductHandler) GetProductStock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	info, err := h.productService.GetStockInfo(id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", ""))
			return
		}
		utils.LogError(err, "GetProductStock: Error from productService.GetStockInfo")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to get product stock.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, info)
}
