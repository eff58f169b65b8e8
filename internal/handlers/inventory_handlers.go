package handlers

import (
	"errors"
	"net/http"

	"bakery_backend/internal/models"
	"bakery_backend/internal/services"
	"bakery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler holds the raw-material inventory service.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

func (h *InventoryHandler) respondMaterialError(c *gin.Context, err error, action string) {
	utils.LogError(err, action+": Error from inventoryService")
	switch {
	case errors.Is(err, services.ErrMaterialNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Raw material not found.", ""))
	case errors.Is(err, services.ErrMaterialNameExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A material with this name already exists.", err.Error()))
	case errors.Is(err, services.ErrInvalidTransactionType):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Transaction type must be 'add' or 'use'.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Inventory operation failed.", "Internal error"))
	}
}

// CreateMaterial handles creation of a raw material.
func (h *InventoryHandler) CreateMaterial(c *gin.Context) {
	var req services.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	material, err := h.inventoryService.CreateMaterial(req, currentUsername(c))
	if err != nil {
		h.respondMaterialError(c, err, "CreateMaterial")
		return
	}
	c.JSON(http.StatusCreated, material)
}

// GetMaterials returns the paged material list. page_size=-1 returns all rows.
func (h *InventoryHandler) GetMaterials(c *gin.Context) {
	var query struct {
		Page     int `form:"page"`
		PageSize int `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	materials, totalCount, err := h.inventoryService.ListMaterials(query.Page, query.PageSize)
	if err != nil {
		h.respondMaterialError(c, err, "GetMaterials")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        materials,
		"total_count": totalCount,
	})
}

// GetMaterial returns one raw material.
func (h *InventoryHandler) GetMaterial(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	material, err := h.inventoryService.GetMaterial(id)
	if err != nil {
		h.respondMaterialError(c, err, "GetMaterial")
		return
	}
	c.JSON(http.StatusOK, material)
}

// UpdateMaterial handles partial updates of a raw material.
func (h *InventoryHandler) UpdateMaterial(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req services.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	material, err := h.inventoryService.UpdateMaterial(id, req, currentUsername(c))
	if err != nil {
		h.respondMaterialError(c, err, "UpdateMaterial")
		return
	}
	c.JSON(http.StatusOK, material)
}

// DeleteMaterial removes a raw material and its transaction history.
func (h *InventoryHandler) DeleteMaterial(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteMaterial(id); err != nil {
		h.respondMaterialError(c, err, "DeleteMaterial")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Material deleted."})
}

// CreateTransaction records one add/use movement against a material.
func (h *InventoryHandler) CreateTransaction(c *gin.Context) {
	var req services.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	txn, err := h.inventoryService.CreateTransaction(req, currentUsername(c))
	if err != nil {
		h.respondMaterialError(c, err, "CreateTransaction")
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// GetTransactions returns the filtered, paged transaction ledger.
func (h *InventoryHandler) GetTransactions(c *gin.Context) {
	var filters models.TransactionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	transactions, totalCount, err := h.inventoryService.ListTransactions(filters)
	if err != nil {
		h.respondMaterialError(c, err, "GetTransactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        transactions,
		"total_count": totalCount,
	})
}

// GetLowStockMaterials lists materials at or below their warning threshold.
func (h *InventoryHandler) GetLowStockMaterials(c *gin.Context) {
	materials, err := h.inventoryService.LowStockMaterials()
	if err != nil {
		h.respondMaterialError(c, err, "GetLowStockMaterials")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": materials})
}

// ExportTransactions returns the filtered ledger as a base64 CSV download.
func (h *InventoryHandler) ExportTransactions(c *gin.Context) {
	var filters models.TransactionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	export, err := h.inventoryService.ExportTransactionsCSV(filters)
	if err != nil {
		h.respondMaterialError(c, err, "ExportTransactions")
		return
	}
	c.JSON(http.StatusOK, export)
}
