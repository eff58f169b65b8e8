package handlers

import (
	"errors"
	"net/http"

	"bakery_backend/internal/models"
	"bakery_backend/internal/services"
	"bakery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ProductionHandler holds the production service.
type ProductionHandler struct {
	productionService services.ProductionService
}

// NewProductionHandler creates a new ProductionHandler.
func NewProductionHandler(ps services.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: ps}
}

// SaveEntries handles a production batch submission. Individual bad entries
// come back as warnings; the request only fails when nothing was processed.
func (h *ProductionHandler) SaveEntries(c *gin.Context) {
	var req services.SaveProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	response, err := h.productionService.SaveEntries(req, currentUsername(c))
	if err != nil {
		utils.LogError(err, "SaveEntries: Error from productionService.SaveEntries")
		switch {
		case errors.Is(err, services.ErrValidation):
			utils.RespondValidationFailed(c, err.Error())
		case errors.Is(err, services.ErrNoEntriesProcessed):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "No production entries could be processed.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to save production entries.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, response)
}

// CookColdStorage moves a quantity from cold storage into catalog stock.
func (h *ProductionHandler) CookColdStorage(c *gin.Context) {
	var req services.ColdStorageOpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	row, err := h.productionService.CookColdStorage(req, currentUsername(c))
	if err != nil {
		h.respondColdStorageError(c, err, "CookColdStorage")
		return
	}
	c.JSON(http.StatusOK, row)
}

// WasteColdStorage discards a quantity from cold storage.
func (h *ProductionHandler) WasteColdStorage(c *gin.Context) {
	var req services.ColdStorageOpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	row, err := h.productionService.WasteColdStorage(req, currentUsername(c))
	if err != nil {
		h.respondColdStorageError(c, err, "WasteColdStorage")
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *ProductionHandler) respondColdStorageError(c *gin.Context, err error, op string) {
	utils.LogError(err, op+": Error from productionService")
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", ""))
	case errors.Is(err, services.ErrInsufficientColdStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Not enough stock in cold storage.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Cold storage operation failed.", "Internal error"))
	}
}

// ListColdStorage returns the current cold-storage balances.
func (h *ProductionHandler) ListColdStorage(c *gin.Context) {
	balances, err := h.productionService.ListColdStorage()
	if err != nil {
		utils.LogError(err, "ListColdStorage: Error from productionService.ListColdStorage")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to list cold storage.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": balances})
}

// LatestSummary returns the rows of the most recently submitted batch.
func (h *ProductionHandler) LatestSummary(c *gin.Context) {
	response, err := h.productionService.LatestSummary()
	if err != nil {
		utils.LogError(err, "LatestSummary: Error from productionService.LatestSummary")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load latest summary.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetLog returns the paged production history.
func (h *ProductionHandler) GetLog(c *gin.Context) {
	var filters models.ProductionLogFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	entries, totalCount, err := h.productionService.GetLog(filters)
	if err != nil {
		utils.LogError(err, "GetLog: Error from productionService.GetLog")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load production log.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        entries,
		"total_count": totalCount,
	})
}
