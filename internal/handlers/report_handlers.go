package handlers

import (
	"errors"
	"net/http"

	"bakery_backend/internal/models"
	"bakery_backend/internal/services"
	"bakery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the reporting service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

func (h *ReportHandler) bindParams(c *gin.Context) (models.ReportRequestParams, bool) {
	var params models.ReportRequestParams
	if err := c.ShouldBindQuery(&params); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return params, false
	}
	return params, true
}

func (h *ReportHandler) respondReportError(c *gin.Context, err error, action string) {
	utils.LogError(err, action+": Error from reportService")
	if errors.Is(err, services.ErrValidation) {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build report.", "Internal error"))
}

// GetProductionReport joins production history against sales for the range.
func (h *ReportHandler) GetProductionReport(c *gin.Context) {
	params, ok := h.bindParams(c)
	if !ok {
		return
	}

	report, err := h.reportService.ProductionReport(params)
	if err != nil {
		h.respondReportError(c, err, "GetProductionReport")
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportProductionReport returns the report as a base64 CSV download.
func (h *ReportHandler) ExportProductionReport(c *gin.Context) {
	params, ok := h.bindParams(c)
	if !ok {
		return
	}

	export, err := h.reportService.ExportProductionReportCSV(params)
	if err != nil {
		h.respondReportError(c, err, "ExportProductionReport")
		return
	}
	c.JSON(http.StatusOK, export)
}

// GetInventorySummary aggregates material purchases and usage for the range.
func (h *ReportHandler) GetInventorySummary(c *gin.Context) {
	params, ok := h.bindParams(c)
	if !ok {
		return
	}

	summary, err := h.reportService.InventorySummary(params)
	if err != nil {
		h.respondReportError(c, err, "GetInventorySummary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetMaterialPurchases returns per-material purchase totals for the range.
func (h *ReportHandler) GetMaterialPurchases(c *gin.Context) {
	params, ok := h.bindParams(c)
	if !ok {
		return
	}

	aggregates, err := h.reportService.MaterialPurchases(params)
	if err != nil {
		h.respondReportError(c, err, "GetMaterialPurchases")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": aggregates})
}

// GetMaterialUsage returns per-material usage totals for the range.
func (h *ReportHandler) GetMaterialUsage(c *gin.Context) {
	params, ok := h.bindParams(c)
	if !ok {
		return
	}

	aggregates, err := h.reportService.MaterialUsage(params)
	if err != nil {
		h.respondReportError(c, err, "GetMaterialUsage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": aggregates})
}
