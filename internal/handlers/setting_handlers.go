package handlers

import (
	"errors"
	"net/http"

	"bakery_backend/internal/services"
	"bakery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingHandler holds the settings service.
type SettingHandler struct {
	settingsService services.SettingsService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(ss services.SettingsService) *SettingHandler {
	return &SettingHandler{settingsService: ss}
}

// GetSettings returns the current application settings.
func (h *SettingHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settingsService.Get())
}

// UpdateSettings applies the provided keys and returns the full settings.
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var req services.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	settings, err := h.settingsService.Update(req)
	if err != nil {
		utils.LogError(err, "UpdateSettings: Error from settingsService.Update")
		if errors.Is(err, services.ErrValidation) {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update settings.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, settings)
}
