package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/services"
)

// SettingHandler serves application settings, including the booking slot grid keys.
type SettingHandler struct {
	settingService services.SettingService
}

func NewSettingHandler(ss services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: ss}
}

// GetApplicationSettings retrieves all application settings.
func (h *SettingHandler) GetApplicationSettings(c *gin.Context) {
	settings, err := h.settingService.ListSettings(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetApplicationSettings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetApplicationSettingByKey retrieves a specific application setting by its key.
func (h *SettingHandler) GetApplicationSettingByKey(c *gin.Context) {
	setting, err := h.settingService.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondServiceError(c, err, "GetApplicationSettingByKey")
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpsertApplicationSetting creates or replaces a setting. Slot grid keys are validated.
func (h *SettingHandler) UpsertApplicationSetting(c *gin.Context) {
	var req services.UpsertSettingRequest
	if !bindJSON(c, &req, "UpsertApplicationSetting") {
		return
	}
	setting, err := h.settingService.UpsertSetting(c.Request.Context(), c.Param("key"), req)
	if err != nil {
		respondServiceError(c, err, "UpsertApplicationSetting")
		return
	}
	c.JSON(http.StatusOK, setting)
}

// DeleteApplicationSetting deletes a setting by its key.
func (h *SettingHandler) DeleteApplicationSetting(c *gin.Context) {
	if err := h.settingService.DeleteSetting(c.Request.Context(), c.Param("key")); err != nil {
		respondServiceError(c, err, "DeleteApplicationSetting")
		return
	}
	c.Status(http.StatusNoContent)
}

// SlotGrid returns the effective booking slot grid after fallbacks.
func (h *SettingHandler) SlotGrid(c *gin.Context) {
	grid := h.settingService.SlotGrid(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"open":         grid.Open,
		"close":        grid.Close,
		"step_minutes": int(grid.Step.Minutes()),
	})
}
