package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicestash/invoicestash/internal/service"
)

// SettingsHandler handles the settings endpoints.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler creates a new settings handler.
// Parameters:
//   - settings: settings service instance.
// Returns:
//   - *SettingsHandler: initialized handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get handles GET /api/v1/settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load settings: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Update handles PUT /api/v1/settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req service.SettingsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update settings: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, settings)
}
