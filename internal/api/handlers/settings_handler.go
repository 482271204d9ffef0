package handlers

import (
	"net/http"

	"example.com/tileflow/services/planning/internal/services"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/gin-gonic/gin"
)

// SettingsHandler serves the policy settings endpoints
type SettingsHandler struct {
	settingsService *services.SettingsService
	tracer          tracing.Tracer
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *services.SettingsService, tracer tracing.Tracer) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		tracer:          tracer,
	}
}

// HandleList lists all setting rows
func (h *SettingsHandler) HandleList(c *gin.Context) {
	settings, err := h.settingsService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettingRequest writes one setting value
type UpdateSettingRequest struct {
	Value       string  `json:"value" binding:"required"`
	Description *string `json:"description"`
}

// HandleUpdate writes one setting and invalidates the cached policy
func (h *SettingsHandler) HandleUpdate(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-update-setting")
	defer h.tracer.EndTransaction(txn)

	key := c.Param("key")

	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	if err := h.settingsService.Update(c.Request.Context(), key, req.Value, req.Description); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterRoutes registers the handler's routes
func (h *SettingsHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/v1/settings")
	group.GET("", h.HandleList)
	group.PUT("/:key", h.HandleUpdate)
}
