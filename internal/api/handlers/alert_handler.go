package handlers

import (
	"net/http"
	"strconv"
	"time"

	"example.com/tileflow/services/planning/internal/services"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AlertHandler serves the alert endpoints
type AlertHandler struct {
	alertService *services.AlertService
	tracer       tracing.Tracer
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService *services.AlertService, tracer tracing.Tracer) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		tracer:       tracer,
	}
}

// HandleList lists alerts, newest first
func (h *AlertHandler) HandleList(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-alerts")
	defer h.tracer.EndTransaction(txn)

	unreadOnly := c.Query("unread") == "true"
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	alerts, err := h.alertService.List(c.Request.Context(), unreadOnly, limit)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// HandleCounts returns unread counts grouped by severity
func (h *AlertHandler) HandleCounts(c *gin.Context) {
	counts, err := h.alertService.UnreadCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": counts})
}

// HandleMarkRead acknowledges one alert
func (h *AlertHandler) HandleMarkRead(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-mark-alert-read")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}

	if err := h.alertService.MarkRead(c.Request.Context(), id); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleMarkAllRead acknowledges every unread alert
func (h *AlertHandler) HandleMarkAllRead(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-mark-all-alerts-read")
	defer h.tracer.EndTransaction(txn)

	updated, err := h.alertService.MarkAllRead(c.Request.Context())
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// HandleSearch queries the indexed alert history, including alerts that
// have since been read
func (h *AlertHandler) HandleSearch(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-search-alerts")
	defer h.tracer.EndTransaction(txn)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	docs, err := h.alertService.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		if errors.Is(err, services.ErrSearchUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": docs})
}

// HandleGenerate triggers one alert sweep on demand. The scheduled worker
// runs the same sweep; triggering twice is harmless because generation is
// idempotent.
func (h *AlertHandler) HandleGenerate(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-generate-alerts")
	defer h.tracer.EndTransaction(txn)

	inserted, err := h.alertService.GenerateAll(c.Request.Context(), time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("On-demand alert sweep failed")
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

// RegisterRoutes registers the handler's routes
func (h *AlertHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/v1/alerts")
	group.GET("", h.HandleList)
	group.GET("/counts", h.HandleCounts)
	group.GET("/search", h.HandleSearch)
	group.POST("/generate", h.HandleGenerate)
	group.POST("/read-all", h.HandleMarkAllRead)
	group.POST("/:id/read", h.HandleMarkRead)
}
