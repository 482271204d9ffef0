package handlers

import (
	"net/http"
	"time"

	"example.com/tileflow/services/planning/internal/planning"
	"example.com/tileflow/services/planning/internal/services"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PlanningHandler serves the replenishment views
type PlanningHandler struct {
	planningService *services.PlanningService
	tracer          tracing.Tracer
}

// NewPlanningHandler creates a new planning handler
func NewPlanningHandler(planningService *services.PlanningService, tracer tracing.Tracer) *PlanningHandler {
	return &PlanningHandler{
		planningService: planningService,
		tracer:          tracer,
	}
}

// HandleStockoutSummary returns the catalog-wide stockout classification
func (h *PlanningHandler) HandleStockoutSummary(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-stockout-summary")
	defer h.tracer.EndTransaction(txn)

	skipCache := c.Query("refresh") == "true"
	summary, err := h.planningService.StockoutSummary(c.Request.Context(), time.Now().UTC(), skipCache)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build stockout summary")
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// HandleRecommendations returns the products at or below reorder point
func (h *PlanningHandler) HandleRecommendations(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-recommendations")
	defer h.tracer.EndTransaction(txn)

	recs, err := h.planningService.Recommendations(c.Request.Context(), time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build recommendations")
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

// HandleProductPlan returns the replenishment picture for one product
func (h *PlanningHandler) HandleProductPlan(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-product-plan")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	skipCache := c.Query("refresh") == "true"
	plan, err := h.planningService.ProductPlan(c.Request.Context(), id, time.Now().UTC(), skipCache)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// PackPreviewRequest is a candidate order to pack into containers
type PackPreviewRequest struct {
	Items []struct {
		ProductID uuid.UUID `json:"product_id" binding:"required"`
		SKU       string    `json:"sku"`
		M2        float64   `json:"m2" binding:"required"`
	} `json:"items" binding:"required"`
}

// HandlePackPreview packs a candidate order without persisting anything
func (h *PlanningHandler) HandlePackPreview(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-pack-preview")
	defer h.tracer.EndTransaction(txn)

	var req PackPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	items := make([]planning.PackItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, planning.PackItem{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			M2:        item.M2,
		})
	}

	plan, err := h.planningService.PackPreview(c.Request.Context(), items)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// RegisterRoutes registers the handler's routes
func (h *PlanningHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/v1/planning")
	group.GET("/summary", h.HandleStockoutSummary)
	group.GET("/recommendations", h.HandleRecommendations)
	group.GET("/products/:id", h.HandleProductPlan)
	group.POST("/pack-preview", h.HandlePackPreview)
}
