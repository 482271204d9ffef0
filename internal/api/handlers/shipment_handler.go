package handlers

import (
	"net/http"
	"time"

	"example.com/tileflow/services/planning/internal/services"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ShipmentHandler serves the shipment lifecycle endpoints
type ShipmentHandler struct {
	shipmentService *services.ShipmentService
	tracer          tracing.Tracer
}

// NewShipmentHandler creates a new shipment handler
func NewShipmentHandler(shipmentService *services.ShipmentService, tracer tracing.Tracer) *ShipmentHandler {
	return &ShipmentHandler{
		shipmentService: shipmentService,
		tracer:          tracer,
	}
}

// HandleListActive lists the undelivered shipments
func (h *ShipmentHandler) HandleListActive(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-shipments")
	defer h.tracer.EndTransaction(txn)

	shipments, err := h.shipmentService.ListActive(c.Request.Context())
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"shipments": shipments})
}

// HandleGet returns one shipment with containers and events
func (h *ShipmentHandler) HandleGet(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-get-shipment")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shipment id"})
		return
	}

	shipment, err := h.shipmentService.Get(c.Request.Context(), id)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, shipment)
}

// StatusChangeRequest moves a shipment to its next lifecycle state
type StatusChangeRequest struct {
	Status     string     `json:"status" binding:"required"`
	OccurredAt *time.Time `json:"occurred_at"`
	Notes      *string    `json:"notes"`
}

// HandleAdvanceStatus advances a shipment's lifecycle state
func (h *ShipmentHandler) HandleAdvanceStatus(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-advance-shipment-status")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shipment id"})
		return
	}

	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	h.tracer.AddAttribute(txn, "shipment_id", id.String())
	h.tracer.AddAttribute(txn, "status", req.Status)

	shipment, err := h.shipmentService.AdvanceStatus(c.Request.Context(), id, req.Status, occurredAt, req.Notes)
	if err != nil {
		log.Warn().Err(err).Str("shipment_id", id.String()).Str("status", req.Status).Msg("Status change rejected")
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, shipment)
}

// HandleCorrectHistory appends an out-of-order audit event
func (h *ShipmentHandler) HandleCorrectHistory(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-correct-shipment-history")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shipment id"})
		return
	}

	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}
	if req.OccurredAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "occurred_at is required for corrections"})
		return
	}

	if err := h.shipmentService.CorrectHistory(c.Request.Context(), id, req.Status, *req.OccurredAt, req.Notes); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// HandleRecalculateContainer rebuilds a container's totals from its items
func (h *ShipmentHandler) HandleRecalculateContainer(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-recalculate-container")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid container id"})
		return
	}

	container, err := h.shipmentService.RecalculateContainer(c.Request.Context(), id)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, container)
}

// RegisterRoutes registers the handler's routes
func (h *ShipmentHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/v1")
	group.GET("/shipments", h.HandleListActive)
	group.GET("/shipments/:id", h.HandleGet)
	group.POST("/shipments/:id/status", h.HandleAdvanceStatus)
	group.POST("/shipments/:id/corrections", h.HandleCorrectHistory)
	group.POST("/containers/:id/recalculate", h.HandleRecalculateContainer)
}
