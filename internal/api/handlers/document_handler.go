package handlers

import (
	"net/http"

	"example.com/tileflow/services/planning/internal/services"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler serves the pending-document queue endpoints
type DocumentHandler struct {
	documentService *services.DocumentService
	tracer          tracing.Tracer
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *services.DocumentService, tracer tracing.Tracer) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		tracer:          tracer,
	}
}

// HandleListPending lists the documents awaiting manual resolution
func (h *DocumentHandler) HandleListPending(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-pending-documents")
	defer h.tracer.EndTransaction(txn)

	docs, err := h.documentService.ListPending(c.Request.Context())
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// ResolveRequest assigns a pending document to a shipment
type ResolveRequest struct {
	ShipmentID uuid.UUID `json:"shipment_id" binding:"required"`
	Notes      *string   `json:"notes"`
}

// HandleResolve assigns a pending document to a shipment and applies it
func (h *DocumentHandler) HandleResolve(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-resolve-pending-document")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	if err := h.documentService.Resolve(c.Request.Context(), id, req.ShipmentID, req.Notes); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DiscardRequest closes a pending document without applying it
type DiscardRequest struct {
	Notes *string `json:"notes"`
}

// HandleDiscard closes a pending document without applying it
func (h *DocumentHandler) HandleDiscard(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-discard-pending-document")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	var req DiscardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.documentService.Discard(c.Request.Context(), id, req.Notes); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterRoutes registers the handler's routes
func (h *DocumentHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/v1/documents")
	group.GET("/pending", h.HandleListPending)
	group.POST("/:id/resolve", h.HandleResolve)
	group.POST("/:id/discard", h.HandleDiscard)
}
