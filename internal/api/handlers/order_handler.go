package handlers

import (
	"net/http"
	"time"

	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/services"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderHandler serves factory order and production schedule endpoints
type OrderHandler struct {
	orderService *services.FactoryOrderService
	tracer       tracing.Tracer
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *services.FactoryOrderService, tracer tracing.Tracer) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		tracer:       tracer,
	}
}

// CreateOrderRequest places a new factory order
type CreateOrderRequest struct {
	OrderNumber string  `json:"order_number" binding:"required"`
	Notes       *string `json:"notes"`
	Items       []struct {
		ProductID uuid.UUID       `json:"product_id" binding:"required"`
		OrderedM2 decimal.Decimal `json:"ordered_m2" binding:"required"`
	} `json:"items" binding:"required"`
}

// HandleCreate places a new factory order
func (h *OrderHandler) HandleCreate(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-factory-order")
	defer h.tracer.EndTransaction(txn)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	order := &models.FactoryOrder{
		ID:          uuid.New(),
		OrderNumber: req.OrderNumber,
		Status:      models.OrderStatusPending,
		Active:      true,
		Notes:       req.Notes,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, models.FactoryOrderItem{
			ID:             uuid.New(),
			FactoryOrderID: order.ID,
			ProductID:      item.ProductID,
			OrderedM2:      item.OrderedM2,
		})
	}

	if err := h.orderService.Create(c.Request.Context(), order); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// HandleListOpen lists the unshipped active orders
func (h *OrderHandler) HandleListOpen(c *gin.Context) {
	orders, err := h.orderService.ListOpen(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// HandleGet returns one order with its items and completion percentage
func (h *OrderHandler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":          order,
		"completion_pct": order.CompletionPct(),
	})
}

// OrderStatusRequest moves an order to its next lifecycle status
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// HandleAdvanceStatus advances an order's lifecycle status
func (h *OrderHandler) HandleAdvanceStatus(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-advance-order-status")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orderService.AdvanceStatus(c.Request.Context(), id, req.Status); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ScheduleEntryRequest creates or refreshes a production schedule entry
type ScheduleEntryRequest struct {
	Referencia  string          `json:"referencia" binding:"required"`
	Plant       string          `json:"plant" binding:"required"`
	SourceMonth string          `json:"source_month" binding:"required"`
	ProductID   *uuid.UUID      `json:"product_id"`
	RequestedM2 decimal.Decimal `json:"requested_m2" binding:"required"`
	CompletedM2 decimal.Decimal `json:"completed_m2"`
	Status      string          `json:"status"`
}

// HandleUpsertScheduleEntry creates or refreshes a schedule entry on its
// natural key
func (h *OrderHandler) HandleUpsertScheduleEntry(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-upsert-schedule-entry")
	defer h.tracer.EndTransaction(txn)

	var req ScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	entry := &models.ProductionScheduleEntry{
		ID:          uuid.New(),
		Referencia:  req.Referencia,
		Plant:       req.Plant,
		SourceMonth: req.SourceMonth,
		ProductID:   req.ProductID,
		RequestedM2: req.RequestedM2,
		CompletedM2: req.CompletedM2,
		Status:      req.Status,
	}

	if err := h.orderService.UpsertScheduleEntry(c.Request.Context(), entry); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// AvailabilityRequest is a factory supply report
type AvailabilityRequest struct {
	ProductID        uuid.UUID       `json:"product_id" binding:"required"`
	QuantityM2       decimal.Decimal `json:"quantity_m2" binding:"required"`
	ReportDate       *time.Time      `json:"report_date"`
	ProductionStart  *time.Time      `json:"production_start"`
	ProductionEnd    *time.Time      `json:"production_end"`
	EstPortReadyDate *time.Time      `json:"est_port_ready_date"`
}

// HandleReportAvailability records what the factory says it can supply
func (h *OrderHandler) HandleReportAvailability(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-report-availability")
	defer h.tracer.EndTransaction(txn)

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	availability := &models.FactoryAvailability{
		ID:               uuid.New(),
		ProductID:        req.ProductID,
		QuantityM2:       req.QuantityM2,
		ProductionStart:  req.ProductionStart,
		ProductionEnd:    req.ProductionEnd,
		EstPortReadyDate: req.EstPortReadyDate,
	}
	if req.ReportDate != nil {
		availability.ReportDate = *req.ReportDate
	}

	if err := h.orderService.ReportAvailability(c.Request.Context(), availability); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, availability)
}

// HandleLatestAvailability returns a product's most recent supply report
func (h *OrderHandler) HandleLatestAvailability(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	availability, err := h.orderService.LatestAvailability(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	if availability == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, availability)
}

// RegisterRoutes registers the handler's routes
func (h *OrderHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/v1")
	group.POST("/orders", h.HandleCreate)
	group.GET("/orders", h.HandleListOpen)
	group.GET("/orders/:id", h.HandleGet)
	group.POST("/orders/:id/status", h.HandleAdvanceStatus)
	group.PUT("/schedule", h.HandleUpsertScheduleEntry)
	group.POST("/availability", h.HandleReportAvailability)
	group.GET("/availability/:productId", h.HandleLatestAvailability)
}
