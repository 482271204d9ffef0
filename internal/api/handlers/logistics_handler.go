package handlers

import (
	"net/http"
	"time"

	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/services"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LogisticsHandler serves the sailing schedule and reference data
type LogisticsHandler struct {
	logisticsService *services.LogisticsService
	tracer           tracing.Tracer
}

// NewLogisticsHandler creates a new logistics handler
func NewLogisticsHandler(logisticsService *services.LogisticsService, tracer tracing.Tracer) *LogisticsHandler {
	return &LogisticsHandler{
		logisticsService: logisticsService,
		tracer:           tracer,
	}
}

// CreateBoatRequest registers a new voyage
type CreateBoatRequest struct {
	VesselName      string    `json:"vessel_name" binding:"required"`
	DepartureDate   time.Time `json:"departure_date" binding:"required"`
	ArrivalDate     time.Time `json:"arrival_date" binding:"required"`
	ShippingLine    *string   `json:"shipping_line"`
	OriginPort      *string   `json:"origin_port"`
	DestinationPort *string   `json:"destination_port"`
}

// HandleCreateBoat registers a new voyage; the booking deadline is derived
// from the departure date
func (h *LogisticsHandler) HandleCreateBoat(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-boat")
	defer h.tracer.EndTransaction(txn)

	var req CreateBoatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	boat := &models.BoatSchedule{
		ID:              uuid.New(),
		VesselName:      req.VesselName,
		DepartureDate:   req.DepartureDate,
		ArrivalDate:     req.ArrivalDate,
		ShippingLine:    req.ShippingLine,
		OriginPort:      req.OriginPort,
		DestinationPort: req.DestinationPort,
	}

	if err := h.logisticsService.ScheduleBoat(c.Request.Context(), boat); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, boat)
}

// HandleListBoats lists voyages departing after now
func (h *LogisticsHandler) HandleListBoats(c *gin.Context) {
	boats, err := h.logisticsService.UpcomingDepartures(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boats": boats})
}

// HandleGetBoat returns one voyage
func (h *LogisticsHandler) HandleGetBoat(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid boat id"})
		return
	}

	boat, err := h.logisticsService.GetBoat(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, boat)
}

// BoatStatusRequest moves a voyage to its next status
type BoatStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// HandleUpdateBoatStatus advances a voyage's status
func (h *LogisticsHandler) HandleUpdateBoatStatus(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-update-boat-status")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid boat id"})
		return
	}

	var req BoatStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.logisticsService.UpdateBoatStatus(c.Request.Context(), id, req.Status); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleListCarriers lists the active shipping and trucking companies
func (h *LogisticsHandler) HandleListCarriers(c *gin.Context) {
	carriers, err := h.logisticsService.Carriers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, carriers)
}

// HandleGetPort returns one port with its learned processing time
func (h *LogisticsHandler) HandleGetPort(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid port id"})
		return
	}

	port, err := h.logisticsService.GetPort(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, port)
}

// RegisterRoutes registers the handler's routes
func (h *LogisticsHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/v1")
	group.GET("/boats", h.HandleListBoats)
	group.POST("/boats", h.HandleCreateBoat)
	group.GET("/boats/:id", h.HandleGetBoat)
	group.POST("/boats/:id/status", h.HandleUpdateBoatStatus)
	group.GET("/carriers", h.HandleListCarriers)
	group.GET("/ports/:id", h.HandleGetPort)
}
