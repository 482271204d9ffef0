package api

import (
	"context"
	"net/http"
	"time"

	"example.com/tileflow/services/planning/config"
	"example.com/tileflow/services/planning/internal/api/handlers"
	"example.com/tileflow/services/planning/internal/api/middleware"
	"example.com/tileflow/services/planning/internal/metrics"
	"example.com/tileflow/services/planning/internal/services"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server

	planningService  *services.PlanningService
	shipmentService  *services.ShipmentService
	alertService     *services.AlertService
	documentService  *services.DocumentService
	orderService     *services.FactoryOrderService
	logisticsService *services.LogisticsService
	settingsService  *services.SettingsService
	metrics          *metrics.Collector
	tracer           tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	planningService *services.PlanningService,
	shipmentService *services.ShipmentService,
	alertService *services.AlertService,
	documentService *services.DocumentService,
	orderService *services.FactoryOrderService,
	logisticsService *services.LogisticsService,
	settingsService *services.SettingsService,
	metricsCollector *metrics.Collector,
	tracer tracing.Tracer,
) *Server {
	server := &Server{
		config:           cfg,
		planningService:  planningService,
		shipmentService:  shipmentService,
		alertService:     alertService,
		documentService:  documentService,
		orderService:     orderService,
		logisticsService: logisticsService,
		settingsService:  settingsService,
		metrics:          metricsCollector,
		tracer:           tracer,
	}

	router := server.setupRouter()
	server.router = router

	httpServer := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
	}
	server.httpServer = httpServer

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	planningHandler := handlers.NewPlanningHandler(s.planningService, s.tracer)
	planningHandler.RegisterRoutes(router)

	shipmentHandler := handlers.NewShipmentHandler(s.shipmentService, s.tracer)
	shipmentHandler.RegisterRoutes(router)

	alertHandler := handlers.NewAlertHandler(s.alertService, s.tracer)
	alertHandler.RegisterRoutes(router)

	documentHandler := handlers.NewDocumentHandler(s.documentService, s.tracer)
	documentHandler.RegisterRoutes(router)

	orderHandler := handlers.NewOrderHandler(s.orderService, s.tracer)
	orderHandler.RegisterRoutes(router)

	logisticsHandler := handlers.NewLogisticsHandler(s.logisticsService, s.tracer)
	logisticsHandler.RegisterRoutes(router)

	settingsHandler := handlers.NewSettingsHandler(s.settingsService, s.tracer)
	settingsHandler.RegisterRoutes(router)

	metricsHandler := handlers.NewMetricsHandler(s.metrics, s.tracer)
	metricsHandler.RegisterRoutes(router)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
