package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/tileflow/services/planning/config"
	"example.com/tileflow/services/planning/internal/api"
	"example.com/tileflow/services/planning/internal/cache"
	"example.com/tileflow/services/planning/internal/database"
	"example.com/tileflow/services/planning/internal/metrics"
	"example.com/tileflow/services/planning/internal/repositories"
	"example.com/tileflow/services/planning/internal/search"
	"example.com/tileflow/services/planning/internal/services"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for planning, shipments, alerts and settings`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
		redisCache = nil
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.Disabled()
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
		elasticClient = nil
	}

	metricsCollector := metrics.NewCollector()

	productRepo := repositories.NewProductRepository(db, readOnlyDB)
	snapshotRepo := repositories.NewInventorySnapshotRepository(db, readOnlyDB)
	saleRepo := repositories.NewSaleRepository(db, readOnlyDB)
	orderRepo := repositories.NewFactoryOrderRepository(db, readOnlyDB)
	scheduleRepo := repositories.NewProductionScheduleRepository(db, readOnlyDB)
	settingRepo := repositories.NewSettingRepository(db, readOnlyDB)
	boatRepo := repositories.NewBoatScheduleRepository(db, readOnlyDB)
	shipmentRepo := repositories.NewShipmentRepository(db, readOnlyDB)
	containerRepo := repositories.NewContainerRepository(db, readOnlyDB)
	alertRepo := repositories.NewAlertRepository(db, readOnlyDB)
	pendingRepo := repositories.NewPendingDocumentRepository(db, readOnlyDB)
	availabilityRepo := repositories.NewFactoryAvailabilityRepository(db, readOnlyDB)
	portRepo := repositories.NewPortRepository(db, readOnlyDB)
	carrierRepo := repositories.NewCarrierRepository(db, readOnlyDB)

	var policyCache services.PolicyCache
	if redisCache != nil {
		policyCache = redisCache
	}

	settingsService := services.NewSettingsService(settingRepo, policyCache, cfg.Planning)
	planningService := services.NewPlanningService(
		productRepo, snapshotRepo, saleRepo, orderRepo, scheduleRepo,
		availabilityRepo, boatRepo, settingsService, policyCache, tracer,
	)
	shipmentService := services.NewShipmentService(shipmentRepo, containerRepo, portRepo, settingsService)

	var indexer services.AlertIndexer
	var searcher services.AlertSearcher
	if elasticClient != nil {
		indexer = elasticClient
		searcher = elasticClient
	}
	alertService := services.NewAlertService(alertRepo, planningService, shipmentRepo, indexer, searcher, tracer)
	documentService := services.NewDocumentService(shipmentRepo, pendingRepo)
	orderService := services.NewFactoryOrderService(orderRepo, scheduleRepo, availabilityRepo)
	logisticsService := services.NewLogisticsService(boatRepo, portRepo, carrierRepo, settingsService)

	server := api.NewServer(
		cfg,
		planningService,
		shipmentService,
		alertService,
		documentService,
		orderService,
		logisticsService,
		settingsService,
		metricsCollector,
		tracer,
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
