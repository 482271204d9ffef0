package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/tileflow/services/planning/config"
	"example.com/tileflow/services/planning/internal/cache"
	"example.com/tileflow/services/planning/internal/database"
	"example.com/tileflow/services/planning/internal/messaging"
	"example.com/tileflow/services/planning/internal/metrics"
	"example.com/tileflow/services/planning/internal/repositories"
	"example.com/tileflow/services/planning/internal/search"
	"example.com/tileflow/services/planning/internal/services"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Start the background worker: consumes parsed shipping documents
from Azure Service Bus, runs the periodic alert sweep and expires stale
pending documents`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	g, ctx := errgroup.WithContext(ctx)

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
	pendingRepo := repositories.NewPendingDocumentRepository(db, readOnlyDB)
	alertRepo := repositories.NewAlertRepository(db, readOnlyDB)
	availabilityRepo := repositories.NewFactoryAvailabilityRepository(db, readOnlyDB)

	var policyCache services.PolicyCache
	if redisCache != nil {
		policyCache = redisCache
	}

	settingsService := services.NewSettingsService(settingRepo, policyCache, cfg.Planning)
	planningService := services.NewPlanningService(
		productRepo, snapshotRepo, saleRepo, orderRepo, scheduleRepo,
		availabilityRepo, boatRepo, settingsService, policyCache, tracer,
	)

	var indexer services.AlertIndexer
	var searcher services.AlertSearcher
	if elasticClient != nil {
		indexer = elasticClient
		searcher = elasticClient
	}
	alertService := services.NewAlertService(alertRepo, planningService, shipmentRepo, indexer, searcher, tracer)
	documentService := services.NewDocumentService(shipmentRepo, pendingRepo)

	// Parsed shipping documents stream in from the document parser; the
	// processor matches them to shipments or quarantines them
	serviceBus, err := messaging.NewServiceBusClient(cfg.Azure)
	if err != nil {
		return err
	}
	defer serviceBus.Close()

	g.Go(func() error {
		log.Info().Str("queue", cfg.Azure.QueueName).Msg("Starting parsed-document processor")
		return serviceBus.ProcessMessages(ctx, documentService.ProcessMessage)
	})

	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		// Alert generation is idempotent, so overlapping or repeated sweeps
		// are harmless
		_, err = scheduler.NewJob(
			gocron.DurationJob(15*time.Minute),
			gocron.NewTask(func() {
				start := time.Now()
				inserted, err := alertService.GenerateAll(ctx, time.Now().UTC())
				metricsCollector.RecordSweep("alert_sweep", start, err)
				if err != nil {
					log.Error().Err(err).Msg("Alert sweep failed")
					return
				}
				metricsCollector.Add("alerts_inserted", int64(inserted))
			}),
		)
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(24*time.Hour),
			gocron.NewTask(func() {
				start := time.Now()
				expired, err := documentService.ExpireStale(ctx, time.Now().UTC())
				metricsCollector.RecordSweep("pending_document_expiry", start, err)
				if err != nil {
					log.Error().Err(err).Msg("Pending document expiry sweep failed")
					return
				}
				metricsCollector.Add("pending_documents_expired", expired)
			}),
		)
		if err != nil {
			return err
		}

		log.Info().Msg("Starting alert and expiry schedulers")
		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
