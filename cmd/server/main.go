package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitting-console/api/rest/handlers"
	"fitting-console/api/rest/routes"
	"fitting-console/config"
	"fitting-console/core/catalog"
	"fitting-console/core/inspector"
	"fitting-console/core/monitoring"
	"fitting-console/core/repository"
	"fitting-console/core/session"
	"fitting-console/logging"
	"fitting-console/providers/fitting"
	"fitting-console/storage"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const janitorInterval = time.Minute

func main() {
	cfg := config.Load()
	logging.Init(cfg.AppName, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fitting service
	client := fitting.NewClient(cfg.FittingAPIURL, cfg.FittingAPITimeout)
	algorithms := catalog.NewCatalog(client)
	outcomes := monitoring.NewOutcomeTracker()

	var (
		recorder     session.EventRecorder = outcomes
		events       handlers.EventLister
		reportIdx    storage.ReportRecorder
		reportLister handlers.ReportLister
	)

	// Initialize database
	if cfg.PersistEvents() {
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create schema")
		}
		log.Info().Msg("Database connected successfully")

		eventRepo := repository.NewEventRepository(db)
		recorder = session.Recorders(outcomes, eventRepo)
		events = eventRepo
		reportRepo := repository.NewReportRepository(db)
		reportIdx = reportRepo
		reportLister = reportRepo
	}

	var reports handlers.ReportSaver
	if cfg.ReportsEnabled() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3Config{
			Bucket:          cfg.ReportBucket,
			Region:          cfg.ReportRegion,
			Endpoint:        cfg.ReportEndpoint,
			AccessKeyID:     cfg.ReportAccessKeyID,
			SecretAccessKey: cfg.ReportSecretAccessKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create report store client")
		}
		reports = storage.NewReportStore(s3Client, cfg.ReportBucket, cfg.ReportPrefix, reportIdx)
		log.Info().Str("bucket", cfg.ReportBucket).Msg("Report export enabled")
	}

	registry := session.NewRegistry(client, algorithms, client, recorder)

	janitor := monitoring.NewSessionJanitor(registry, cfg.SessionIdleTTL, janitorInterval)
	go janitor.Start(ctx)

	r := mux.NewRouter()
	routes.SetupRoutes(r, routes.Dependencies{
		Catalog:     algorithms,
		Sessions:    registry,
		Events:      events,
		Datasets:    client,
		Models:      client,
		Inspector:   inspector.NewInspector(client, algorithms),
		Reports:     reports,
		ReportIndex: reportLister,
		Outcomes:    outcomes,
		Metrics:     monitoring.NewMetricsExporter(registry, outcomes),
	})

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("fitting_api", cfg.FittingAPIURL).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	// Training calls can take minutes, give them the client timeout to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.FittingAPITimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
