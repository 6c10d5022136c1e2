package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"geoenrich/internal/api"
	routes "geoenrich/internal/api/handlers"
	"geoenrich/internal/config"
	"geoenrich/internal/kml"
	"geoenrich/internal/metrics"
	"geoenrich/internal/model"
	"geoenrich/internal/mongo"
	"geoenrich/internal/postgres"
	"geoenrich/internal/redis"
	"geoenrich/internal/service/boundary"
	"geoenrich/internal/service/enrich"
	"geoenrich/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, importErrors, fingerprint := loadBoundaries(cfg)

	initializeConnections(cfg)
	defer closeConnections()

	service := initializeServices(cfg, index, fingerprint)

	reportMemoryStats(ctx)

	run := func(ctx context.Context) error {
		return runEnrichment(ctx, cfg, service, index.Len(), importErrors)
	}
	if err := run(ctx); err != nil {
		log.Printf("ERROR: enrichment run failed: %v", err)
	}

	if cfg.Port == "" && cfg.EnrichInterval <= 0 {
		return
	}

	server := startAPIServer(cfg, service, index)
	waitWorkers := worker.StartAllWorkers(ctx, run, cfg.EnrichInterval)

	<-ctx.Done()
	log.Println("Shutdown signal received, stopping...")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down API server: %v", err)
		}
	}
	waitWorkers()
}

func setupLogging(path string) {
	if path == "" {
		return
	}

	// Set up logging to file and terminal
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
}

// loadBoundaries builds the spatial index and returns it with the number of
// placemarks that failed to import and the fingerprint scoping cached lookups
func loadBoundaries(cfg config.Config) (*boundary.Index, int, string) {
	kmlOpts := kml.Options{StrictMultiGeometry: cfg.StrictMultiGeometry}
	indexOpts := boundary.Options{Geodesic: cfg.Geodesic, LinearScan: cfg.LinearScan}

	index, result, err := boundary.LoadIndex(cfg.GeoFile, kmlOpts, indexOpts)

	var importErr *kml.AggregatedImportError
	switch {
	case errors.As(err, &importErr):
		for _, message := range importErr.Messages() {
			log.Printf("Import error: %s", message)
		}
		if cfg.FailOnImportErrors {
			log.Fatalf("%d placemarks failed to import", len(importErr.Errors))
		}
		log.Printf("WARNING: continuing with %d of %d placemarks", result.Imported, result.Placemarks)
	case err != nil:
		log.Fatalf("Failed to load boundaries: %v", err)
	}

	metrics.PolygonsLoaded.Set(float64(index.Len()))
	metrics.ImportErrorsTotal.Add(float64(result.Failed))

	fingerprint, err := boundary.Fingerprint(cfg.GeoFile, kmlOpts, indexOpts)
	if err != nil {
		log.Fatalf("Failed to fingerprint boundaries: %v", err)
	}
	log.Printf("Boundary index fingerprint: %s", fingerprint)

	return index, result.Failed, fingerprint
}

func initializeConnections(cfg config.Config) {
	mongo.Init(cfg.MongoURL)

	if cfg.RedisUrl != "" {
		redis.Init(cfg.RedisUrl)
	}

	if cfg.DBUrl != "" {
		postgres.Init(cfg.DBUrl)
	}
}

func initializeServices(cfg config.Config, index *boundary.Index, fingerprint string) *enrich.Service {
	filter, err := mongo.ParseFilter(cfg.MongoFilter)
	if err != nil {
		log.Fatalf("Failed to parse MONGO_FILTER: %v", err)
	}

	collection := mongo.GetClient().Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
	store := mongo.NewRecordStore(collection, filter)
	log.Printf("Selecting records from %s.%s with %v", cfg.MongoDatabase, cfg.MongoCollection, store.Filter())

	opts := enrich.Options{
		Workers:       cfg.Workers,
		RecordTimeout: cfg.RecordTimeout,
		UpdateRetries: cfg.UpdateRetries,
	}
	if client := redis.GetClient(); client != nil {
		opts.Cache = redis.NewPointCache(client, cfg.CacheTTL, fingerprint)
	}

	return enrich.New(store, index, opts)
}

func runEnrichment(ctx context.Context, cfg config.Config, service *enrich.Service, polygons, importErrors int) error {
	stats, err := service.Run(ctx)
	if errors.Is(err, enrich.ErrRunInProgress) {
		log.Println("Enrichment run already in progress, skipping")
		return nil
	}

	if stats.RunID != "" && postgres.GetDB() != nil {
		run := &model.EnrichmentRunPG{
			ID:           stats.RunID,
			Collection:   cfg.MongoCollection,
			Polygons:     polygons,
			ImportErrors: importErrors,
			Processed:    stats.Processed,
			Resolved:     stats.Resolved,
			Unresolved:   stats.Unresolved,
			Failed:       stats.Failed,
			StartedAt:    stats.StartedAt,
			FinishedAt:   stats.FinishedAt,
		}
		if saveErr := postgres.SaveRun(postgres.GetDB(), run); saveErr != nil {
			log.Printf("ERROR: %v", saveErr)
		}
	}

	return err
}

func startAPIServer(cfg config.Config, service *enrich.Service, index *boundary.Index) *http.Server {
	if cfg.Port == "" {
		return nil
	}

	deps := routes.Dependencies{
		Resolver:   service,
		Stats:      service,
		Areas:      index,
		IndexSize:  index.Len(),
		Collection: cfg.MongoCollection,
	}
	if db := postgres.GetDB(); db != nil {
		deps.Runs = func(limit int) ([]model.EnrichmentRunPG, error) {
			return postgres.RecentRuns(db, limit)
		}
	}

	r := gin.Default()
	api.SetupRouter(r, deps)

	server := &http.Server{
		Addr:    cfg.Port,
		Handler: r,
	}
	go func() {
		log.Printf("API server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("ERROR: API server stopped: %v", err)
		}
	}()
	return server
}

func reportMemoryStats(ctx context.Context) {
	ticker := time.NewTicker(config.MemoryReportInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var m runtime.MemStats
				runtime.ReadMemStats(&m)
				log.Printf("Alloc = %v MiB, TotalAlloc = %v MiB, Sys = %v MiB, NumGC = %v",
					m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC)
			}
		}
	}()
}

func closeConnections() {
	if err := mongo.Close(); err != nil {
		log.Printf("Error closing MongoDB connection: %v", err)
	}

	if err := postgres.Close(); err != nil {
		log.Printf("Error closing PostgreSQL connection: %v", err)
	}

	if err := redis.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	log.Println("Connections closed")
}
