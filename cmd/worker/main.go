package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/bootstrap"
	"github.com/nearest-locations/internal/config"
	"github.com/nearest-locations/internal/pkg/logger"
	"github.com/nearest-locations/internal/repository/cache"
	"github.com/nearest-locations/internal/repository/postgres"
	redisRepo "github.com/nearest-locations/internal/repository/redis"
	"github.com/nearest-locations/internal/usecase"
	"github.com/nearest-locations/internal/worker"
	"github.com/nearest-locations/internal/worker/ranking"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Nearest Ranking Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Duration("stream_read_timeout", cfg.Worker.StreamReadTimeout),
		zap.String("distance_provider", cfg.Distance),
		zap.String("redis_addr", cfg.Redis.Addr()))

	// 3. Connect to PostgreSQL (только для источника postgres)
	var db *postgres.DB
	if cfg.Locations.Source == config.SourcePostgres {
		db, err = postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}()
	}

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories and providers
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log)
	cacheRepo := cache.NewCacheRepository(redisClient)

	distanceProvider, err := bootstrap.DistanceProvider(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize distance provider", zap.Error(err))
	}
	geocoder, err := bootstrap.Geocoder(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize geocoder", zap.Error(err))
	}
	locationSource, err := bootstrap.LocationSource(cfg, db, log)
	if err != nil {
		log.Fatal("Failed to initialize location source", zap.Error(err))
	}

	// 6. Load catalog
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	catalog, err := bootstrap.LoadCatalog(loadCtx, locationSource, log)
	loadCancel()
	if err != nil {
		log.Fatal("Failed to load locations", zap.Error(err))
	}

	// 7. Initialize use cases
	geocodeUC := usecase.NewGeocodeUseCase(
		geocoder,
		cacheRepo,
		cfg.Geo.CountryRestriction,
		cfg.Cache.GeocodeCacheTTL,
		log,
	)
	ranker := usecase.NewDistanceRanker(distanceProvider, bootstrap.RankerConfig(cfg), log)

	// 8. Initialize workers
	rankingWorker := ranking.NewRankingWorker(
		streamRepo,
		catalog,
		ranker,
		geocodeUC,
		cfg.Worker.ConsumerGroup,
		cfg.Nearest.DefaultLimit,
		log,
	)

	// 9. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log, worker.DefaultShutdownTimeout)
	workerManager.Register(rankingWorker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// 10. Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
