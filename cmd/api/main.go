package main

// @title Nearest Locations API
// @version 1.0.0
// @description Сервис выбора ближайшей локации: ранжирует локации по расстоянию на автомобиле от ZIP-кода, адреса или позиции устройства и синхронизирует список с картой.
// @description
// @description Основные возможности:
// @description - Геокодирование текста с ограничением по стране
// @description - Ранжирование пачками через Google Distance Matrix или Mapbox Matrix
// @description - Сессии выбора: порядок списка, активная локация, камера карты
// @description - Прокси к серверному ранжированию nearest-locations

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/nearest-locations/docs"
	"github.com/nearest-locations/internal/bootstrap"
	"github.com/nearest-locations/internal/config"
	httpDelivery "github.com/nearest-locations/internal/delivery/http"
	"github.com/nearest-locations/internal/delivery/http/handler"
	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/infrastructure/nearest"
	"github.com/nearest-locations/internal/pkg/logger"
	"github.com/nearest-locations/internal/repository/cache"
	"github.com/nearest-locations/internal/repository/postgres"
	"github.com/nearest-locations/internal/usecase"
	"github.com/nearest-locations/internal/worker"
	"github.com/nearest-locations/internal/worker/session"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Nearest Locations API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("distance_provider", cfg.Distance),
		zap.String("geocoder_provider", cfg.GeocoderSrc),
		zap.String("locations_source", cfg.Locations.Source),
		zap.String("country_restriction", cfg.Geo.CountryRestriction),
	)

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
		log.Fatal("Failed to connect to Redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories and providers
	cacheRepo := cache.NewCacheRepository(redisClient)

	distanceProvider, err := bootstrap.DistanceProvider(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize distance provider", zap.Error(err))
	}
	geocoder, err := bootstrap.Geocoder(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize geocoder", zap.Error(err))
	}
	nearestRepo := nearest.NewClient(&cfg.Nearest, log)

	locationSource, err := bootstrap.LocationSource(cfg, db, log)
	if err != nil {
		log.Fatal("Failed to initialize location source", zap.Error(err))
	}

	// 6. Load catalog
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	catalog, err := bootstrap.LoadCatalog(ctx, locationSource, log)
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

	sessionUC := usecase.NewSessionUseCase(
		catalog,
		ranker,
		geocodeUC,
		usecase.SelectionSyncConfig{
			CountryRestriction: cfg.Geo.CountryRestriction,
			Geolocation: domain.GeolocationOptions{
				EnableHighAccuracy: false,
				Timeout:            cfg.Geo.GeolocationTimeout,
				MaximumAge:         cfg.Geo.GeolocationMaxAge,
			},
			FitPadding: cfg.Camera.FitPadding,
		},
		cfg.Session.IdleTTL,
		log,
	)

	nearestUC := usecase.NewNearestUseCase(
		nearestRepo,
		cacheRepo,
		cfg.Nearest.DefaultLimit,
		cfg.Cache.NearestCacheTTL,
		log,
	)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP handlers
	checkers := map[string]handler.HealthChecker{"redis": redisClient}
	if db != nil {
		checkers["postgres"] = db
	}

	server := httpDelivery.NewServer(
		cfg,
		log,
		handler.NewSessionHandler(sessionUC, log),
		handler.NewNearestHandler(nearestUC, log),
		handler.NewLocationHandler(sessionUC),
		handler.NewHealthHandler(sessionUC, checkers, log),
	)

	// 9. Background workers: вытеснение простаивающих сессий
	workerManager := worker.NewWorkerManager(log, 5*time.Second)
	workerManager.Register(session.NewJanitor(sessionUC, cfg.Session.SweepInterval, log))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	if err := workerManager.Start(workerCtx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	stopWorkers()
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
