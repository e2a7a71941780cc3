package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/config"
	"github.com/nearest-locations/internal/domain/repository"
	"github.com/nearest-locations/internal/infrastructure/google"
	"github.com/nearest-locations/internal/infrastructure/haversine"
	"github.com/nearest-locations/internal/infrastructure/mapbox"
	"github.com/nearest-locations/internal/repository/postgres"
	"github.com/nearest-locations/internal/repository/spreadsheet"
	"github.com/nearest-locations/internal/usecase"
)

// DistanceProvider выбирает провайдера матрицы расстояний по DISTANCE_PROVIDER
func DistanceProvider(cfg *config.Config, logger *zap.Logger) (repository.DistanceMatrixRepository, error) {
	switch cfg.Distance {
	case config.ProviderGoogle:
		return google.NewDistanceMatrixClient(&cfg.Google, logger), nil
	case config.ProviderMapbox:
		return mapbox.NewMatrixClient(&cfg.Mapbox, logger), nil
	case config.ProviderHaversine:
		return haversine.NewProvider(logger), nil
	}
	return nil, fmt.Errorf("unknown distance provider %q", cfg.Distance)
}

// Geocoder выбирает геокодер по GEOCODER_PROVIDER
func Geocoder(cfg *config.Config, logger *zap.Logger) (repository.GeocoderRepository, error) {
	switch cfg.GeocoderSrc {
	case config.ProviderGoogle:
		return google.NewGeocoder(&cfg.Google, logger), nil
	case config.ProviderMapbox:
		return mapbox.NewGeocoder(&cfg.Mapbox, logger), nil
	}
	return nil, fmt.Errorf("unknown geocoder provider %q", cfg.GeocoderSrc)
}

// RankerConfig переводит настройки ранжирования
func RankerConfig(cfg *config.Config) usecase.RankerConfig {
	return usecase.RankerConfig{
		BatchSize:            cfg.Ranker.BatchSize,
		MaxConcurrentBatches: cfg.Ranker.MaxConcurrentBatches,
		BatchTimeout:         cfg.Ranker.BatchTimeout,
	}
}

// LocationSource выбирает источник каталога по LOCATIONS_SOURCE.
// Для postgres нужен открытый db.
func LocationSource(cfg *config.Config, db *postgres.DB, logger *zap.Logger) (repository.LocationRepository, error) {
	switch cfg.Locations.Source {
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres location source requires a database connection")
		}
		return postgres.NewLocationRepository(db), nil
	case config.SourceXLSX:
		return spreadsheet.NewLocationRepository(&cfg.Locations, logger), nil
	}
	return nil, fmt.Errorf("unknown locations source %q", cfg.Locations.Source)
}

// LoadCatalog читает локации один раз и собирает реестр
func LoadCatalog(ctx context.Context, source repository.LocationRepository, logger *zap.Logger) (*usecase.LocationRegistry, error) {
	entries, err := source.LoadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}

	catalog := usecase.BuildRegistry(entries, logger)
	logger.Info("Location catalog built",
		zap.Int("locations", catalog.Len()),
		zap.Int("routable", len(catalog.Routable())))
	return catalog, nil
}
