package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
)

// GeocodeUseCase - геокодирование с кешем в Redis и ограничением по стране
type GeocodeUseCase struct {
	geocoder repository.GeocoderRepository
	cache    repository.CacheRepository
	country  string
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewGeocodeUseCase создает usecase. cache может быть nil.
func NewGeocodeUseCase(
	geocoder repository.GeocoderRepository,
	cache repository.CacheRepository,
	country string,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *GeocodeUseCase {
	return &GeocodeUseCase{
		geocoder: geocoder,
		cache:    cache,
		country:  strings.ToUpper(country),
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// normalizeQuery - ключ кеша не зависит от регистра и лишних пробелов
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (uc *GeocodeUseCase) geocodeKey(query string) string {
	return fmt.Sprintf("geocode:%s:%s", strings.ToLower(uc.country), normalizeQuery(query))
}

func reverseKey(c domain.Coordinate) string {
	return fmt.Sprintf("revgeo:%.4f:%.4f", c.Lat, c.Lng)
}

// Geocode превращает запрос в координату
func (uc *GeocodeUseCase) Geocode(ctx context.Context, query string) (domain.Coordinate, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Coordinate{}, domain.ErrInvalidQuery
	}

	key := uc.geocodeKey(query)
	if uc.cache != nil {
		cached, err := uc.cache.GetCoordinate(ctx, key)
		if err != nil {
			uc.logger.Warn("Failed to read geocode cache", zap.String("key", key), zap.Error(err))
		} else if cached != nil {
			uc.logger.Debug("Geocode cache hit", zap.String("key", key))
			return *cached, nil
		}
	}

	coord, err := uc.geocoder.Geocode(ctx, strings.TrimSpace(query), uc.country)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("geocode %q: %w", query, err)
	}

	if uc.cache != nil {
		if err := uc.cache.SetCoordinate(ctx, key, coord, uc.cacheTTL); err != nil {
			uc.logger.Warn("Failed to write geocode cache", zap.String("key", key), zap.Error(err))
		}
	}
	return coord, nil
}

// CountryOf возвращает ISO код страны точки
func (uc *GeocodeUseCase) CountryOf(ctx context.Context, coord domain.Coordinate) (string, error) {
	key := reverseKey(coord)
	if uc.cache != nil {
		data, err := uc.cache.Get(ctx, key)
		if err != nil {
			uc.logger.Warn("Failed to read reverse geocode cache", zap.String("key", key), zap.Error(err))
		} else if data != nil {
			var country string
			if err := json.Unmarshal(data, &country); err == nil {
				return country, nil
			}
		}
	}

	country, err := uc.geocoder.ReverseCountry(ctx, coord)
	if err != nil {
		return "", fmt.Errorf("reverse geocode %s: %w", coord, err)
	}
	country = strings.ToUpper(country)

	if uc.cache != nil {
		if data, err := json.Marshal(country); err == nil {
			if err := uc.cache.Set(ctx, key, data, uc.cacheTTL); err != nil {
				uc.logger.Warn("Failed to write reverse geocode cache", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return country, nil
}
