package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/pkg/utils"
)

// DistanceFunc позволяет мокам считать ответ по аргументам
type DistanceFunc func(origin domain.Coordinate, destinations []domain.Coordinate) []domain.DistanceElement

// MockDistanceMatrixRepository is a mock of DistanceMatrixRepository
type MockDistanceMatrixRepository struct {
	mock.Mock
}

func (m *MockDistanceMatrixRepository) GetDistances(
	ctx context.Context,
	origin domain.Coordinate,
	destinations []domain.Coordinate,
) ([]domain.DistanceElement, error) {
	args := m.Called(ctx, origin, destinations)
	if fn, ok := args.Get(0).(DistanceFunc); ok {
		return fn(origin, destinations), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DistanceElement), args.Error(1)
}

func (m *MockDistanceMatrixRepository) MaxDestinations() int {
	args := m.Called()
	return args.Int(0)
}

// MockGeocoderRepository is a mock of GeocoderRepository
type MockGeocoderRepository struct {
	mock.Mock
}

func (m *MockGeocoderRepository) Geocode(ctx context.Context, query, country string) (domain.Coordinate, error) {
	args := m.Called(ctx, query, country)
	return args.Get(0).(domain.Coordinate), args.Error(1)
}

func (m *MockGeocoderRepository) ReverseCountry(ctx context.Context, coord domain.Coordinate) (string, error) {
	args := m.Called(ctx, coord)
	return args.String(0), args.Error(1)
}

// MockGeolocator is a mock of Geolocator
type MockGeolocator struct {
	mock.Mock
}

func (m *MockGeolocator) CurrentPosition(ctx context.Context, opts domain.GeolocationOptions) (domain.Coordinate, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(domain.Coordinate), args.Error(1)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetCoordinate(ctx context.Context, key string) (*domain.Coordinate, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coordinate), args.Error(1)
}

func (m *MockCacheRepository) SetCoordinate(ctx context.Context, key string, coord domain.Coordinate, ttl time.Duration) error {
	args := m.Called(ctx, key, coord, ttl)
	return args.Error(0)
}

// MockNearestLocationsRepository is a mock of NearestLocationsRepository
type MockNearestLocationsRepository struct {
	mock.Mock
}

func (m *MockNearestLocationsRepository) Find(ctx context.Context, query domain.NearestQuery) ([]domain.NearestItem, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NearestItem), args.Error(1)
}

// haversineDistances - провайдер, отвечающий расстоянием по прямой
var haversineDistances DistanceFunc = func(origin domain.Coordinate, destinations []domain.Coordinate) []domain.DistanceElement {
	out := make([]domain.DistanceElement, len(destinations))
	for i, d := range destinations {
		meters := utils.HaversineMeters(origin, d)
		out[i] = domain.DistanceElement{
			Status:         domain.ElementOK,
			DistanceMeters: meters,
			DistanceText:   "x mi",
			DurationText:   "y mins",
		}
	}
	return out
}

// fixedDistances отвечает расстоянием по широте пункта назначения
func fixedDistances(byLat map[float64]float64) DistanceFunc {
	return func(_ domain.Coordinate, destinations []domain.Coordinate) []domain.DistanceElement {
		out := make([]domain.DistanceElement, len(destinations))
		for i, d := range destinations {
			meters, ok := byLat[d.Lat]
			if !ok {
				out[i] = domain.DistanceElement{Status: domain.ElementNoRoute}
				continue
			}
			out[i] = domain.DistanceElement{
				Status:         domain.ElementOK,
				DistanceMeters: meters,
				DistanceText:   "d",
				DurationText:   "t",
			}
		}
		return out
	}
}
