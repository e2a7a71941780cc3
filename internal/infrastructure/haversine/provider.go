package haversine

import (
	"context"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
	"github.com/nearest-locations/internal/infrastructure/mapbox"
	"github.com/nearest-locations/internal/pkg/utils"
)

// provider считает расстояние по прямой без внешних запросов.
// Время в пути неизвестно, поэтому DurationText пустой.
type provider struct {
	logger *zap.Logger
}

// NewProvider создает провайдера расстояний по прямой (DISTANCE_PROVIDER=haversine)
func NewProvider(logger *zap.Logger) repository.DistanceMatrixRepository {
	return &provider{logger: logger}
}

// MaxDestinations - без лимита, размер батча задает RANKER_BATCH_SIZE
func (p *provider) MaxDestinations() int {
	return 0
}

func (p *provider) GetDistances(
	ctx context.Context,
	origin domain.Coordinate,
	destinations []domain.Coordinate,
) ([]domain.DistanceElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	elements := make([]domain.DistanceElement, len(destinations))
	for i, dest := range destinations {
		meters := utils.HaversineMeters(origin, dest)
		elements[i] = domain.DistanceElement{
			Status:         domain.ElementOK,
			DistanceMeters: meters,
			DistanceText:   mapbox.FormatMiles(meters),
		}
	}

	p.logger.Debug("Straight-line distances computed",
		zap.String("origin", origin.String()),
		zap.Int("destinations", len(destinations)))

	return elements, nil
}
