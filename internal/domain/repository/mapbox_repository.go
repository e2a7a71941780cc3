package repository

import (
	"context"

	"github.com/nearest-locations/internal/domain"
)

// DistanceMatrixRepository определяет методы провайдера матрицы расстояний
type DistanceMatrixRepository interface {
	// GetDistances возвращает по одному элементу на каждый пункт назначения,
	// в том же порядке. Ошибка означает отказ всего запроса.
	GetDistances(
		ctx context.Context,
		origin domain.Coordinate,
		destinations []domain.Coordinate,
	) ([]domain.DistanceElement, error)

	// MaxDestinations - лимит пунктов назначения на один запрос
	MaxDestinations() int
}
