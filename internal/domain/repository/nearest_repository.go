package repository

import (
	"context"

	"github.com/nearest-locations/internal/domain"
)

// NearestLocationsRepository - клиент внешнего эндпоинта nearest-locations,
// который сам ранжирует локации на сервере
type NearestLocationsRepository interface {
	Find(ctx context.Context, query domain.NearestQuery) ([]domain.NearestItem, error)
}
