package repository

import (
	"context"

	"github.com/nearest-locations/internal/domain"
)

// LocationRepository - источник каталога локаций
type LocationRepository interface {
	// LoadEntries возвращает сырые записи в порядке регистрации
	LoadEntries(ctx context.Context) ([]domain.RawEntry, error)
}
