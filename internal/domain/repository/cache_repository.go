package repository

import (
	"context"
	"time"

	"github.com/nearest-locations/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу; промах - (nil, nil)
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetCoordinate получает результат геокодирования
	GetCoordinate(ctx context.Context, key string) (*domain.Coordinate, error)

	// SetCoordinate сохраняет результат геокодирования
	SetCoordinate(ctx context.Context, key string, coord domain.Coordinate, ttl time.Duration) error
}
