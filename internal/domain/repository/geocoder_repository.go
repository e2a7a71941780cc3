package repository

import (
	"context"

	"github.com/nearest-locations/internal/domain"
)

// GeocoderRepository определяет методы геокодера
type GeocoderRepository interface {
	// Geocode превращает текст (адрес, ZIP, город) в координату.
	// country - ISO код для ограничения поиска, пустая строка без ограничения.
	Geocode(ctx context.Context, query, country string) (domain.Coordinate, error)

	// ReverseCountry возвращает ISO код страны для точки
	ReverseCountry(ctx context.Context, coord domain.Coordinate) (string, error)
}

// Geolocator - однократное определение позиции устройства
type Geolocator interface {
	CurrentPosition(ctx context.Context, opts domain.GeolocationOptions) (domain.Coordinate, error)
}
