package utils

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/nearest-locations/internal/domain"
)

// ToPoint переводит координату в orb.Point (порядок lon, lat)
func ToPoint(c domain.Coordinate) orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// FromPoint - обратное преобразование
func FromPoint(p orb.Point) domain.Coordinate {
	return domain.Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// HaversineMeters - расстояние по прямой в метрах
func HaversineMeters(a, b domain.Coordinate) float64 {
	return geo.DistanceHaversine(ToPoint(a), ToPoint(b))
}

// BoundsOf возвращает охватывающий прямоугольник для набора точек
func BoundsOf(coords ...domain.Coordinate) domain.Bounds {
	mp := make(orb.MultiPoint, 0, len(coords))
	for _, c := range coords {
		mp = append(mp, ToPoint(c))
	}
	b := mp.Bound()
	return domain.Bounds{
		SouthWest: FromPoint(b.Min),
		NorthEast: FromPoint(b.Max),
	}
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lng float64) bool {
	return domain.Coordinate{Lat: lat, Lng: lng}.Valid()
}
