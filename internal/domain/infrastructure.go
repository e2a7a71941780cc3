package domain

import "time"

// ElementStatus - статус одной ячейки матрицы расстояний
type ElementStatus string

const (
	ElementOK       ElementStatus = "OK"
	ElementNotFound ElementStatus = "NOT_FOUND"
	ElementNoRoute  ElementStatus = "ZERO_RESULTS"
)

// DistanceElement - результат для одного пункта назначения
type DistanceElement struct {
	Status          ElementStatus `json:"status"`
	DistanceMeters  float64       `json:"distance_meters"`
	DurationSeconds float64       `json:"duration_seconds"`
	DistanceText    string        `json:"distance_text"`
	DurationText    string        `json:"duration_text"`
}

// OK - ячейка содержит расстояние
func (e DistanceElement) OK() bool {
	return e.Status == ElementOK
}

// GeolocationOptions - параметры однократного определения позиции
type GeolocationOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	MaximumAge         time.Duration
}

// NearestQuery - тело запроса к внешнему nearest-locations
type NearestQuery struct {
	Q     string   `json:"q,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
	Limit int      `json:"limit"`
}

// NearestItem - элемент ответа nearest-locations, уже отсортированный сервером
type NearestItem struct {
	Name         string   `json:"name"`
	DistanceText string   `json:"distanceText,omitempty"`
	DurationText string   `json:"durationText,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	Address      string   `json:"address,omitempty"`
	BookURL      string   `json:"bookUrl,omitempty"`
	DetailsURL   string   `json:"detailsUrl,omitempty"`
	Image        string   `json:"image,omitempty"`
}
