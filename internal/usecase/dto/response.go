package dto

import "github.com/nearest-locations/internal/domain"

// SessionResponse - сессия и ее текущая проекция
type SessionResponse struct {
	ID     string           `json:"id"`
	View   domain.ViewState `json:"view"`
	Notice *domain.Notice   `json:"notice,omitempty"`
}

// NearestResponse - ответ серверного ранжирования, порядок сохраняется
type NearestResponse struct {
	Items  []domain.NearestItem `json:"items"`
	Cached bool                 `json:"-"`
}

// LocationResponse - локация каталога
type LocationResponse struct {
	ID         domain.CandidateID   `json:"id"`
	Display    domain.DisplayFields `json:"display"`
	Coordinate *domain.Coordinate   `json:"coordinate,omitempty"`
}

// LocationsResponse - каталог в порядке регистрации
type LocationsResponse struct {
	Locations []LocationResponse `json:"locations"`
	Total     int                `json:"total"`
}

// NewLocationsResponse собирает ответ из кандидатов
func NewLocationsResponse(candidates []domain.Candidate) *LocationsResponse {
	out := make([]LocationResponse, len(candidates))
	for i, c := range candidates {
		out[i] = LocationResponse{ID: c.ID, Display: c.Display, Coordinate: c.Coordinate}
	}
	return &LocationsResponse{Locations: out, Total: len(out)}
}

// ErrorResponse - тело ошибки внешнего эндпоинта
type ErrorResponse struct {
	Error string `json:"error"`
}
