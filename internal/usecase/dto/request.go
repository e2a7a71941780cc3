package dto

import (
	"time"

	"github.com/nearest-locations/internal/domain"
)

// PolicyRequest - необязательное переопределение политики триггера
type PolicyRequest struct {
	AutoSelectNearest *bool `json:"auto_select_nearest,omitempty"`
	FitViewToResult   *bool `json:"fit_view_to_result,omitempty"`
}

// Resolve накладывает переданные флаги на политику по умолчанию
func (p *PolicyRequest) Resolve(trigger domain.Trigger) domain.SearchPolicy {
	policy := domain.DefaultPolicy(trigger)
	if p == nil {
		return policy
	}
	if p.AutoSelectNearest != nil {
		policy.AutoSelectNearest = *p.AutoSelectNearest
	}
	if p.FitViewToResult != nil {
		policy.FitViewToResult = *p.FitViewToResult
	}
	return policy
}

// SearchRequest - поиск по тексту или по готовой точке
type SearchRequest struct {
	Query  string         `json:"query" validate:"omitempty,max=200"`
	Lat    *float64       `json:"lat,omitempty" validate:"required_without=Query,omitempty,min=-90,max=90"`
	Lng    *float64       `json:"lng,omitempty" validate:"required_with=Lat,omitempty,min=-180,max=180"`
	Policy *PolicyRequest `json:"policy,omitempty"`
}

// HasCoordinates - передана ли точка вместо текста
func (r *SearchRequest) HasCoordinates() bool {
	return r.Lat != nil && r.Lng != nil
}

// AutocompleteRequest - выбранная подсказка адреса; без координат игнорируется
type AutocompleteRequest struct {
	Lat     *float64       `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng     *float64       `json:"lng,omitempty" validate:"required_with=Lat,omitempty,min=-180,max=180"`
	Country string         `json:"country,omitempty" validate:"omitempty,len=2"`
	Label   string         `json:"label,omitempty" validate:"omitempty,max=300"`
	Policy  *PolicyRequest `json:"policy,omitempty"`
}

// Pick переводит запрос в доменный выбор
func (r *AutocompleteRequest) Pick() domain.AutocompletePick {
	pick := domain.AutocompletePick{CountryCode: r.Country, Label: r.Label}
	if r.Lat != nil && r.Lng != nil {
		pick.Coordinate = &domain.Coordinate{Lat: *r.Lat, Lng: *r.Lng}
	}
	return pick
}

// GeolocationRequest - результат определения позиции в браузере.
// Timestamp - position.timestamp браузера в миллисекундах Unix.
type GeolocationRequest struct {
	Lat       *float64       `json:"lat,omitempty" validate:"required_without=Error,omitempty,min=-90,max=90"`
	Lng       *float64       `json:"lng,omitempty" validate:"required_with=Lat,omitempty,min=-180,max=180"`
	Error     string         `json:"error,omitempty" validate:"omitempty,oneof=denied timeout unsupported"`
	Explicit  bool           `json:"explicit"`
	Timestamp int64          `json:"timestamp,omitempty" validate:"omitempty,min=0"`
	Policy    *PolicyRequest `json:"policy,omitempty"`
}

// ReportedAt - момент определения позиции; без timestamp - now
func (r *GeolocationRequest) ReportedAt(now time.Time) time.Time {
	if r.Timestamp > 0 {
		return time.UnixMilli(r.Timestamp)
	}
	return now
}

// Trigger - тип триггера по флагу explicit
func (r *GeolocationRequest) Trigger() domain.Trigger {
	if r.Explicit {
		return domain.TriggerGeolocation
	}
	return domain.TriggerPageLoad
}

// CreateSessionRequest - создание сессии; может нести позицию с загрузки страницы
type CreateSessionRequest struct {
	Geolocation *GeolocationRequest `json:"geolocation,omitempty"`
}

// SelectRequest - явный выбор локации
type SelectRequest struct {
	ID *int `json:"id" validate:"required,min=0"`
}

// NearestRequest - запрос к серверному ранжированию
type NearestRequest struct {
	Query string   `json:"q,omitempty" validate:"omitempty,max=200"`
	Lat   *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng   *float64 `json:"lng,omitempty" validate:"required_with=Lat,omitempty,min=-180,max=180"`
	Limit int      `json:"limit,omitempty" validate:"omitempty,min=1,max=25"`
}
