package domain

import "github.com/google/uuid"

// Stream names
const (
	StreamNearestRank   = "stream:nearest:rank"
	StreamNearestRanked = "stream:nearest:ranked"
)

// RankRequestEvent - входящее событие на ранжирование локаций
type RankRequestEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	Query     *string   `json:"query,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// HasCoordinates проверяет, передана ли готовая точка
func (e *RankRequestEvent) HasCoordinates() bool {
	return e.Lat != nil && e.Lng != nil
}

// HasQuery проверяет наличие непустого текстового запроса
func (e *RankRequestEvent) HasQuery() bool {
	return e.Query != nil && *e.Query != ""
}

// RankedLocation - одна локация в ответе воркера
type RankedLocation struct {
	ID             CandidateID   `json:"id"`
	Rank           int           `json:"rank"`
	Display        DisplayFields `json:"display"`
	DistanceMeters *float64      `json:"distance_meters,omitempty"`
	DistanceText   string        `json:"distance_text,omitempty"`
	DurationText   string        `json:"duration_text,omitempty"`
}

// RankDoneEvent - результат ранжирования
type RankDoneEvent struct {
	RequestID uuid.UUID        `json:"request_id"`
	Origin    *Coordinate      `json:"origin,omitempty"`
	Items     []RankedLocation `json:"items,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID     string
	Stream string
	Data   map[string]interface{}
}
