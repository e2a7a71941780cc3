package domain

import "math"

// CandidateID - стабильный идентификатор локации, присваивается при сборке реестра
type CandidateID int

// DisplayFields - данные для отображения, ядро ранжирования их не интерпретирует
type DisplayFields struct {
	Name       string            `json:"name" db:"name"`
	Address    string            `json:"address,omitempty" db:"address"`
	BookURL    string            `json:"book_url,omitempty" db:"book_url"`
	DetailsURL string            `json:"details_url,omitempty" db:"details_url"`
	Image      string            `json:"image,omitempty" db:"image"`
	Metadata   map[string]string `json:"metadata,omitempty" db:"-"`
}

func (d DisplayFields) clone() DisplayFields {
	out := d
	if d.Metadata != nil {
		out.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// RawEntry - сырая запись о локации до разбора координат
type RawEntry struct {
	Lat     string `json:"lat" db:"lat"`
	Lng     string `json:"lng" db:"lng"`
	Display DisplayFields
}

// Candidate - физическая локация, участвующая в ранжировании
type Candidate struct {
	ID         CandidateID   `json:"id"`
	Coordinate *Coordinate   `json:"coordinate,omitempty"`
	Display    DisplayFields `json:"display"`

	// DistanceMeters == nil: расстояние не посчитано или провайдер не смог его вернуть
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	DistanceText   string   `json:"distance_text,omitempty"`
	DurationText   string   `json:"duration_text,omitempty"`
	Unreachable    bool     `json:"unreachable,omitempty"`
}

// Routable - есть ли у локации координата для запроса расстояний
func (c *Candidate) Routable() bool {
	return c.Coordinate != nil
}

// SortKey - ключ сортировки; неизвестное расстояние считается +Inf
func (c *Candidate) SortKey() float64 {
	if c.DistanceMeters == nil {
		return math.Inf(1)
	}
	return *c.DistanceMeters
}

// HasDistance - есть ли что показать в блоке расстояния
func (c *Candidate) HasDistance() bool {
	return c.DistanceMeters != nil && c.DistanceText != ""
}

// Clone возвращает глубокую копию
func (c Candidate) Clone() Candidate {
	out := c
	out.Display = c.Display.clone()
	if c.Coordinate != nil {
		coord := *c.Coordinate
		out.Coordinate = &coord
	}
	if c.DistanceMeters != nil {
		d := *c.DistanceMeters
		out.DistanceMeters = &d
	}
	return out
}

// IDs возвращает идентификаторы в порядке слайса
func IDs(candidates []Candidate) []CandidateID {
	ids := make([]CandidateID, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID
	}
	return ids
}
