package usecase

import (
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
)

// LocationRegistry хранит фиксированный набор локаций и их изменяемые поля ранжирования.
// Идентификаторы присваиваются один раз в порядке входных данных и совпадают с индексом.
type LocationRegistry struct {
	mu         sync.RWMutex
	candidates []domain.Candidate
}

// BuildRegistry разбирает сырые записи. Запись с битой координатой остается для
// отображения, но в запросы расстояний не попадает.
func BuildRegistry(entries []domain.RawEntry, logger *zap.Logger) *LocationRegistry {
	candidates := make([]domain.Candidate, len(entries))
	skipped := 0

	for i, e := range entries {
		candidates[i] = domain.Candidate{
			ID:      domain.CandidateID(i),
			Display: e.Display,
		}

		coord, ok := parseCoordinate(e.Lat, e.Lng)
		if !ok {
			skipped++
			logger.Warn("Location has no usable coordinate, excluded from ranking",
				zap.Int("id", i),
				zap.String("name", e.Display.Name),
				zap.String("lat", e.Lat),
				zap.String("lng", e.Lng))
			continue
		}
		candidates[i].Coordinate = &coord
	}

	logger.Debug("Location registry built",
		zap.Int("total", len(candidates)),
		zap.Int("without_coordinates", skipped))

	return &LocationRegistry{candidates: candidates}
}

// parseCoordinate - нестрогий разбор: пробелы и запятая как десятичный разделитель
func parseCoordinate(latStr, lngStr string) (domain.Coordinate, bool) {
	lat, err := parseFloat(latStr)
	if err != nil {
		return domain.Coordinate{}, false
	}
	lng, err := parseFloat(lngStr)
	if err != nil {
		return domain.Coordinate{}, false
	}
	c := domain.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return domain.Coordinate{}, false
	}
	return c, true
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	return strconv.ParseFloat(s, 64)
}

// Len - число локаций
func (r *LocationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.candidates)
}

// Get возвращает копию локации по id
func (r *LocationRegistry) Get(id domain.CandidateID) (domain.Candidate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.known(id) {
		return domain.Candidate{}, false
	}
	return r.candidates[id].Clone(), true
}

func (r *LocationRegistry) known(id domain.CandidateID) bool {
	return id >= 0 && int(id) < len(r.candidates)
}

// ApplyDistanceResult перезаписывает расстояние и тексты. Неизвестный id - no-op.
func (r *LocationRegistry) ApplyDistanceResult(id domain.CandidateID, meters float64, distanceText, durationText string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.known(id) {
		return
	}
	c := &r.candidates[id]
	c.DistanceMeters = &meters
	c.DistanceText = distanceText
	c.DurationText = durationText
	c.Unreachable = false
}

// MarkUnreachable сбрасывает расстояние: такая локация сортируется в конец
func (r *LocationRegistry) MarkUnreachable(id domain.CandidateID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.known(id) {
		return
	}
	c := &r.candidates[id]
	c.DistanceMeters = nil
	c.DistanceText = ""
	c.DurationText = ""
	c.Unreachable = true
}

// SnapshotOrderedByRegistration - копии всех локаций в исходном порядке
func (r *LocationRegistry) SnapshotOrderedByRegistration() []domain.Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Candidate, len(r.candidates))
	for i := range r.candidates {
		out[i] = r.candidates[i].Clone()
	}
	return out
}

// Routable - копии локаций с координатами, в порядке регистрации
func (r *LocationRegistry) Routable() []domain.Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Candidate, 0, len(r.candidates))
	for i := range r.candidates {
		if r.candidates[i].Routable() {
			out = append(out, r.candidates[i].Clone())
		}
	}
	return out
}

// Clone - рабочая копия реестра для одного запроса
func (r *LocationRegistry) Clone() *LocationRegistry {
	return &LocationRegistry{candidates: r.SnapshotOrderedByRegistration()}
}

// ReplaceFrom атомарно переносит поля ранжирования из рабочей копии
func (r *LocationRegistry) ReplaceFrom(other *LocationRegistry) {
	if other == r {
		return
	}
	snapshot := other.SnapshotOrderedByRegistration()

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range snapshot {
		if !r.known(snapshot[i].ID) {
			continue
		}
		c := &r.candidates[snapshot[i].ID]
		c.DistanceMeters = snapshot[i].DistanceMeters
		c.DistanceText = snapshot[i].DistanceText
		c.DurationText = snapshot[i].DurationText
		c.Unreachable = snapshot[i].Unreachable
	}
}

// ResetDistances забывает все посчитанные расстояния
func (r *LocationRegistry) ResetDistances() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.candidates {
		r.candidates[i].DistanceMeters = nil
		r.candidates[i].DistanceText = ""
		r.candidates[i].DurationText = ""
		r.candidates[i].Unreachable = false
	}
}
