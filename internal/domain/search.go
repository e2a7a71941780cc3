package domain

// Trigger - источник origin для поиска
type Trigger string

const (
	TriggerQuery        Trigger = "query"
	TriggerAutocomplete Trigger = "autocomplete"
	TriggerGeolocation  Trigger = "geolocation"
	TriggerPageLoad     Trigger = "page_load"
)

// Origin - точка, от которой считаются расстояния. Создается заново на каждый поиск.
type Origin struct {
	Coordinate Coordinate `json:"coordinate"`
	Trigger    Trigger    `json:"trigger"`
	Label      string     `json:"label,omitempty"`
}

// SearchPolicy - как применять результат поиска к представлению
type SearchPolicy struct {
	// AutoSelectNearest - сделать ближайшую локацию активной и сдвинуть камеру к ней
	AutoSelectNearest bool `json:"auto_select_nearest"`
	// FitViewToResult - вместо перелета к ближайшей вписать в кадр origin и ближайшую
	FitViewToResult bool `json:"fit_view_to_result"`
}

// DefaultPolicy возвращает политику по умолчанию для типа триггера
func DefaultPolicy(trigger Trigger) SearchPolicy {
	switch trigger {
	case TriggerQuery, TriggerAutocomplete:
		return SearchPolicy{AutoSelectNearest: true, FitViewToResult: true}
	case TriggerGeolocation:
		return SearchPolicy{AutoSelectNearest: true, FitViewToResult: false}
	default:
		return SearchPolicy{}
	}
}

// SearchRequest - один ранжирующий запрос в полете
type SearchRequest struct {
	Origin    Origin
	RequestID uint64
	Policy    SearchPolicy
}

// AutocompletePick - выбор подсказки адреса
type AutocompletePick struct {
	Coordinate  *Coordinate
	CountryCode string
	Label       string
}

// SelectionState - активная локация; ноль или одна
type SelectionState struct {
	ActiveID *CandidateID `json:"active_id,omitempty"`
}

// Is сообщает, активна ли локация id
func (s SelectionState) Is(id CandidateID) bool {
	return s.ActiveID != nil && *s.ActiveID == id
}
