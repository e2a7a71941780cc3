package domain

// CameraMode - тип движения камеры карты
type CameraMode string

const (
	CameraFlyTo     CameraMode = "fly_to"
	CameraFitBounds CameraMode = "fit_bounds"
)

// CameraMove - команда карте; отдается представлению, но не читается обратно
type CameraMove struct {
	Mode   CameraMode  `json:"mode"`
	Center *Coordinate `json:"center,omitempty"`
	Bounds *Bounds     `json:"bounds,omitempty"`
	// Padding в пикселях для fit_bounds
	Padding int `json:"padding,omitempty"`
}

// ViewItem - карточка локации в списке и маркер на карте
type ViewItem struct {
	ID           CandidateID   `json:"id"`
	Rank         int           `json:"rank"`
	Display      DisplayFields `json:"display"`
	Coordinate   *Coordinate   `json:"coordinate,omitempty"`
	DistanceText string        `json:"distance_text,omitempty"`
	DurationText string        `json:"duration_text,omitempty"`
	ShowDistance bool          `json:"show_distance"`
	ShowDuration bool          `json:"show_duration"`
	Active       bool          `json:"active"`
	OnMap        bool          `json:"on_map"`
}

// ViewState - проекция состояния SelectionSync для списка и карты
type ViewState struct {
	Version          uint64       `json:"version"`
	AppliedRequestID uint64       `json:"applied_request_id"`
	Items            []ViewItem   `json:"items"`
	ActiveID         *CandidateID `json:"active_id,omitempty"`
	Popup            *CandidateID `json:"popup,omitempty"`
	Camera           *CameraMove  `json:"camera,omitempty"`
	Origin           *Origin      `json:"origin,omitempty"`
	DistancesHidden  bool         `json:"distances_hidden"`
}

// ActiveCount - число активных карточек в проекции
func (v ViewState) ActiveCount() int {
	n := 0
	for _, it := range v.Items {
		if it.Active {
			n++
		}
	}
	return n
}

// Order возвращает порядок id в проекции
func (v ViewState) Order() []CandidateID {
	ids := make([]CandidateID, len(v.Items))
	for i, it := range v.Items {
		ids[i] = it.ID
	}
	return ids
}

// Notice - сообщение пользователю (аналог alert), только для явных действий
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	NoticeLocationDenied = "LOCATION_UNAVAILABLE"
	NoticeOutsideRegion  = "OUTSIDE_REGION"
)
