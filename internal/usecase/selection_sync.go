package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
	"github.com/nearest-locations/internal/pkg/utils"
)

const (
	msgLocationDenied = "We can't access your location, please type your zipcode or city."
	msgOutsideRegion  = "Current location search is available for US locations only. Please enter a US ZIP code or city."
)

// Ranker - ранжирование на рабочей копии реестра
type Ranker interface {
	Rank(ctx context.Context, origin domain.Coordinate, reg *LocationRegistry) RankResult
}

// OriginResolver превращает текст в координату и определяет страну точки
type OriginResolver interface {
	Geocode(ctx context.Context, query string) (domain.Coordinate, error)
	CountryOf(ctx context.Context, coord domain.Coordinate) (string, error)
}

// ViewRenderer получает каждую новую проекцию. Вызывается под блокировкой,
// поэтому рендеры упорядочены и не должны обращаться обратно к SelectionSync.
type ViewRenderer interface {
	Render(view domain.ViewState)
}

// ViewRendererFunc - адаптер функции к ViewRenderer
type ViewRendererFunc func(view domain.ViewState)

func (f ViewRendererFunc) Render(view domain.ViewState) { f(view) }

// SelectionSyncConfig - настройки одного экземпляра
type SelectionSyncConfig struct {
	// CountryRestriction - ISO код страны; пусто - без ограничения
	CountryRestriction string
	Geolocation        domain.GeolocationOptions
	FitPadding         int
}

// SearchOutcome - что произошло с одним поисковым действием
type SearchOutcome struct {
	RequestID     uint64           `json:"request_id"`
	Applied       bool             `json:"applied"`
	Stale         bool             `json:"stale"`
	Ignored       bool             `json:"ignored"`
	GeocodeFailed bool             `json:"geocode_failed"`
	SearchFailed  bool             `json:"search_failed"`
	Notice        *domain.Notice   `json:"notice,omitempty"`
	Batches       int              `json:"batches"`
	FailedBatches int              `json:"failed_batches"`
	View          domain.ViewState `json:"view"`
}

// SelectionSync - состояние одной страницы: порядок списка, активная локация,
// камера и попап. Применяет только результаты самого свежего запроса.
type SelectionSync struct {
	mu sync.Mutex

	registry *LocationRegistry
	ranker   Ranker
	resolver OriginResolver
	renderer ViewRenderer
	cfg      SelectionSyncConfig
	logger   *zap.Logger

	latestRequestID  uint64
	appliedRequestID uint64
	// запросы с id <= explicitSelectMark выданы до последнего явного выбора
	explicitSelectMark uint64

	selection       domain.SelectionState
	order           []domain.CandidateID
	origin          *domain.Origin
	distancesHidden bool
	camera          *domain.CameraMove
	popup           *domain.CandidateID
	version         uint64
}

// NewSelectionSync создает экземпляр; начальный порядок - порядок регистрации
func NewSelectionSync(
	registry *LocationRegistry,
	ranker Ranker,
	resolver OriginResolver,
	renderer ViewRenderer,
	cfg SelectionSyncConfig,
	logger *zap.Logger,
) *SelectionSync {
	return &SelectionSync{
		registry: registry,
		ranker:   ranker,
		resolver: resolver,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
		order:    domain.IDs(registry.SnapshotOrderedByRegistration()),
	}
}

func (s *SelectionSync) issueRequest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestRequestID++
	return s.latestRequestID
}

func (s *SelectionSync) isFresh(requestID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return requestID == s.latestRequestID
}

// StartSearch ранжирует локации от готового origin
func (s *SelectionSync) StartSearch(ctx context.Context, origin domain.Origin, policy domain.SearchPolicy) (SearchOutcome, error) {
	if !origin.Coordinate.Valid() {
		return SearchOutcome{}, domain.ErrInvalidCoordinates
	}
	req := domain.SearchRequest{Origin: origin, RequestID: s.issueRequest(), Policy: policy}
	return s.run(ctx, req), nil
}

// SearchQuery геокодирует текст и ранжирует от результата. Пустой запрос игнорируется.
func (s *SelectionSync) SearchQuery(ctx context.Context, query string, policy domain.SearchPolicy) (SearchOutcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ignored(), nil
	}

	// id выдается до геокодирования: поздний ответ геокодера старого запроса
	// не должен перебить более новый
	requestID := s.issueRequest()

	coord, err := s.resolver.Geocode(ctx, query)
	if !s.isFresh(requestID) {
		return s.stale(requestID), nil
	}
	if err != nil {
		s.logger.Info("Geocode failed, keeping previous results",
			zap.Uint64("request_id", requestID),
			zap.String("query", query),
			zap.Error(err))

		out := SearchOutcome{RequestID: requestID, GeocodeFailed: true, View: s.Snapshot()}
		if errors.Is(err, domain.ErrOutsideRegion) {
			out.Notice = &domain.Notice{Code: domain.NoticeOutsideRegion, Message: msgOutsideRegion}
		}
		return out, nil
	}

	req := domain.SearchRequest{
		Origin:    domain.Origin{Coordinate: coord, Trigger: domain.TriggerQuery, Label: query},
		RequestID: requestID,
		Policy:    policy,
	}
	return s.run(ctx, req), nil
}

// SearchAutocomplete - выбор подсказки. Без геометрии или вне региона - игнор.
func (s *SelectionSync) SearchAutocomplete(ctx context.Context, pick domain.AutocompletePick, policy domain.SearchPolicy) (SearchOutcome, error) {
	if pick.Coordinate == nil {
		return s.ignored(), nil
	}
	if !pick.Coordinate.Valid() {
		return SearchOutcome{}, domain.ErrInvalidCoordinates
	}
	if s.cfg.CountryRestriction != "" && pick.CountryCode != "" &&
		!strings.EqualFold(pick.CountryCode, s.cfg.CountryRestriction) {
		s.logger.Debug("Autocomplete pick outside of region ignored",
			zap.String("country", pick.CountryCode))
		return s.ignored(), nil
	}

	req := domain.SearchRequest{
		Origin: domain.Origin{
			Coordinate: *pick.Coordinate,
			Trigger:    domain.TriggerAutocomplete,
			Label:      pick.Label,
		},
		RequestID: s.issueRequest(),
		Policy:    policy,
	}
	return s.run(ctx, req), nil
}

// Locate запрашивает позицию устройства. explicit - действие пользователя,
// иначе попытка при загрузке страницы; уведомления только для explicit.
func (s *SelectionSync) Locate(
	ctx context.Context,
	locator repository.Geolocator,
	explicit bool,
	policy domain.SearchPolicy,
) (SearchOutcome, error) {
	// id выдается до ожидания позиции: более поздний поиск делает эту попытку устаревшей
	requestID := s.issueRequest()

	opts := s.cfg.Geolocation
	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	coord, err := locator.CurrentPosition(waitCtx, opts)
	if !s.isFresh(requestID) {
		return s.stale(requestID), nil
	}
	if err != nil {
		if !domain.IsGeolocationFailure(err) {
			err = errors.Join(domain.ErrGeolocationTimeout, err)
		}
		s.logger.Info("Geolocation unavailable, hiding distances",
			zap.Uint64("request_id", requestID),
			zap.Bool("explicit", explicit),
			zap.Error(err))

		view, fresh := s.hideDistances(requestID)
		if !fresh {
			return SearchOutcome{RequestID: requestID, Stale: true, View: view}, nil
		}
		out := SearchOutcome{RequestID: requestID, SearchFailed: true, View: view}
		if explicit {
			out.Notice = &domain.Notice{Code: domain.NoticeLocationDenied, Message: msgLocationDenied}
		}
		return out, nil
	}

	if !coord.Valid() {
		return SearchOutcome{}, domain.ErrInvalidCoordinates
	}

	if s.cfg.CountryRestriction != "" && s.resolver != nil {
		country, cerr := s.resolver.CountryOf(ctx, coord)
		if !s.isFresh(requestID) {
			return s.stale(requestID), nil
		}
		if cerr != nil || !strings.EqualFold(country, s.cfg.CountryRestriction) {
			s.logger.Info("Geolocation fix outside of region",
				zap.Bool("explicit", explicit),
				zap.String("country", country),
				zap.NamedError("lookup_error", cerr))

			out := s.ignored()
			if explicit {
				out.Notice = &domain.Notice{Code: domain.NoticeOutsideRegion, Message: msgOutsideRegion}
			}
			return out, nil
		}
	}

	trigger := domain.TriggerPageLoad
	if explicit {
		trigger = domain.TriggerGeolocation
	}
	req := domain.SearchRequest{
		Origin:    domain.Origin{Coordinate: coord, Trigger: trigger},
		RequestID: requestID,
		Policy:    policy,
	}
	return s.run(ctx, req), nil
}

// run ранжирует на копии реестра и применяет результат, если запрос все еще свежий
func (s *SelectionSync) run(ctx context.Context, req domain.SearchRequest) SearchOutcome {
	if !s.isFresh(req.RequestID) {
		return s.stale(req.RequestID)
	}

	work := s.registry.Clone()
	result := s.ranker.Rank(ctx, req.Origin.Coordinate, work)

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.RequestID != s.latestRequestID {
		s.logger.Debug("Discarding stale ranking result",
			zap.Uint64("request_id", req.RequestID),
			zap.Uint64("latest_request_id", s.latestRequestID))
		return SearchOutcome{RequestID: req.RequestID, Stale: true, View: s.buildView()}
	}

	out := SearchOutcome{
		RequestID:     req.RequestID,
		Batches:       result.Batches,
		FailedBatches: result.FailedBatches,
	}

	// полностью проваленный поиск не затирает прошлый удачный результат
	if result.Batches > 0 && result.Reachable == 0 {
		s.logger.Warn("Every distance batch failed, keeping previous results",
			zap.Uint64("request_id", req.RequestID),
			zap.Int("batches", result.Batches))
		out.SearchFailed = true
		out.View = s.buildView()
		return out
	}

	s.registry.ReplaceFrom(work)
	s.order = domain.IDs(result.Ordered)
	origin := req.Origin
	s.origin = &origin
	s.distancesHidden = false
	s.appliedRequestID = req.RequestID

	if req.Policy.AutoSelectNearest && req.RequestID > s.explicitSelectMark && len(result.Ordered) > 0 {
		nearest := result.Ordered[0]
		id := nearest.ID
		s.selection = domain.SelectionState{ActiveID: &id}
		s.popup = &id
		s.camera = s.cameraFor(req, nearest)
	}

	out.Applied = true
	out.View = s.commit()
	return out
}

func (s *SelectionSync) cameraFor(req domain.SearchRequest, nearest domain.Candidate) *domain.CameraMove {
	if nearest.Coordinate == nil {
		return nil
	}
	if req.Policy.FitViewToResult {
		bounds := utils.BoundsOf(req.Origin.Coordinate, *nearest.Coordinate)
		return &domain.CameraMove{Mode: domain.CameraFitBounds, Bounds: &bounds, Padding: s.cfg.FitPadding}
	}
	center := *nearest.Coordinate
	return &domain.CameraMove{Mode: domain.CameraFlyTo, Center: &center}
}

// SelectCandidate - явный выбор пользователя; побеждает авто-выбор любого
// запроса, выданного до этого момента
func (s *SelectionSync) SelectCandidate(id domain.CandidateID) (domain.ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.registry.Get(id)
	if !ok {
		return domain.ViewState{}, domain.ErrCandidateNotFound
	}

	s.explicitSelectMark = s.latestRequestID
	s.selection = domain.SelectionState{ActiveID: &id}
	s.popup = &id
	if c.Coordinate != nil {
		center := *c.Coordinate
		s.camera = &domain.CameraMove{Mode: domain.CameraFlyTo, Center: &center}
	}
	return s.commit(), nil
}

// ClearSelection снимает активную локацию и закрывает попап
func (s *SelectionSync) ClearSelection() domain.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.explicitSelectMark = s.latestRequestID
	s.selection = domain.SelectionState{}
	s.popup = nil
	return s.commit()
}

// Snapshot - текущая проекция без изменения состояния
func (s *SelectionSync) Snapshot() domain.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildView()
}

// Selection возвращает текущее состояние выбора
func (s *SelectionSync) Selection() domain.SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.ActiveID == nil {
		return domain.SelectionState{}
	}
	id := *s.selection.ActiveID
	return domain.SelectionState{ActiveID: &id}
}

// hideDistances скрывает расстояния, только если requestID все еще последний
func (s *SelectionSync) hideDistances(requestID uint64) (domain.ViewState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if requestID != s.latestRequestID {
		return s.buildView(), false
	}
	s.distancesHidden = true
	return s.commit(), true
}

func (s *SelectionSync) ignored() SearchOutcome {
	return SearchOutcome{Ignored: true, View: s.Snapshot()}
}

func (s *SelectionSync) stale(requestID uint64) SearchOutcome {
	s.logger.Debug("Search superseded before ranking",
		zap.Uint64("request_id", requestID))
	return SearchOutcome{RequestID: requestID, Stale: true, View: s.Snapshot()}
}

// commit увеличивает версию и отдает проекцию рендереру. Только под s.mu.
func (s *SelectionSync) commit() domain.ViewState {
	s.version++
	view := s.buildView()
	if s.renderer != nil {
		s.renderer.Render(view)
	}
	return view
}

// buildView - чистая проекция состояния. Только под s.mu.
func (s *SelectionSync) buildView() domain.ViewState {
	snapshot := s.registry.SnapshotOrderedByRegistration()

	items := make([]domain.ViewItem, 0, len(s.order))
	for rank, id := range s.order {
		if int(id) >= len(snapshot) {
			continue
		}
		c := snapshot[id]
		showDistance := !s.distancesHidden && c.HasDistance()
		items = append(items, domain.ViewItem{
			ID:           c.ID,
			Rank:         rank + 1,
			Display:      c.Display,
			Coordinate:   c.Coordinate,
			DistanceText: c.DistanceText,
			DurationText: c.DurationText,
			ShowDistance: showDistance,
			ShowDuration: showDistance && c.DurationText != "",
			Active:       s.selection.Is(c.ID),
			OnMap:        c.Coordinate != nil,
		})
	}

	view := domain.ViewState{
		Version:          s.version,
		AppliedRequestID: s.appliedRequestID,
		Items:            items,
		DistancesHidden:  s.distancesHidden,
	}
	if s.selection.ActiveID != nil {
		id := *s.selection.ActiveID
		view.ActiveID = &id
	}
	if s.popup != nil {
		id := *s.popup
		view.Popup = &id
	}
	if s.camera != nil {
		camera := *s.camera
		view.Camera = &camera
	}
	if s.origin != nil {
		origin := *s.origin
		view.Origin = &origin
	}
	return view
}
