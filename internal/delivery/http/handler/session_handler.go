package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/infrastructure/geolocation"
	"github.com/nearest-locations/internal/pkg/errors"
	"github.com/nearest-locations/internal/pkg/utils"
	"github.com/nearest-locations/internal/pkg/validator"
	"github.com/nearest-locations/internal/usecase"
	"github.com/nearest-locations/internal/usecase/dto"
)

// SessionHandler - обработчик сессий выбора локации
type SessionHandler struct {
	sessionUC *usecase.SessionUseCase
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionHandler - создание нового SessionHandler
func NewSessionHandler(sessionUC *usecase.SessionUseCase, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessionUC: sessionUC,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *SessionHandler) session(c *fiber.Ctx) (*usecase.Session, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	return h.sessionUC.Get(id)
}

func parseBody(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return errors.ErrInvalidRequest.WithMessage("Invalid request body")
	}
	return validator.Validate(req)
}

func sendOutcome(c *fiber.Ctx, outcome usecase.SearchOutcome) error {
	return utils.SendSuccess(c, outcome, &utils.Meta{
		Total: len(outcome.View.Items),
		Stale: outcome.Stale,
	})
}

func (h *SessionHandler) locate(c *fiber.Ctx, session *usecase.Session, req *dto.GeolocationRequest) (usecase.SearchOutcome, error) {
	var coord *domain.Coordinate
	if req.Lat != nil && req.Lng != nil {
		coord = &domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	}
	locator := geolocation.NewReported(coord, req.Error, req.ReportedAt(h.now()))
	return session.Sync.Locate(c.Context(), locator, req.Explicit, req.Policy.Resolve(req.Trigger()))
}

// Create godoc
// @Summary Создание сессии
// @Description Открывает сессию с каталогом в порядке регистрации. Может принять позицию, определенную при загрузке страницы.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest false "Позиция при загрузке страницы"
// @Success 201 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return utils.SendError(c, err)
		}
		if req.Geolocation != nil {
			if err := validator.Validate(req.Geolocation); err != nil {
				return utils.SendError(c, err)
			}
		}
	}

	session := h.sessionUC.Create()
	resp := dto.SessionResponse{ID: session.ID.String(), View: session.Sync.Snapshot()}

	if req.Geolocation != nil {
		outcome, err := h.locate(c, session, req.Geolocation)
		if err != nil {
			h.logger.Warn("Initial geolocation rejected",
				zap.String("session_id", resp.ID),
				zap.Error(err))
		} else {
			resp.View = outcome.View
			resp.Notice = outcome.Notice
		}
	}

	return utils.SendCreated(c, resp)
}

// Get godoc
// @Summary Текущее состояние сессии
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	view := session.Sync.Snapshot()
	return utils.SendSuccess(c, dto.SessionResponse{
		ID:   session.ID.String(),
		View: view,
	}, &utils.Meta{Total: len(view.Items)})
}

// Delete godoc
// @Summary Закрытие сессии
// @Tags Sessions
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [delete]
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, domain.ErrSessionNotFound)
	}
	if err := h.sessionUC.Delete(id); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Search godoc
// @Summary Поиск ближайших локаций
// @Description Геокодирует текст (ZIP, город) или берет переданную точку и ранжирует локации по расстоянию на автомобиле. Устаревший ответ помечается meta.stale и не меняет состояние.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.SearchRequest true "Запрос"
// @Success 200 {object} utils.SuccessResponse{data=usecase.SearchOutcome}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/search [post]
func (h *SessionHandler) Search(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.SearchRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	var outcome usecase.SearchOutcome
	if req.HasCoordinates() {
		origin := domain.Origin{
			Coordinate: domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng},
			Trigger:    domain.TriggerQuery,
			Label:      req.Query,
		}
		outcome, err = session.Sync.StartSearch(c.Context(), origin, req.Policy.Resolve(domain.TriggerQuery))
	} else {
		outcome, err = session.Sync.SearchQuery(c.Context(), req.Query, req.Policy.Resolve(domain.TriggerQuery))
	}
	if err != nil {
		return utils.SendError(c, err)
	}

	return sendOutcome(c, outcome)
}

// Autocomplete godoc
// @Summary Выбор подсказки адреса
// @Description Подсказка без координат или вне региона игнорируется.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.AutocompleteRequest true "Выбранная подсказка"
// @Success 200 {object} utils.SuccessResponse{data=usecase.SearchOutcome}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/autocomplete [post]
func (h *SessionHandler) Autocomplete(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.AutocompleteRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	outcome, err := session.Sync.SearchAutocomplete(c.Context(), req.Pick(), req.Policy.Resolve(domain.TriggerAutocomplete))
	if err != nil {
		return utils.SendError(c, err)
	}

	return sendOutcome(c, outcome)
}

// Geolocation godoc
// @Summary Позиция устройства
// @Description Позиция или код ошибки геолокации браузера. При ошибке расстояния скрываются, уведомление только для explicit.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.GeolocationRequest true "Позиция или ошибка"
// @Success 200 {object} utils.SuccessResponse{data=usecase.SearchOutcome}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/geolocation [post]
func (h *SessionHandler) Geolocation(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.GeolocationRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	outcome, err := h.locate(c, session, &req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return sendOutcome(c, outcome)
}

// Select godoc
// @Summary Явный выбор локации
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.SelectRequest true "ID локации"
// @Success 200 {object} utils.SuccessResponse{data=domain.ViewState}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/select [post]
func (h *SessionHandler) Select(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.SelectRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	view, err := session.Sync.SelectCandidate(domain.CandidateID(*req.ID))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, view, nil)
}

// ClearSelection godoc
// @Summary Снятие выбора
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=domain.ViewState}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/select [delete]
func (h *SessionHandler) ClearSelection(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, session.Sync.ClearSelection(), nil)
}
