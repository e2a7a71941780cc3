package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nearest-locations/internal/pkg/utils"
	"github.com/nearest-locations/internal/usecase"
	"github.com/nearest-locations/internal/usecase/dto"
)

// NearestHandler - прокси к серверному ранжированию
type NearestHandler struct {
	nearestUC *usecase.NearestUseCase
	logger    *zap.Logger
}

// NewNearestHandler - создание нового NearestHandler
func NewNearestHandler(nearestUC *usecase.NearestUseCase, logger *zap.Logger) *NearestHandler {
	return &NearestHandler{
		nearestUC: nearestUC,
		logger:    logger,
	}
}

// Find godoc
// @Summary Ближайшие локации (серверное ранжирование)
// @Description Передает запрос во внешний сервис и возвращает элементы в полученном порядке. Координаты имеют приоритет над текстом.
// @Tags Nearest
// @Accept json
// @Produce json
// @Param request body dto.NearestRequest true "Текст или координаты"
// @Success 200 {object} utils.SuccessResponse{data=dto.NearestResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/nearest-locations [post]
func (h *NearestHandler) Find(c *fiber.Ctx) error {
	var req dto.NearestRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.nearestUC.Find(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	if result.Cached {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: len(result.Items),
		Limit: req.Limit,
	})
}
