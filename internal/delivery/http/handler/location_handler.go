package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nearest-locations/internal/pkg/utils"
	"github.com/nearest-locations/internal/usecase"
	"github.com/nearest-locations/internal/usecase/dto"
)

// LocationHandler - каталог локаций
type LocationHandler struct {
	sessionUC *usecase.SessionUseCase
}

// NewLocationHandler - создание нового LocationHandler
func NewLocationHandler(sessionUC *usecase.SessionUseCase) *LocationHandler {
	return &LocationHandler{sessionUC: sessionUC}
}

// List godoc
// @Summary Каталог локаций
// @Description Все локации в порядке регистрации, без расстояний
// @Tags Locations
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.LocationsResponse}
// @Router /api/v1/locations [get]
func (h *LocationHandler) List(c *fiber.Ctx) error {
	result := dto.NewLocationsResponse(h.sessionUC.Catalog())
	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}
