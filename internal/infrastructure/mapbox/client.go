package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/config"
	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
	"github.com/nearest-locations/internal/pkg/utils"
)

type client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	profile     string
	maxPoints   int
	logger      *zap.Logger
}

func newClient(cfg *config.MapboxConfig, logger *zap.Logger) *client {
	maxPoints := cfg.MaxMatrixPoints
	if maxPoints <= 1 {
		maxPoints = 25
	}
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		profile:     cfg.DrivingProfile,
		maxPoints:   maxPoints,
		logger:      logger,
	}
}

// NewMatrixClient создает клиент Mapbox Matrix API
func NewMatrixClient(cfg *config.MapboxConfig, logger *zap.Logger) repository.DistanceMatrixRepository {
	return newClient(cfg, logger)
}

// matrixResponse - ответ Matrix API; ячейка null - маршрут не найден
type matrixResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message,omitempty"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// MaxDestinations - лимит точек минус origin
func (c *client) MaxDestinations() int {
	return c.maxPoints - 1
}

// GetDistances возвращает расстояния и время в пути от origin до каждой точки
func (c *client) GetDistances(
	ctx context.Context,
	origin domain.Coordinate,
	destinations []domain.Coordinate,
) ([]domain.DistanceElement, error) {
	if len(destinations) == 0 {
		return nil, fmt.Errorf("destinations cannot be empty")
	}

	// Проверка лимита Mapbox
	if len(destinations)+1 > c.maxPoints {
		return nil, fmt.Errorf("total coordinates exceed Mapbox limit of %d points", c.maxPoints)
	}

	// Сначала origin, потом destinations
	coordinates := make([]string, 0, len(destinations)+1)
	coordinates = append(coordinates, lngLat(origin))
	destinationIndices := make([]string, len(destinations))
	for i, coord := range destinations {
		coordinates = append(coordinates, lngLat(coord))
		destinationIndices[i] = fmt.Sprintf("%d", i+1)
	}

	url := fmt.Sprintf("%s/directions-matrix/v1/%s/%s?sources=0&destinations=%s&annotations=distance,duration&access_token=%s",
		c.baseURL,
		c.profile,
		strings.Join(coordinates, ";"),
		strings.Join(destinationIndices, ";"),
		c.accessToken,
	)

	c.logger.Debug("Calling Mapbox Matrix API",
		zap.String("origin", origin.String()),
		zap.Int("destinations_count", len(destinations)))

	var matrixResp matrixResponse
	if err := c.getJSON(ctx, url, &matrixResp); err != nil {
		return nil, err
	}

	if matrixResp.Code != "Ok" {
		c.logger.Error("Mapbox API returned non-OK code",
			zap.String("code", matrixResp.Code),
			zap.String("message", matrixResp.Message))
		return nil, fmt.Errorf("mapbox API returned code: %s", matrixResp.Code)
	}
	if len(matrixResp.Distances) == 0 {
		return nil, fmt.Errorf("mapbox API returned no distance rows")
	}

	distances := matrixResp.Distances[0]
	var durations []*float64
	if len(matrixResp.Durations) > 0 {
		durations = matrixResp.Durations[0]
	}

	elements := make([]domain.DistanceElement, len(destinations))
	for i := range destinations {
		if i >= len(distances) || distances[i] == nil {
			elements[i] = domain.DistanceElement{Status: domain.ElementNoRoute}
			continue
		}
		meters := *distances[i]
		el := domain.DistanceElement{
			Status:         domain.ElementOK,
			DistanceMeters: meters,
			DistanceText:   FormatMiles(meters),
		}
		if i < len(durations) && durations[i] != nil {
			el.DurationSeconds = *durations[i]
			el.DurationText = FormatDuration(*durations[i])
		}
		elements[i] = el
	}

	c.logger.Debug("Mapbox Matrix API call successful",
		zap.Int("elements", len(elements)))

	return elements, nil
}

func (c *client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		err = utils.RedactURLError(err)
		c.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = utils.RedactURLError(err)
		c.logger.Error("Failed to execute request", zap.Error(err))
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Mapbox API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("mapbox API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("Failed to decode response", zap.Error(err))
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func lngLat(c domain.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Lng, c.Lat)
}
