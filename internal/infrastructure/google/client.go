package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/config"
	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
	"github.com/nearest-locations/internal/pkg/utils"
)

// Distance Matrix принимает до 25 пунктов назначения на запрос
const maxDestinations = 25

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	units      string
	mode       string
	logger     *zap.Logger
}

func newClient(cfg *config.GoogleConfig, logger *zap.Logger) *client {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		units:   cfg.UnitSystem,
		mode:    cfg.TravelMode,
		logger:  logger,
	}
}

// NewDistanceMatrixClient создает клиент Google Distance Matrix API
func NewDistanceMatrixClient(cfg *config.GoogleConfig, logger *zap.Logger) repository.DistanceMatrixRepository {
	return newClient(cfg, logger)
}

type textValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Rows         []struct {
		Elements []struct {
			Status   string     `json:"status"`
			Distance *textValue `json:"distance,omitempty"`
			Duration *textValue `json:"duration,omitempty"`
		} `json:"elements"`
	} `json:"rows"`
}

func (c *client) MaxDestinations() int {
	return maxDestinations
}

// GetDistances - один origin, до 25 пунктов назначения
func (c *client) GetDistances(
	ctx context.Context,
	origin domain.Coordinate,
	destinations []domain.Coordinate,
) ([]domain.DistanceElement, error) {
	if len(destinations) == 0 {
		return nil, fmt.Errorf("destinations cannot be empty")
	}
	if len(destinations) > maxDestinations {
		return nil, fmt.Errorf("destinations exceed Distance Matrix limit of %d", maxDestinations)
	}

	points := make([]string, len(destinations))
	for i, d := range destinations {
		points[i] = latLng(d)
	}

	params := url.Values{}
	params.Set("origins", latLng(origin))
	params.Set("destinations", strings.Join(points, "|"))
	params.Set("units", c.units)
	params.Set("mode", c.mode)
	params.Set("key", c.apiKey)

	c.logger.Debug("Calling Google Distance Matrix API",
		zap.String("origin", origin.String()),
		zap.Int("destinations_count", len(destinations)))

	var resp matrixResponse
	if err := c.getJSON(ctx, c.baseURL+"/distancematrix/json?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	if resp.Status != "OK" {
		c.logger.Error("Distance Matrix returned non-OK status",
			zap.String("status", resp.Status),
			zap.String("error_message", resp.ErrorMessage))
		return nil, fmt.Errorf("distance matrix status %s: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Rows) == 0 {
		return nil, fmt.Errorf("distance matrix returned no rows")
	}

	row := resp.Rows[0].Elements
	elements := make([]domain.DistanceElement, len(destinations))
	for i := range destinations {
		if i >= len(row) {
			elements[i] = domain.DistanceElement{Status: domain.ElementNotFound}
			continue
		}
		e := row[i]
		if e.Status != string(domain.ElementOK) || e.Distance == nil {
			elements[i] = domain.DistanceElement{Status: domain.ElementStatus(e.Status)}
			continue
		}
		el := domain.DistanceElement{
			Status:         domain.ElementOK,
			DistanceMeters: e.Distance.Value,
			DistanceText:   e.Distance.Text,
		}
		if e.Duration != nil {
			el.DurationSeconds = e.Duration.Value
			el.DurationText = e.Duration.Text
		}
		elements[i] = el
	}

	return elements, nil
}

func (c *client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", utils.RedactURLError(err))
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
		c.logger.Error("Google Maps API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("google maps API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func latLng(c domain.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}
