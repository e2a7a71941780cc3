package nearest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/config"
	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
	apperrors "github.com/nearest-locations/internal/pkg/errors"
	"github.com/nearest-locations/internal/pkg/utils"
)

// genericFailure - текст для ответа без поля error
const genericFailure = "Search failed"

type client struct {
	httpClient *http.Client
	endpoint   string
	logger     *zap.Logger
}

// NewClient создает клиент эндпоинта nearest-locations
func NewClient(cfg *config.NearestConfig, logger *zap.Logger) repository.NearestLocationsRepository {
	return &client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		endpoint:   cfg.EndpointURL,
		logger:     logger,
	}
}

type findResponse struct {
	Items []domain.NearestItem `json:"items"`
	Error string               `json:"error,omitempty"`
}

// Find отправляет {q,limit} или {lat,lng,limit}; порядок ответа не меняется
func (c *client) Find(ctx context.Context, query domain.NearestQuery) ([]domain.NearestItem, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("nearest-locations endpoint is not configured")
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", utils.RedactURLError(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = utils.RedactURLError(err)
		c.logger.Error("Failed to call nearest-locations", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out findResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := out.Error
		if decodeErr != nil || message == "" {
			message = genericFailure
		}
		c.logger.Warn("nearest-locations returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("error", message))
		return nil, &apperrors.UpstreamError{StatusCode: resp.StatusCode, Message: message}
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	c.logger.Debug("nearest-locations answered", zap.Int("items", len(out.Items)))
	return out.Items, nil
}
