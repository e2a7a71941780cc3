package mapbox

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/config"
	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
)

// NewGeocoder создает клиент Mapbox Geocoding v5
func NewGeocoder(cfg *config.MapboxConfig, logger *zap.Logger) repository.GeocoderRepository {
	return newClient(cfg, logger)
}

type geocodingResponse struct {
	Features []struct {
		PlaceName  string    `json:"place_name"`
		Center     []float64 `json:"center"`
		Properties struct {
			ShortCode string `json:"short_code"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode ищет одну точку по адресу, ZIP или городу
func (c *client) Geocode(ctx context.Context, query, country string) (domain.Coordinate, error) {
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("limit", "1")
	params.Set("types", "postcode,place,locality,neighborhood,address")
	if country != "" {
		params.Set("country", strings.ToLower(country))
	}

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL, url.PathEscape(query), params.Encode())

	var resp geocodingResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return domain.Coordinate{}, err
	}

	if len(resp.Features) == 0 || len(resp.Features[0].Center) < 2 {
		return domain.Coordinate{}, domain.ErrGeocodeNotFound
	}

	center := resp.Features[0].Center
	c.logger.Debug("Mapbox geocode resolved",
		zap.String("query", query),
		zap.String("place", resp.Features[0].PlaceName))

	return domain.NewCoordinate(center[1], center[0])
}

// ReverseCountry возвращает ISO код страны в верхнем регистре
func (c *client) ReverseCountry(ctx context.Context, coord domain.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("types", "country")
	params.Set("limit", "1")

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL, lngLat(coord), params.Encode())

	var resp geocodingResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", err
	}
	if len(resp.Features) == 0 || resp.Features[0].Properties.ShortCode == "" {
		return "", domain.ErrGeocodeNotFound
	}
	return strings.ToUpper(resp.Features[0].Properties.ShortCode), nil
}
