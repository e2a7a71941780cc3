package google

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

// NewGeocoder создает клиент Google Geocoding API
func NewGeocoder(cfg *config.GoogleConfig, logger *zap.Logger) repository.GeocoderRepository {
	return newClient(cfg, logger)
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (c *client) geocode(ctx context.Context, params url.Values) (*geocodeResponse, error) {
	params.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.getJSON(ctx, c.baseURL+"/geocode/json?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "OK":
		if len(resp.Results) == 0 {
			return nil, domain.ErrGeocodeNotFound
		}
		return &resp, nil
	case "ZERO_RESULTS":
		return nil, domain.ErrGeocodeNotFound
	default:
		return nil, fmt.Errorf("geocoding status %s: %s", resp.Status, resp.ErrorMessage)
	}
}

// Geocode - адрес, ZIP или город в координату первого результата
func (c *client) Geocode(ctx context.Context, query, country string) (domain.Coordinate, error) {
	params := url.Values{}
	params.Set("address", query)
	if country != "" {
		params.Set("components", "country:"+strings.ToUpper(country))
	}

	resp, err := c.geocode(ctx, params)
	if err != nil {
		return domain.Coordinate{}, err
	}

	first := resp.Results[0]
	c.logger.Debug("Google geocode resolved",
		zap.String("query", query),
		zap.String("address", first.FormattedAddress))

	return domain.NewCoordinate(first.Geometry.Location.Lat, first.Geometry.Location.Lng)
}

// ReverseCountry - код страны для точки
func (c *client) ReverseCountry(ctx context.Context, coord domain.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("latlng", latLng(coord))
	params.Set("result_type", "country")

	resp, err := c.geocode(ctx, params)
	if err != nil {
		return "", err
	}

	for _, r := range resp.Results {
		for _, comp := range r.AddressComponents {
			for _, typ := range comp.Types {
				if typ == "country" {
					return strings.ToUpper(comp.ShortName), nil
				}
			}
		}
	}
	return "", domain.ErrGeocodeNotFound
}
