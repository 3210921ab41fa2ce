package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/weather"
)

const (
	DefaultGeocodingBaseURL = "https://geocoding-api.open-meteo.com"
	searchPath              = "/v1/search"
)

// GeocodingProvider implements weather.Geocoder for the Open-Meteo geocoding API.
type GeocodingProvider struct {
	client  *resty.Client
	circuit *gobreaker.CircuitBreaker
}

func NewGeocodingProvider(cfg ClientConfig) (*GeocodingProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeocodingBaseURL
	}
	client, err := newRestyClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GeocodingProvider{
		client:  client,
		circuit: newBreaker("openmeteo-geocoding"),
	}, nil
}

type searchResponse struct {
	Results []weather.GeoResult `json:"results"`
}

// Search looks up places by name. A missing results array is a valid
// "no match" answer.
func (p *GeocodingProvider) Search(ctx context.Context, name string, count int) ([]weather.GeoResult, error) {
	return p.search(ctx, map[string]string{
		"name":     name,
		"count":    strconv.Itoa(count),
		"language": "en",
		"format":   "json",
	})
}

// Reverse looks up the place nearest to lat/lon.
func (p *GeocodingProvider) Reverse(ctx context.Context, lat, lon float64) ([]weather.GeoResult, error) {
	return p.search(ctx, map[string]string{
		"latitude":  formatCoord(lat),
		"longitude": formatCoord(lon),
		"count":     "1",
		"language":  "en",
		"format":    "json",
	})
}

func (p *GeocodingProvider) search(ctx context.Context, params map[string]string) ([]weather.GeoResult, error) {
	resp, err := doWithBreaker(ctx, p.circuit, func() (*resty.Response, error) {
		return p.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(searchPath)
	})
	if err != nil {
		return nil, fmt.Errorf("openmeteo geocoding: %w", err)
	}

	var payload searchResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("openmeteo geocoding: decode: %w", err)
	}
	if payload.Results == nil {
		return []weather.GeoResult{}, nil
	}
	return payload.Results, nil
}

var _ weather.Geocoder = (*GeocodingProvider)(nil)
