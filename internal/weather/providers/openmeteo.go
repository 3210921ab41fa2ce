package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/weather"
)

const (
	DefaultForecastBaseURL = "https://api.open-meteo.com"
	forecastPath           = "/v1/forecast"
)

// OpenMeteoProvider implements weather.ForecastSource for the Open-Meteo forecast API.
type OpenMeteoProvider struct {
	name    string
	client  *resty.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(cfg ClientConfig) (*OpenMeteoProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultForecastBaseURL
	}
	client, err := newRestyClient(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		client:  client,
		circuit: newBreaker("openmeteo-forecast"),
	}, nil
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Forecast issues one /v1/forecast call with timezone=auto.
func (p *OpenMeteoProvider) Forecast(ctx context.Context, req weather.ForecastRequest) (weather.ForecastResponse, error) {
	params := forecastParams(req)

	resp, err := doWithBreaker(ctx, p.circuit, func() (*resty.Response, error) {
		return p.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(forecastPath)
	})
	if err != nil {
		return weather.ForecastResponse{}, fmt.Errorf("openmeteo forecast: %w", err)
	}

	var payload weather.ForecastResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return weather.ForecastResponse{}, fmt.Errorf("openmeteo forecast: decode: %w", err)
	}
	return payload, nil
}

func forecastParams(req weather.ForecastRequest) map[string]string {
	params := map[string]string{
		"latitude":  formatCoord(req.Latitude),
		"longitude": formatCoord(req.Longitude),
		"timezone":  "auto",
	}
	if len(req.Current) > 0 {
		params["current"] = strings.Join(req.Current, ",")
	}
	if len(req.Hourly) > 0 {
		params["hourly"] = strings.Join(req.Hourly, ",")
	}
	if len(req.Daily) > 0 {
		params["daily"] = strings.Join(req.Daily, ",")
	}
	if req.ForecastDays > 0 {
		params["forecast_days"] = strconv.Itoa(req.ForecastDays)
	}
	if req.ForecastHours > 0 {
		params["forecast_hours"] = strconv.Itoa(req.ForecastHours)
	}
	return params
}

var _ weather.ForecastSource = (*OpenMeteoProvider)(nil)
