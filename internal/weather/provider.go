package weather

import (
	"context"
)

// ForecastRequest describes one call to the forecast endpoint. Empty variable
// lists are omitted from the query; zero ForecastDays/ForecastHours use the
// upstream default window.
type ForecastRequest struct {
	Latitude      float64
	Longitude     float64
	Current       []string
	Hourly        []string
	Daily         []string
	ForecastDays  int
	ForecastHours int
}

// ForecastSource abstracts the Open-Meteo forecast endpoint.
type ForecastSource interface {
	Forecast(ctx context.Context, req ForecastRequest) (ForecastResponse, error)
}

// Geocoder abstracts the Open-Meteo geocoding endpoint.
// An empty result slice with a nil error means "no match".
type Geocoder interface {
	Search(ctx context.Context, name string, count int) ([]GeoResult, error)
	Reverse(ctx context.Context, lat, lon float64) ([]GeoResult, error)
}

// LocationResolver is what the orchestrator needs from the resolver.
type LocationResolver interface {
	ResolveByName(ctx context.Context, query string) (Place, error)
	ResolveByCoords(ctx context.Context, lat, lon float64) Place
}

// SearchRecorder receives one event per successful run.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, name string) error
}
