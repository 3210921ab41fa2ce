package weather

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// MaxSuggestions caps autocomplete results.
const MaxSuggestions = 5

// Resolver maps free text or coordinates to a Place.
type Resolver struct {
	geocoder Geocoder
	logger   *zap.Logger
}

// NewResolver creates a Resolver over geocoder. A nil logger disables logging.
func NewResolver(geocoder Geocoder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{geocoder: geocoder, logger: logger}
}

// ResolveByName looks up the best match for query.
func (r *Resolver) ResolveByName(ctx context.Context, query string) (Place, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Place{}, ErrEmptyQuery
	}

	results, err := r.geocoder.Search(ctx, q, 1)
	if err != nil {
		return Place{}, &UpstreamError{Stage: StageLocation, Err: err}
	}
	if len(results) == 0 {
		return Place{}, ErrLocationNotFound
	}
	return results[0].toPlace(), nil
}

// ResolveByCoords reverse-geocodes lat/lon. It never fails: a lookup error
// or an empty result yields a placeholder place at the given coordinates.
func (r *Resolver) ResolveByCoords(ctx context.Context, lat, lon float64) Place {
	fallback := Place{Name: PlaceholderName, Latitude: lat, Longitude: lon}

	results, err := r.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		r.logger.Warn("reverse geocoding failed, using placeholder",
			zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return fallback
	}
	if len(results) == 0 {
		return fallback
	}

	p := results[0].toPlace()
	// Keep the coordinates the caller asked for; forecasts are fetched for them.
	p.Latitude, p.Longitude = lat, lon
	if p.Name == "" {
		p.Name = PlaceholderName
	}
	return p
}

// Suggest returns up to MaxSuggestions places for autocomplete. A blank
// query returns an empty slice without calling the geocoder.
func (r *Resolver) Suggest(ctx context.Context, query string) ([]Place, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []Place{}, nil
	}

	results, err := r.geocoder.Search(ctx, q, MaxSuggestions)
	if err != nil {
		return nil, &UpstreamError{Stage: StageLocation, Err: err}
	}
	if len(results) > MaxSuggestions {
		results = results[:MaxSuggestions]
	}

	places := make([]Place, 0, len(results))
	for _, g := range results {
		places = append(places, g.toPlace())
	}
	return places, nil
}
