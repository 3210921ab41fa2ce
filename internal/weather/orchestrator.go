package weather

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Run states, in the only order a run moves through them. Failed is reachable
// from any state after Idle.
type RunState int

const (
	StateIdle RunState = iota
	StateResolvingLocation
	StateFetchingCurrent
	StateFetchingDaily
	StateFetchingHourly
	StateDone
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingLocation:
		return "resolving_location"
	case StateFetchingCurrent:
		return "fetching_current"
	case StateFetchingDaily:
		return "fetching_daily"
	case StateFetchingHourly:
		return "fetching_hourly"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Upstream variable sets.
var (
	currentVars = []string{"temperature_2m", "relative_humidity_2m", "weather_code", "wind_speed_10m"}
	hourlyVars  = []string{"temperature_2m", "relative_humidity_2m", "weather_code", "wind_speed_10m"}
	dailyVars   = []string{"weather_code", "temperature_2m_max", "temperature_2m_min"}
)

const (
	// ForecastDays is today plus five future days.
	ForecastDays = 6
)

// StageObserver is notified of every state transition of a run. err is only
// set for StateFailed.
type StageObserver func(runID string, state RunState, err error)

type observerKey struct{}

// WithObserver returns a context whose runs report transitions to obs.
func WithObserver(ctx context.Context, obs StageObserver) context.Context {
	return context.WithValue(ctx, observerKey{}, obs)
}

// ObserverFrom returns the observer attached with WithObserver, or nil.
// Runner implementations report their transitions to it.
func ObserverFrom(ctx context.Context) StageObserver {
	obs, _ := ctx.Value(observerKey{}).(StageObserver)
	return obs
}

// Orchestrator sequences one lookup: resolve the location, then fetch
// current conditions, the daily forecast and the hourly forecast, strictly
// one after the other.
type Orchestrator struct {
	resolver LocationResolver
	source   ForecastSource
	builder  *Builder
	recorder SearchRecorder
	logger   *zap.Logger
}

// NewOrchestrator wires an Orchestrator. recorder may be nil, in which case
// successful runs are not recorded.
func NewOrchestrator(resolver LocationResolver, source ForecastSource, builder *Builder, recorder SearchRecorder, logger *zap.Logger) *Orchestrator {
	if builder == nil {
		builder = NewBuilder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		resolver: resolver,
		source:   source,
		builder:  builder,
		recorder: recorder,
		logger:   logger,
	}
}

// RunByName runs a lookup for a free-text city name.
func (o *Orchestrator) RunByName(ctx context.Context, city string) (Report, error) {
	return o.run(ctx, zap.String("city", city), func(ctx context.Context) (Place, error) {
		return o.resolver.ResolveByName(ctx, city)
	})
}

// RunByCoords runs a lookup for a coordinate pair. Reverse-geocoding
// failures are absorbed by the resolver; invalid coordinates are reported
// as ErrGeolocationUnavailable.
func (o *Orchestrator) RunByCoords(ctx context.Context, lat, lon float64) (Report, error) {
	if !ValidCoords(lat, lon) {
		return Report{}, ErrGeolocationUnavailable
	}
	return o.run(ctx, zap.Float64s("coords", []float64{lat, lon}), func(ctx context.Context) (Place, error) {
		return o.resolver.ResolveByCoords(ctx, lat, lon), nil
	})
}

type run struct {
	id     string
	obs    StageObserver
	logger *zap.Logger
}

func (r *run) enter(state RunState) {
	if r.obs != nil {
		r.obs(r.id, state, nil)
	}
}

func (r *run) fail(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		r.logger.Warn("weather run failed", zap.String("stage", upstream.Stage), zap.Error(upstream.Err))
	} else {
		r.logger.Info("weather run failed", zap.Error(err))
	}
	if r.obs != nil {
		r.obs(r.id, StateFailed, err)
	}
	return err
}

func (o *Orchestrator) run(ctx context.Context, target zap.Field, resolve func(context.Context) (Place, error)) (Report, error) {
	started := time.Now()
	r := &run{
		id:  uuid.NewString(),
		obs: ObserverFrom(ctx),
	}
	r.logger = o.logger.With(zap.String("run_id", r.id), target)

	r.enter(StateResolvingLocation)
	place, err := resolve(ctx)
	if err != nil {
		return Report{}, r.fail(ctx, err)
	}

	r.enter(StateFetchingCurrent)
	resp, err := o.source.Forecast(ctx, ForecastRequest{
		Latitude:  place.Latitude,
		Longitude: place.Longitude,
		Current:   currentVars,
	})
	if err != nil {
		return Report{}, r.fail(ctx, &UpstreamError{Stage: StageCurrent, Err: err})
	}
	current, err := o.builder.BuildCurrent(place, resp)
	if err != nil {
		return Report{}, r.fail(ctx, &UpstreamError{Stage: StageCurrent, Err: err})
	}
	timezone, offset := resp.Timezone, resp.UTCOffsetSeconds

	r.enter(StateFetchingDaily)
	resp, err = o.source.Forecast(ctx, ForecastRequest{
		Latitude:     place.Latitude,
		Longitude:    place.Longitude,
		Hourly:       hourlyVars,
		Daily:        dailyVars,
		ForecastDays: ForecastDays,
	})
	if err != nil {
		return Report{}, r.fail(ctx, &UpstreamError{Stage: StageDaily, Err: err})
	}
	daily, err := o.builder.BuildDailyList(resp)
	if err != nil {
		return Report{}, r.fail(ctx, &UpstreamError{Stage: StageDaily, Err: err})
	}

	r.enter(StateFetchingHourly)
	resp, err = o.source.Forecast(ctx, ForecastRequest{
		Latitude:      place.Latitude,
		Longitude:     place.Longitude,
		Hourly:        hourlyVars,
		ForecastHours: HourlyPoints,
	})
	if err != nil {
		return Report{}, r.fail(ctx, &UpstreamError{Stage: StageHourly, Err: err})
	}
	hourly, err := o.builder.BuildHourlyList(resp)
	if err != nil {
		return Report{}, r.fail(ctx, &UpstreamError{Stage: StageHourly, Err: err})
	}

	r.enter(StateDone)
	r.logger.Debug("weather run completed",
		zap.String("place", place.Name), zap.Duration("took", time.Since(started)))

	if o.recorder != nil {
		if err := o.recorder.RecordSearch(ctx, place.Name); err != nil {
			r.logger.Warn("failed to record search", zap.String("place", place.Name), zap.Error(err))
		}
	}

	return Report{
		Current:          current,
		Daily:            daily,
		Hourly:           hourly,
		Timezone:         timezone,
		UTCOffsetSeconds: offset,
	}, nil
}

// ValidCoords reports whether lat/lon form a usable coordinate pair.
func ValidCoords(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
