package weather

import (
	"context"
	"errors"
	"sync"
	"time"
)

// hourlyFixture returns n consecutive hourly entries starting at start.
// Temperature and humidity encode the index so tests can check sampling.
func hourlyFixture(start time.Time, n int, code Code) *HourlySeries {
	h := &HourlySeries{}
	for i := 0; i < n; i++ {
		h.Time = append(h.Time, start.Add(time.Duration(i)*time.Hour).Format(hourLayout))
		h.Temperature2m = append(h.Temperature2m, float64(i))
		h.RelativeHumidity2m = append(h.RelativeHumidity2m, float64(100+i))
		h.WeatherCode = append(h.WeatherCode, code)
		h.WindSpeed10m = append(h.WindSpeed10m, float64(200+i))
	}
	return h
}

func dailyFixture(start time.Time, n int, code Code) *DailySeries {
	d := &DailySeries{}
	for i := 0; i < n; i++ {
		d.Time = append(d.Time, start.AddDate(0, 0, i).Format(dayLayout))
		d.WeatherCode = append(d.WeatherCode, code)
		d.Temperature2mMax = append(d.Temperature2mMax, float64(20+i))
		d.Temperature2mMin = append(d.Temperature2mMin, float64(10+i))
	}
	return d
}

var errBoom = errors.New("boom")

// fakeSource answers forecast calls by request shape: Current set is the
// current call, Daily set the daily call, otherwise the hourly call.
type fakeSource struct {
	mu    sync.Mutex
	calls []ForecastRequest

	currentErr error
	dailyErr   error
	hourlyErr  error
	// hourlyN overrides the hourly series length of the hourly call.
	hourlyN int
	// gate, when set, blocks every call until closed or ctx is done.
	gate chan struct{}
}

func (f *fakeSource) Forecast(ctx context.Context, req ForecastRequest) (ForecastResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ForecastResponse{}, ctx.Err()
		}
	}

	start := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	resp := ForecastResponse{Timezone: "GMT", Latitude: req.Latitude, Longitude: req.Longitude}
	switch {
	case len(req.Current) > 0:
		if f.currentErr != nil {
			return ForecastResponse{}, f.currentErr
		}
		resp.Current = &CurrentBlock{
			Time:               "2024-05-13T15:00",
			Temperature2m:      21.5,
			RelativeHumidity2m: 60,
			WeatherCode:        1,
			WindSpeed10m:       12.3,
		}
	case len(req.Daily) > 0:
		if f.dailyErr != nil {
			return ForecastResponse{}, f.dailyErr
		}
		resp.Daily = dailyFixture(start, req.ForecastDays, 61)
		resp.Hourly = hourlyFixture(start, req.ForecastDays*24, 61)
	default:
		if f.hourlyErr != nil {
			return ForecastResponse{}, f.hourlyErr
		}
		n := req.ForecastHours
		if f.hourlyN > 0 {
			n = f.hourlyN
		}
		resp.Hourly = hourlyFixture(start.Add(15*time.Hour), n, 0)
	}
	return resp, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeGeocoder struct {
	mu         sync.Mutex
	searches   []string
	reverses   int
	results    map[string][]GeoResult
	searchErr  error
	reverse    []GeoResult
	reverseErr error
	lastCount  int
}

func (g *fakeGeocoder) Search(_ context.Context, name string, count int) ([]GeoResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.searches = append(g.searches, name)
	g.lastCount = count
	if g.searchErr != nil {
		return nil, g.searchErr
	}
	res := g.results[name]
	if len(res) > count {
		res = res[:count]
	}
	return res, nil
}

func (g *fakeGeocoder) Reverse(context.Context, float64, float64) ([]GeoResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reverses++
	if g.reverseErr != nil {
		return nil, g.reverseErr
	}
	return g.reverse, nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (r *fakeRecorder) RecordSearch(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	return r.err
}

func (r *fakeRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

var lisbon = GeoResult{Name: "Lisbon", CountryCode: "PT", Country: "Portugal", Latitude: 38.72, Longitude: -9.14}

func fixedBuilder() *Builder {
	return &Builder{Now: func() time.Time { return time.Date(2024, 5, 13, 15, 4, 0, 0, time.UTC) }}
}
