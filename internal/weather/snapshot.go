package weather

import (
	"fmt"
	"time"
)

const (
	// HourlyPoints is the fixed length of the hourly list.
	HourlyPoints = 24
	// noonOffset approximates local noon within a day of hourly samples.
	noonOffset = 12

	hourLayout = "2006-01-02T15:04"
	dayLayout  = "2006-01-02"
)

// Builder turns raw forecast payloads into display-ready snapshots.
type Builder struct {
	// Now is the wall clock used for ObservedAt and for the day/night flag of
	// every icon in a report.
	Now func() time.Time
}

// NewBuilder returns a Builder on the system clock.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now}
}

func (b *Builder) now() time.Time {
	if b == nil || b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// BuildCurrent builds the current snapshot for place. Open-Meteo has no
// feels-like figure at this tier, so FeelsLikeC mirrors TemperatureC.
func (b *Builder) BuildCurrent(place Place, resp ForecastResponse) (CurrentSnapshot, error) {
	cur := resp.Current
	if cur == nil {
		return CurrentSnapshot{}, fmt.Errorf("%w: missing current block", ErrMalformedSeries)
	}

	now := b.now()

	return CurrentSnapshot{
		Place:          place,
		ObservedAt:     now.Unix(),
		TemperatureC:   cur.Temperature2m,
		FeelsLikeC:     cur.Temperature2m,
		HumidityPct:    cur.RelativeHumidity2m,
		WindSpeedKph:   cur.WindSpeed10m,
		Code:           cur.WeatherCode,
		Classification: Classify(cur.WeatherCode, b.daytime(resp)),
	}, nil
}

// BuildDailyList returns one point per future day: the first daily entry
// (today) is skipped, so N daily entries yield N-1 points.
//
// Humidity and wind come from the hourly series at index i*24+12, which is
// only local noon when the hourly series starts at 00:00 of the first daily
// date with no gaps. Indices past the end of the hourly series read as zero.
// Icons follow the place's current day/night, like the current snapshot.
func (b *Builder) BuildDailyList(resp ForecastResponse) ([]ForecastPoint, error) {
	daily := resp.Daily
	if daily == nil {
		return nil, fmt.Errorf("%w: missing daily block", ErrMalformedSeries)
	}
	n := len(daily.Time)
	if len(daily.WeatherCode) != n || len(daily.Temperature2mMax) != n {
		return nil, fmt.Errorf("%w: daily", ErrMalformedSeries)
	}
	if n <= 1 {
		return []ForecastPoint{}, nil
	}

	var humidity, wind []float64
	if resp.Hourly != nil {
		humidity = resp.Hourly.RelativeHumidity2m
		wind = resp.Hourly.WindSpeed10m
	}

	zone := zoneOf(resp)
	isDay := b.daytime(resp)
	points := make([]ForecastPoint, 0, n-1)
	for i := 1; i < n; i++ {
		day, err := time.ParseInLocation(dayLayout, daily.Time[i], zone)
		if err != nil {
			return nil, fmt.Errorf("%w: daily time %q", ErrMalformedSeries, daily.Time[i])
		}
		noon := i*24 + noonOffset
		code := daily.WeatherCode[i]

		points = append(points, ForecastPoint{
			Time:           day.Unix(),
			TemperatureC:   daily.Temperature2mMax[i],
			HumidityPct:    at(humidity, noon),
			WindSpeedKph:   at(wind, noon),
			Code:           code,
			Classification: Classify(code, isDay),
		})
	}
	return points, nil
}

// BuildHourlyList returns exactly HourlyPoints points starting at the first
// entry of the hourly series, whatever hour that is. Like the daily list,
// icons use the place's current day/night rather than each point's hour.
func (b *Builder) BuildHourlyList(resp ForecastResponse) ([]ForecastPoint, error) {
	hourly := resp.Hourly
	if hourly == nil {
		return nil, fmt.Errorf("%w: missing hourly block", ErrMalformedSeries)
	}
	n := len(hourly.Time)
	if len(hourly.Temperature2m) != n || len(hourly.RelativeHumidity2m) != n ||
		len(hourly.WeatherCode) != n || len(hourly.WindSpeed10m) != n {
		return nil, fmt.Errorf("%w: hourly", ErrMalformedSeries)
	}
	if n < HourlyPoints {
		return nil, fmt.Errorf("%w: got %d hourly entries, need %d", ErrShortSeries, n, HourlyPoints)
	}

	zone := zoneOf(resp)
	isDay := b.daytime(resp)
	points := make([]ForecastPoint, 0, HourlyPoints)
	for i := 0; i < HourlyPoints; i++ {
		ts, err := time.ParseInLocation(hourLayout, hourly.Time[i], zone)
		if err != nil {
			return nil, fmt.Errorf("%w: hourly time %q", ErrMalformedSeries, hourly.Time[i])
		}
		code := hourly.WeatherCode[i]

		points = append(points, ForecastPoint{
			Time:           ts.Unix(),
			TemperatureC:   hourly.Temperature2m[i],
			HumidityPct:    hourly.RelativeHumidity2m[i],
			WindSpeedKph:   hourly.WindSpeed10m[i],
			Code:           code,
			Classification: Classify(code, isDay),
		})
	}
	return points, nil
}

// daytime reports whether it is currently day at the place.
func (b *Builder) daytime(resp ForecastResponse) bool {
	return IsDaytime(b.now().In(zoneOf(resp)))
}

// zoneOf returns the fixed zone Open-Meteo resolved for the request
// (timezone=auto); times in the payload are local to it.
func zoneOf(resp ForecastResponse) *time.Location {
	return time.FixedZone(resp.Timezone, resp.UTCOffsetSeconds)
}

func at(series []float64, i int) float64 {
	if i < 0 || i >= len(series) {
		return 0
	}
	return series[i]
}
