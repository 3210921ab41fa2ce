package weather

import "time"

// Code is a WMO-style present-weather code as reported by Open-Meteo (0-99).
type Code int

// Category is the coarse "main" label for a weather code.
type Category string

const (
	CategoryClear        Category = "Clear"
	CategoryClouds       Category = "Clouds"
	CategoryRain         Category = "Rain"
	CategorySnow         Category = "Snow"
	CategoryThunderstorm Category = "Thunderstorm"
	CategoryUnknown      Category = "Unknown"
)

// Classification is the display-ready interpretation of a weather code.
type Classification struct {
	Category    Category `json:"main"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
}

// PlaceholderName is used when a coordinate lookup yields no place name.
const PlaceholderName = "Your Location"

// Place is a resolved location.
// Country and Admin1 are only filled by forward lookups and are used for suggestion labels.
type Place struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"countryCode"`
	Country     string  `json:"country,omitempty"`
	Admin1      string  `json:"admin1,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// CurrentSnapshot is the normalized view of current conditions.
type CurrentSnapshot struct {
	Place          Place          `json:"place"`
	ObservedAt     int64          `json:"observedAt"` // unix seconds, wall clock of the lookup
	TemperatureC   float64        `json:"temperatureC"`
	FeelsLikeC     float64        `json:"feelsLikeC"`
	HumidityPct    float64        `json:"humidityPct"`
	WindSpeedKph   float64        `json:"windSpeedKph"`
	Code           Code           `json:"weatherCode"`
	Classification Classification `json:"weather"`
}

// ForecastPoint is one sampled forecast slot, daily or hourly.
type ForecastPoint struct {
	Time           int64          `json:"time"` // unix seconds
	TemperatureC   float64        `json:"temperatureC"`
	HumidityPct    float64        `json:"humidityPct"`
	WindSpeedKph   float64        `json:"windSpeedKph"`
	Code           Code           `json:"weatherCode"`
	Classification Classification `json:"weather"`
}

// Report is the result of a complete lookup run. Timezone and
// UTCOffsetSeconds describe the place's local time as resolved upstream.
type Report struct {
	Current          CurrentSnapshot `json:"current"`
	Daily            []ForecastPoint `json:"daily"`
	Hourly           []ForecastPoint `json:"hourly"`
	Timezone         string          `json:"timezone"`
	UTCOffsetSeconds int             `json:"utcOffsetSeconds"`
}

// Location returns the fixed zone of the report's place.
func (r Report) Location() *time.Location {
	return time.FixedZone(r.Timezone, r.UTCOffsetSeconds)
}

// ForecastResponse mirrors the Open-Meteo /v1/forecast payload.
// Each block is a set of parallel arrays keyed by variable name plus a time array.
type ForecastResponse struct {
	Latitude         float64       `json:"latitude"`
	Longitude        float64       `json:"longitude"`
	UTCOffsetSeconds int           `json:"utc_offset_seconds"`
	Timezone         string        `json:"timezone"`
	Current          *CurrentBlock `json:"current,omitempty"`
	Hourly           *HourlySeries `json:"hourly,omitempty"`
	Daily            *DailySeries  `json:"daily,omitempty"`
}

type CurrentBlock struct {
	Time               string  `json:"time"`
	Temperature2m      float64 `json:"temperature_2m"`
	RelativeHumidity2m float64 `json:"relative_humidity_2m"`
	WeatherCode        Code    `json:"weather_code"`
	WindSpeed10m       float64 `json:"wind_speed_10m"`
}

type HourlySeries struct {
	Time               []string  `json:"time"`
	Temperature2m      []float64 `json:"temperature_2m"`
	RelativeHumidity2m []float64 `json:"relative_humidity_2m"`
	WeatherCode        []Code    `json:"weather_code"`
	WindSpeed10m       []float64 `json:"wind_speed_10m"`
}

type DailySeries struct {
	Time             []string  `json:"time"`
	WeatherCode      []Code    `json:"weather_code"`
	Temperature2mMax []float64 `json:"temperature_2m_max"`
	Temperature2mMin []float64 `json:"temperature_2m_min"`
}

// GeoResult is a single Open-Meteo geocoding match.
type GeoResult struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country"`
	Admin1      string  `json:"admin1"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// toPlace maps a geocoding match to a Place, falling back to the country
// name when the country code is absent.
func (g GeoResult) toPlace() Place {
	cc := g.CountryCode
	if cc == "" {
		cc = g.Country
	}
	return Place{
		Name:        g.Name,
		CountryCode: cc,
		Country:     g.Country,
		Admin1:      g.Admin1,
		Latitude:    g.Latitude,
		Longitude:   g.Longitude,
	}
}
