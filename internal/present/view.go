// Package present turns a weather.Report into display-ready values.
package present

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weather-lookup/internal/weather"
)

const (
	// DailyCards and HourlyCards bound how many forecast slots are shown.
	DailyCards  = 5
	HourlyCards = 8

	iconURLFormat = "https://openweathermap.org/img/wn/%s@2x.png"

	dateLayout    = "Monday, January 2, 2006 at 03:04 PM"
	weekdayLayout = "Mon"
	dayLayout     = "Jan 2"
	hourLayout    = "3 PM"
)

type CurrentView struct {
	Location     string  `json:"location"`
	Date         string  `json:"date"`
	Temperature  int     `json:"temperature"`
	FeelsLike    int     `json:"feelsLike"`
	HumidityPct  float64 `json:"humidity"`
	WindSpeedKph float64 `json:"windSpeed"`
	Main         string  `json:"main"`
	Description  string  `json:"description"`
	IconURL      string  `json:"iconUrl"`
}

// Card is one forecast slot. SubLabel is only set for daily cards.
type Card struct {
	Time         int64   `json:"time"`
	Label        string  `json:"label"`
	SubLabel     string  `json:"subLabel,omitempty"`
	Temperature  int     `json:"temperature"`
	HumidityPct  float64 `json:"humidity"`
	WindSpeedKph float64 `json:"windSpeed"`
	Main         string  `json:"main"`
	Description  string  `json:"description"`
	IconURL      string  `json:"iconUrl"`
}

type View struct {
	Current CurrentView `json:"current"`
	Daily   []Card      `json:"daily"`
	Hourly  []Card      `json:"hourly"`
}

// NewView renders r in the place's local time.
func NewView(r weather.Report) View {
	loc := r.Location()
	cur := r.Current

	v := View{
		Current: CurrentView{
			Location:     LocationLabel(cur.Place),
			Date:         time.Unix(cur.ObservedAt, 0).In(loc).Format(dateLayout),
			Temperature:  Round(cur.TemperatureC),
			FeelsLike:    Round(cur.FeelsLikeC),
			HumidityPct:  cur.HumidityPct,
			WindSpeedKph: cur.WindSpeedKph,
			Main:         string(cur.Classification.Category),
			Description:  cur.Classification.Description,
			IconURL:      IconURL(cur.Classification.Icon),
		},
		Daily:  make([]Card, 0, DailyCards),
		Hourly: make([]Card, 0, HourlyCards),
	}

	for i, p := range r.Daily {
		if i == DailyCards {
			break
		}
		ts := time.Unix(p.Time, 0).In(loc)
		c := card(p, ts.Format(weekdayLayout))
		c.SubLabel = ts.Format(dayLayout)
		v.Daily = append(v.Daily, c)
	}
	for i, p := range r.Hourly {
		if i == HourlyCards {
			break
		}
		v.Hourly = append(v.Hourly, card(p, time.Unix(p.Time, 0).In(loc).Format(hourLayout)))
	}
	return v
}

func card(p weather.ForecastPoint, label string) Card {
	return Card{
		Time:         p.Time,
		Label:        label,
		Temperature:  Round(p.TemperatureC),
		HumidityPct:  p.HumidityPct,
		WindSpeedKph: p.WindSpeedKph,
		Main:         string(p.Classification.Category),
		Description:  p.Classification.Description,
		IconURL:      IconURL(p.Classification.Icon),
	}
}

// LocationLabel renders "Name, CC", or just the name when no country is known.
func LocationLabel(p weather.Place) string {
	if p.CountryCode == "" {
		return p.Name
	}
	return p.Name + ", " + p.CountryCode
}

// SuggestionLabel renders a suggestion as "Name, Admin1, Country", skipping
// empty parts.
func SuggestionLabel(p weather.Place) string {
	label := p.Name
	if p.Admin1 != "" && p.Admin1 != p.Name {
		label += ", " + p.Admin1
	}
	country := p.Country
	if country == "" {
		country = p.CountryCode
	}
	if country != "" {
		label += ", " + country
	}
	return label
}

func IconURL(icon string) string {
	return fmt.Sprintf(iconURLFormat, icon)
}

// Round rounds half up, so -2.5 becomes -2.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}
