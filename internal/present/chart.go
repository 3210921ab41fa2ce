package present

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// RenderHourlyChart writes an HTML page with a line chart of the report's
// hourly temperature and humidity.
func RenderHourlyChart(w io.Writer, r weather.Report) error {
	loc := r.Location()
	place := LocationLabel(r.Current.Place)

	hours := make([]string, 0, len(r.Hourly))
	temps := make([]opts.LineData, 0, len(r.Hourly))
	humidity := make([]opts.LineData, 0, len(r.Hourly))
	for _, p := range r.Hourly {
		hours = append(hours, time.Unix(p.Time, 0).In(loc).Format(hourLayout))
		temps = append(temps, opts.LineData{Value: p.TemperatureC})
		humidity = append(humidity, opts.LineData{Value: p.HumidityPct})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("Hourly forecast - %s", place),
			Width:     "900px",
			Height:    "450px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    place,
			Subtitle: "Next 24 hours",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	line.SetXAxis(hours).
		AddSeries("Temperature (°C)", temps).
		AddSeries("Humidity (%)", humidity).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{
			Smooth: opts.Bool(true),
		}))

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render hourly chart: %w", err)
	}
	return nil
}
