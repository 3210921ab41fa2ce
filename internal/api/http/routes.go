package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-lookup/internal/present"
	"github.com/i474232898/weather-lookup/internal/suggest"
	"github.com/i474232898/weather-lookup/internal/weather"
)

var validate = validator.New()

// Services are the dependencies of the HTTP handlers. Recent may be nil.
// ChartRunner serves chart views and must not record searches; Runner is
// used when it is nil.
type Services struct {
	Runner      weather.Runner
	ChartRunner weather.Runner
	Suggester   suggest.Suggester
	Recent      suggest.RecentLister
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Services) {
	v1 := app.Group("/api/v1")

	chartRunner := svc.ChartRunner
	if chartRunner == nil {
		chartRunner = svc.Runner
	}

	v1.Get("/weather", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return toFiberError(err)
		}

		report, err := svc.Runner.RunByName(c.UserContext(), q.City)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(reportResponse(report))
	})

	v1.Get("/weather/coords", func(c *fiber.Ctx) error {
		q, err := parseCoordsQuery(c)
		if err != nil {
			return toFiberError(err)
		}

		report, err := svc.Runner.RunByCoords(c.UserContext(), q.lat, q.lon)
		if err != nil {
			return fiber.NewError(statusFor(err), weather.CoordsUserMessage(err))
		}
		return c.JSON(reportResponse(report))
	})

	v1.Get("/weather/chart", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return toFiberError(err)
		}

		report, err := chartRunner.RunByName(c.UserContext(), q.City)
		if err != nil {
			return toFiberError(err)
		}

		c.Type("html", "utf-8")
		return present.RenderHourlyChart(c, report)
	})

	v1.Get("/suggestions", func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			recent, err := loadRecent(c.UserContext(), svc.Recent)
			if err != nil {
				return err
			}
			return c.JSON(fiber.Map{
				"query":       "",
				"suggestions": []suggestion{},
				"recent":      recent,
			})
		}

		places, err := svc.Suggester.Suggest(c.UserContext(), query)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{
			"query":       query,
			"suggestions": toSuggestions(places),
		})
	})

	v1.Get("/searches/recent", func(c *fiber.Ctx) error {
		recent, err := loadRecent(c.UserContext(), svc.Recent)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"recent": recent})
	})
}

// ErrorHandler is the centralized Fiber error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// toFiberError maps a lookup error to an HTTP status carrying the
// user-facing message.
func toFiberError(err error) error {
	return fiber.NewError(statusFor(err), weather.UserMessage(err))
}

func statusFor(err error) int {
	var upstream *weather.UpstreamError
	switch {
	case errors.Is(err, weather.ErrEmptyQuery), errors.Is(err, weather.ErrGeolocationUnavailable):
		return fiber.StatusBadRequest
	case errors.Is(err, weather.ErrLocationNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &upstream):
		return fiber.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

func reportResponse(r weather.Report) fiber.Map {
	return fiber.Map{
		"report": r,
		"view":   present.NewView(r),
	}
}

type suggestion struct {
	weather.Place
	Label string `json:"label"`
}

func toSuggestions(places []weather.Place) []suggestion {
	out := make([]suggestion, 0, len(places))
	for _, p := range places {
		out = append(out, suggestion{Place: p, Label: present.SuggestionLabel(p)})
	}
	return out
}

func loadRecent(ctx context.Context, recent suggest.RecentLister) ([]string, error) {
	if recent == nil {
		return []string{}, nil
	}
	items, err := recent.Recent(ctx)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load recent searches")
	}
	return items, nil
}

// cityQuery holds query parameters for a name lookup.
type cityQuery struct {
	City string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	q := cityQuery{City: strings.TrimSpace(c.Query("city"))}
	if err := validate.Struct(q); err != nil {
		return q, weather.ErrEmptyQuery
	}
	return q, nil
}

// coordsQuery holds query parameters for a coordinate lookup.
type coordsQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`

	lat, lon float64
}

func parseCoordsQuery(c *fiber.Ctx) (coordsQuery, error) {
	q := coordsQuery{
		Lat: strings.TrimSpace(c.Query("lat")),
		Lon: strings.TrimSpace(c.Query("lon")),
	}
	if err := validate.Struct(q); err != nil {
		return q, weather.ErrGeolocationUnavailable
	}

	var err error
	if q.lat, err = strconv.ParseFloat(q.Lat, 64); err != nil {
		return q, weather.ErrGeolocationUnavailable
	}
	if q.lon, err = strconv.ParseFloat(q.Lon, 64); err != nil {
		return q, weather.ErrGeolocationUnavailable
	}
	return q, nil
}
