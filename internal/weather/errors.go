package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned before any network call when a name query is blank.
	ErrEmptyQuery = errors.New("empty location query")
	// ErrLocationNotFound is returned when geocoding yields no match for a name.
	ErrLocationNotFound = errors.New("location not found")
	// ErrGeolocationUnavailable covers a client that could not supply coordinates:
	// access denied, a failed position request or invalid coordinates.
	ErrGeolocationUnavailable = errors.New("geolocation unavailable")
	// ErrGeolocationUnsupported is reported when the client has no geolocation at all.
	ErrGeolocationUnsupported = errors.New("geolocation unsupported")
	// ErrSuperseded is returned by a session run that was replaced by a newer one.
	ErrSuperseded = errors.New("run superseded by a newer request")

	ErrShortSeries     = errors.New("forecast series shorter than required")
	ErrMalformedSeries = errors.New("forecast series arrays have mismatched lengths")
)

// Stage names used in UpstreamError and stage notifications.
const (
	StageLocation = "location"
	StageCurrent  = "current"
	StageDaily    = "daily"
	StageHourly   = "hourly"
)

// UpstreamError reports a failed upstream call (transport, non-2xx or an
// unusable payload) together with the run stage it happened in.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UserMessage returns the text shown to an end user for err. The failed
// stage of an UpstreamError is never included.
func UserMessage(err error) string {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQuery):
		return "Please enter a city name"
	case errors.Is(err, ErrLocationNotFound):
		return "City not found. Please check the spelling and try again."
	case errors.Is(err, ErrGeolocationUnavailable):
		return "Unable to get your location. Please allow location access or search manually."
	case errors.Is(err, ErrGeolocationUnsupported):
		return "Geolocation is not supported by your browser."
	case errors.As(err, &upstream):
		return "Error fetching weather data."
	default:
		return "Something went wrong. Please try again."
	}
}

// CoordsUserMessage is UserMessage for a run started from the user's own
// position, where upstream failures mention that location.
func CoordsUserMessage(err error) string {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return "Error fetching weather data for your location."
	}
	return UserMessage(err)
}
