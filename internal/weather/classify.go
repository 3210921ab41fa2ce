package weather

import "time"

// Thresholds are inclusive upper bounds evaluated in ascending order; the
// first row a code is <= to wins. The first description row matches 0
// exactly. The category table and the description table keep their own
// thresholds.

type categoryRule struct {
	max      Code
	category Category
}

var categoryRules = []categoryRule{
	{3, CategoryClear},
	{48, CategoryClouds},
	{67, CategoryRain},
	{77, CategorySnow},
	{82, CategoryRain},
	{86, CategorySnow},
	{99, CategoryThunderstorm},
}

type descriptionRule struct {
	max         Code
	description string
	iconFamily  string
}

var descriptionRules = []descriptionRule{
	{0, "clear sky", "01"},
	{3, "partly cloudy", "02"},
	{48, "cloudy", "03"},
	{55, "drizzle", "09"},
	{57, "freezing drizzle", "13"},
	{65, "rain", "10"},
	{67, "freezing rain", "13"},
	{77, "snow", "13"},
	{82, "rain showers", "09"},
	{86, "snow showers", "13"},
	{99, "thunderstorm", "11"},
}

const (
	unknownDescription = "unknown"
	unknownIconFamily  = "50"
)

// Classify maps a weather code to its category, description and icon token.
// It is total: codes outside the table classify as Unknown.
func Classify(code Code, isDaytime bool) Classification {
	return Classification{
		Category:    CategoryFor(code),
		Description: DescriptionFor(code),
		Icon:        IconFor(code, isDaytime),
	}
}

// CategoryFor returns the coarse "main" label for code.
func CategoryFor(code Code) Category {
	for _, r := range categoryRules {
		if code <= r.max {
			return r.category
		}
	}
	return CategoryUnknown
}

// DescriptionFor returns the human-readable description for code.
func DescriptionFor(code Code) string {
	if r, ok := matchDescription(code); ok {
		return r.description
	}
	return unknownDescription
}

// IconFor returns an OpenWeatherMap-compatible icon token such as "10d".
func IconFor(code Code, isDaytime bool) string {
	family := unknownIconFamily
	if r, ok := matchDescription(code); ok {
		family = r.iconFamily
	}
	if isDaytime {
		return family + "d"
	}
	return family + "n"
}

func matchDescription(code Code) (descriptionRule, bool) {
	if code == descriptionRules[0].max {
		return descriptionRules[0], true
	}
	for _, r := range descriptionRules[1:] {
		if code <= r.max {
			return r, true
		}
	}
	return descriptionRule{}, false
}

// IsDaytime reports whether t falls in the [06:00, 18:00) local window.
func IsDaytime(t time.Time) bool {
	h := t.Hour()
	return h >= 6 && h < 18
}
