package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// RawWeatherRow is one hourly borough observation as delivered by the weather
// extractor. All measurement fields are strings because the raw feed is CSV
// shaped; the cleaner coerces them with a zero fallback.
type RawWeatherRow struct {
	Borough       string
	Datetime      string // RFC 3339 UTC
	Temperature2m string
	Precipitation string
	Visibility    string
	Rain          string
	Showers       string
	Snowfall      string
	WindSpeed10m  string
	Date          string
}

// WeatherCategory labels the dominant weather condition for an hour.
type WeatherCategory string

const (
	CategoryClear WeatherCategory = "CLEAR"
	CategoryRain  WeatherCategory = "RAIN"
	CategorySnow  WeatherCategory = "SNOW"
	CategoryFog   WeatherCategory = "FOG"
	CategoryWind  WeatherCategory = "WIND"
)

// WeatherSeverity grades how hazardous an hour's conditions are.
type WeatherSeverity string

const (
	SeverityLight    WeatherSeverity = "LIGHT"
	SeverityModerate WeatherSeverity = "MODERATE"
	SeverityHeavy    WeatherSeverity = "HEAVY"
	SeveritySevere   WeatherSeverity = "SEVERE"
)

// WeatherObservation is a cleaned, enriched borough-hour. Timestamp is NYC
// local time; a zero Timestamp marks a row whose raw datetime could not be
// parsed (preserved, not dropped — downstream consumers skip it).
type WeatherObservation struct {
	Borough       Borough
	Timestamp     time.Time
	Temperature2m float64
	Precipitation float64
	Visibility    float64
	Rain          float64
	Showers       float64
	Snowfall      float64
	WindSpeed10m  float64

	Hour       int
	DayOfWeek  string
	IsWeekend  bool
	IsRushHour bool
	IsNight    bool
	Month      time.Month
	Season     Season
	Category   WeatherCategory
	Severity   WeatherSeverity
}

// Adverse reports whether the observation's category is anything but clear.
// Stored on the weather fact row for dashboard filtering.
func (o WeatherObservation) Adverse() bool {
	return o.Category != CategoryClear
}

// CleanWeatherRows normalizes and enriches raw hourly weather rows.
// Measurements are coerced leniently (non-numeric becomes zero), temperature
// and wind speed are rounded to 2 decimals, visibility is bucketed to the
// nearest 100 units, temporal features and category/severity labels are
// derived, and duplicates on (borough, timestamp) are dropped keeping the
// first occurrence.
func CleanWeatherRows(rows []RawWeatherRow) []WeatherObservation {
	cleaned := make([]WeatherObservation, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		obs := cleanWeatherRow(row)

		key := string(obs.Borough) + "|" + obs.Timestamp.Format(time.RFC3339)
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, obs)
	}

	return cleaned
}

func cleanWeatherRow(row RawWeatherRow) WeatherObservation {
	obs := WeatherObservation{
		Borough:       Borough(strings.ToUpper(strings.TrimSpace(row.Borough))),
		Timestamp:     parseUTCToNYC(row.Datetime),
		Temperature2m: round2(parseFloatOrZero(row.Temperature2m)),
		Precipitation: parseFloatOrZero(row.Precipitation),
		Visibility:    bucket100(parseFloatOrZero(row.Visibility)),
		Rain:          parseFloatOrZero(row.Rain),
		Showers:       parseFloatOrZero(row.Showers),
		Snowfall:      parseFloatOrZero(row.Snowfall),
		WindSpeed10m:  round2(parseFloatOrZero(row.WindSpeed10m)),
	}

	if !obs.Timestamp.IsZero() {
		tf := DeriveTimeFeatures(obs.Timestamp)
		obs.Hour = tf.Hour
		obs.DayOfWeek = tf.DayOfWeek
		obs.IsWeekend = tf.IsWeekend
		obs.IsRushHour = tf.IsRushHour
		obs.IsNight = tf.IsNight
		obs.Month = tf.Month
		obs.Season = tf.Season
	}

	obs.Category = categorizeWeather(obs)
	obs.Severity = assessWeatherSeverity(obs)
	return obs
}

// parseUTCToNYC parses an RFC 3339 timestamp and converts it to NYC local
// time. Unparseable input yields the zero time.
func parseUTCToNYC(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.In(nyc)
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// bucket100 rounds visibility to the nearest 100 units.
func bucket100(v float64) float64 {
	return math.Round(v/100) * 100
}

// categorizeWeather labels the dominant condition in priority order: snow
// dominates rain, rain dominates fog, fog dominates wind.
func categorizeWeather(obs WeatherObservation) WeatherCategory {
	if obs.Snowfall > 0 {
		return CategorySnow
	}
	if obs.Rain+obs.Showers+obs.Precipitation > 0 {
		return CategoryRain
	}
	if obs.Visibility < 5000 {
		return CategoryFog
	}
	if obs.WindSpeed10m > 30 {
		return CategoryWind
	}
	return CategoryClear
}

// assessWeatherSeverity grades conditions with independent single-factor
// rules; the first matching rule wins and factors are never combined.
func assessWeatherSeverity(obs WeatherObservation) WeatherSeverity {
	if obs.Snowfall > 5 {
		return SeverityHeavy
	}

	rainTotal := obs.Rain + obs.Showers + obs.Precipitation
	if rainTotal > 10 {
		return SeverityHeavy
	}
	if rainTotal > 5 {
		return SeverityModerate
	}

	if obs.Visibility < 1000 {
		return SeveritySevere
	}
	if obs.Visibility < 3000 {
		return SeverityModerate
	}

	if obs.WindSpeed10m > 50 {
		return SeveritySevere
	}
	if obs.WindSpeed10m > 30 {
		return SeverityModerate
	}

	return SeverityLight
}
