package openmeteo

import (
	"testing"
	"time"

	"github.com/hectormalot/omgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
)

func testForecast(hours int, from time.Time) *omgo.Forecast {
	f := &omgo.Forecast{
		HourlyTimes:   make([]time.Time, hours),
		HourlyMetrics: make(map[string][]float64, len(hourlyMetrics)),
	}
	for i := 0; i < hours; i++ {
		f.HourlyTimes[i] = from.Add(time.Duration(i) * time.Hour)
	}
	for _, metric := range hourlyMetrics {
		values := make([]float64, hours)
		for i := range values {
			values[i] = float64(i)
		}
		f.HourlyMetrics[metric] = values
	}
	return f
}

func TestBuildRows(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("keeps only hours inside the window", func(t *testing.T) {
		// Forecast begins a day before the window and runs two days past it.
		forecast := testForecast(96, start.AddDate(0, 0, -1))
		windowEnd := start.AddDate(0, 0, 1)

		rows := buildRows(domain.Manhattan, forecast, start, windowEnd)
		require.Len(t, rows, 24)
		assert.Equal(t, "MANHATTAN", rows[0].Borough)
		assert.Equal(t, "2024-01-01T00:00:00Z", rows[0].Datetime)
		assert.Equal(t, "2024-01-01", rows[0].Date)
		assert.Equal(t, "2024-01-01T23:00:00Z", rows[23].Datetime)
	})

	t.Run("formats metric values as raw strings", func(t *testing.T) {
		forecast := testForecast(2, start)
		forecast.HourlyMetrics["temperature_2m"][1] = -3.75
		forecast.HourlyMetrics["snowfall"][1] = 0.5

		rows := buildRows(domain.Queens, forecast, start, start.AddDate(0, 0, 1))
		require.Len(t, rows, 2)
		assert.Equal(t, "-3.75", rows[1].Temperature2m)
		assert.Equal(t, "0.5", rows[1].Snowfall)
	})

	t.Run("missing metric yields empty string", func(t *testing.T) {
		forecast := testForecast(1, start)
		delete(forecast.HourlyMetrics, "visibility")

		rows := buildRows(domain.Bronx, forecast, start, start.AddDate(0, 0, 1))
		require.Len(t, rows, 1)
		assert.Empty(t, rows[0].Visibility)
		assert.NotEmpty(t, rows[0].WindSpeed10m)
	})

	t.Run("short metric slice yields empty string", func(t *testing.T) {
		forecast := testForecast(2, start)
		forecast.HourlyMetrics["rain"] = forecast.HourlyMetrics["rain"][:1]

		rows := buildRows(domain.Brooklyn, forecast, start, start.AddDate(0, 0, 1))
		require.Len(t, rows, 2)
		assert.Empty(t, rows[1].Rain)
	})
}
