package openmeteo

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
)

// rawCache writes each extraction's raw rows to a CSV file so a run's input
// can be inspected or replayed. A nil-dir cache is a no-op.
type rawCache struct {
	dir string
}

func newRawCache(dir string) *rawCache {
	return &rawCache{dir: dir}
}

func (c *rawCache) saveWeather(rows []domain.RawWeatherRow, start, end time.Time) error {
	if c.dir == "" {
		return nil
	}

	name := fmt.Sprintf("nyc_borough_weather_hourly_%s_to_%s.csv",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	path := filepath.Join(c.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raw weather cache: %w", err)
	}

	w := csv.NewWriter(f)
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{
		"borough", "datetime", "temperature_2m", "precipitation", "visibility",
		"rain", "showers", "snowfall", "wind_speed_10m", "date",
	})
	for _, row := range rows {
		records = append(records, []string{
			row.Borough, row.Datetime, row.Temperature2m, row.Precipitation, row.Visibility,
			row.Rain, row.Showers, row.Snowfall, row.WindSpeed10m, row.Date,
		})
	}

	if err := w.WriteAll(records); err != nil {
		f.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write raw weather cache: %w", err)
	}
	return f.Close()
}
