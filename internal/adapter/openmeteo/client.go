// Package openmeteo extracts hourly borough weather from the Open-Meteo
// forecast API.
package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hectormalot/omgo"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
)

// hourlyMetrics are the Open-Meteo variables the pipeline consumes, in the
// order they appear in raw rows.
var hourlyMetrics = []string{
	"temperature_2m",
	"precipitation",
	"visibility",
	"rain",
	"showers",
	"snowfall",
	"wind_speed_10m",
}

// maxPastDays is the Open-Meteo forecast API limit for historical lookback.
const maxPastDays = 92

// Client extracts hourly weather rows, one API call per borough center.
type Client struct {
	om         omgo.Client
	logger     *slog.Logger
	cache      *rawCache
	maxRetries uint64
}

// NewClient creates an Open-Meteo extraction client. Raw responses are cached
// as CSV under rawDir; pass an empty rawDir to disable caching.
func NewClient(logger *slog.Logger, rawDir string) (*Client, error) {
	om, err := omgo.NewClient()
	if err != nil {
		return nil, fmt.Errorf("create open-meteo client: %w", err)
	}
	return &Client{
		om:         om,
		logger:     logger,
		cache:      newRawCache(rawDir),
		maxRetries: 5,
	}, nil
}

// ExtractWeather returns one raw row per borough-hour within [start, end]
// (end date inclusive). Timestamps in the returned rows are RFC 3339 UTC.
func (c *Client) ExtractWeather(ctx context.Context, start, end time.Time) ([]domain.RawWeatherRow, error) {
	pastDays := int(time.Since(start).Hours()/24) + 1
	if pastDays < 1 {
		pastDays = 1
	}
	if pastDays > maxPastDays {
		pastDays = maxPastDays
	}

	windowEnd := end.AddDate(0, 0, 1)
	var rows []domain.RawWeatherRow

	for _, center := range domain.BoroughCenters {
		loc, err := omgo.NewLocation(center.Lat, center.Lon)
		if err != nil {
			return nil, fmt.Errorf("create location for %s: %w", center.Borough, err)
		}

		opts := &omgo.Options{
			Timezone:      "UTC",
			PastDays:      pastDays,
			HourlyMetrics: hourlyMetrics,
		}

		forecast, err := c.forecastWithRetry(ctx, loc, opts)
		if err != nil {
			return nil, fmt.Errorf("fetch weather for %s: %w", center.Borough, err)
		}

		boroughRows := buildRows(center.Borough, forecast, start, windowEnd)
		c.logger.Debug("weather extracted", "borough", center.Borough, "rows", len(boroughRows))
		rows = append(rows, boroughRows...)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no weather data extracted for %s to %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	if err := c.cache.saveWeather(rows, start, end); err != nil {
		// Raw caching is best effort; the pipeline proceeds on the in-memory rows.
		c.logger.Warn("save raw weather cache failed", "error", err)
	}

	c.logger.Info("weather extraction complete", "rows", len(rows), "past_days", pastDays)
	return rows, nil
}

// forecastWithRetry fetches a forecast, retrying transient failures with
// exponential backoff.
func (c *Client) forecastWithRetry(ctx context.Context, loc omgo.Location, opts *omgo.Options) (*omgo.Forecast, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	var forecast *omgo.Forecast
	operation := func() error {
		f, err := c.om.Forecast(ctx, loc, opts)
		if err != nil {
			return err
		}
		forecast = f
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx))
	return forecast, err
}

// buildRows flattens a forecast into raw rows, keeping only hours inside
// [start, windowEnd). Values are formatted as strings because downstream
// cleaning treats all raw input as CSV-shaped text.
func buildRows(borough domain.Borough, forecast *omgo.Forecast, start, windowEnd time.Time) []domain.RawWeatherRow {
	rows := make([]domain.RawWeatherRow, 0, len(forecast.HourlyTimes))

	for i, ts := range forecast.HourlyTimes {
		if ts.Before(start) || !ts.Before(windowEnd) {
			continue
		}
		row := domain.RawWeatherRow{
			Borough:       string(borough),
			Datetime:      ts.UTC().Format(time.RFC3339),
			Date:          ts.UTC().Format("2006-01-02"),
			Temperature2m: metricAt(forecast, "temperature_2m", i),
			Precipitation: metricAt(forecast, "precipitation", i),
			Visibility:    metricAt(forecast, "visibility", i),
			Rain:          metricAt(forecast, "rain", i),
			Showers:       metricAt(forecast, "showers", i),
			Snowfall:      metricAt(forecast, "snowfall", i),
			WindSpeed10m:  metricAt(forecast, "wind_speed_10m", i),
		}
		rows = append(rows, row)
	}

	return rows
}

// metricAt reads one hourly metric value, returning an empty string when the
// metric or index is missing so the cleaner's zero-fill applies.
func metricAt(forecast *omgo.Forecast, metric string, i int) string {
	values, ok := forecast.HourlyMetrics[metric]
	if !ok || i >= len(values) {
		return ""
	}
	return strconv.FormatFloat(values[i], 'f', -1, 64)
}
