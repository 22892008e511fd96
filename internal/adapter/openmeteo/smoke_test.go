//go:build openmeteo

package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
)

// These tests hit the real Open-Meteo API (no key required).
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func TestSmoke_ExtractWeather(t *testing.T) {
	client, err := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), "")
	require.NoError(t, err)

	// Most recent complete day.
	end := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	start := end

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	rows, err := client.ExtractWeather(ctx, start, end)
	require.NoError(t, err)

	// One row per borough-hour for a single day.
	assert.Len(t, rows, 24*len(domain.BoroughCenters))

	boroughs := map[string]bool{}
	for _, row := range rows {
		boroughs[row.Borough] = true
		assert.NotEmpty(t, row.Datetime)
	}
	assert.Len(t, boroughs, len(domain.BoroughCenters))
}
