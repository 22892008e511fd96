package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/config"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
)

func TestResolveRange(t *testing.T) {
	cfg := &config.Config{
		FallbackStartDate: "2024-01-01",
		FallbackEndDate:   "2024-01-07",
	}

	t.Run("both flags empty yields zero times", func(t *testing.T) {
		start, end, err := resolveRange(cfg, "", "", false)
		require.NoError(t, err)
		assert.True(t, start.IsZero())
		assert.True(t, end.IsZero())
	})

	t.Run("both flags set parse as NYC dates", func(t *testing.T) {
		start, end, err := resolveRange(cfg, "2024-03-01", "2024-03-15", false)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, domain.NYCLocation()), start)
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, domain.NYCLocation()), end)
	})

	t.Run("only one flag set is rejected", func(t *testing.T) {
		_, _, err := resolveRange(cfg, "2024-03-01", "", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "together")

		_, _, err = resolveRange(cfg, "", "2024-03-15", false)
		require.Error(t, err)
	})

	t.Run("historical uses the fallback window", func(t *testing.T) {
		start, end, err := resolveRange(cfg, "", "", true)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01", start.Format("2006-01-02"))
		assert.Equal(t, "2024-01-07", end.Format("2006-01-02"))
	})

	t.Run("unparseable dates are rejected", func(t *testing.T) {
		_, _, err := resolveRange(cfg, "03/01/2024", "2024-03-15", false)
		require.Error(t, err)

		_, _, err = resolveRange(cfg, "2024-03-01", "not-a-date", false)
		require.Error(t, err)
	})
}
