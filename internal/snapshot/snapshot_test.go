package snapshot_test

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/snapshot"
)

func testObservation(borough domain.Borough, ts time.Time) domain.WeatherObservation {
	return domain.WeatherObservation{
		Borough:       borough,
		Timestamp:     ts,
		Temperature2m: 3.5,
		Visibility:    24100,
		WindSpeed10m:  12.25,
		Hour:          ts.Hour(),
		DayOfWeek:     ts.Weekday().String(),
		Month:         ts.Month(),
		Season:        domain.SeasonOf(ts.Month()),
		Category:      domain.CategoryClear,
		Severity:      domain.SeverityLight,
	}
}

func testRecord(id string, ts time.Time) domain.CollisionRecord {
	lat := 40.712345679
	return domain.CollisionRecord{
		CollisionID:    id,
		Borough:        domain.Brooklyn,
		CrashDatetime:  ts,
		Latitude:       &lat,
		PersonsInjured: 1,
		TotalInvolved:  1,
		HasInjuries:    true,
		SeverityLevel:  domain.CollisionModerate,
	}
}

func TestWriteWeather(t *testing.T) {
	store := snapshot.NewStore(t.TempDir())
	ts := time.Date(2024, 1, 1, 7, 0, 0, 0, domain.NYCLocation())

	path, err := store.WriteWeather("20240101_120000", []domain.WeatherObservation{
		testObservation(domain.Manhattan, ts),
		{Borough: domain.Queens, Category: domain.CategoryFog, Severity: domain.SeveritySevere}, // zero timestamp
	})
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, "borough", rows[0][0])
	assert.Equal(t, "MANHATTAN", rows[1][0])
	assert.Equal(t, "2024-01-01 07:00:00", rows[1][1])
	// Zero timestamps keep an empty datetime cell.
	assert.Equal(t, "", rows[2][1])
}

func TestWriteCollisions(t *testing.T) {
	store := snapshot.NewStore(t.TempDir())
	ts := time.Date(2024, 1, 1, 7, 0, 0, 0, domain.NYCLocation())

	path, err := store.WriteCollisions("20240101_120000", []domain.CollisionRecord{testRecord("42", ts)})
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "42", rows[1][0])
	assert.Equal(t, "2024-01-01 07:00:00", rows[1][1])
	assert.Equal(t, "40.712345679", rows[1][4])
	assert.Equal(t, "MODERATE", rows[1][len(rows[1])-1])
}

func TestLatest(t *testing.T) {
	t.Run("no snapshots", func(t *testing.T) {
		store := snapshot.NewStore(t.TempDir())
		_, err := store.Latest()
		assert.ErrorIs(t, err, snapshot.ErrNoSnapshots)
	})

	t.Run("returns newest complete pair", func(t *testing.T) {
		dir := t.TempDir()
		store := snapshot.NewStore(dir)
		ts := time.Date(2024, 1, 1, 7, 0, 0, 0, domain.NYCLocation())

		for _, runID := range []string{"20240101_090000", "20240102_090000"} {
			_, err := store.WriteWeather(runID, []domain.WeatherObservation{testObservation(domain.Bronx, ts)})
			require.NoError(t, err)
			_, err = store.WriteCollisions(runID, []domain.CollisionRecord{testRecord("1", ts)})
			require.NoError(t, err)
		}
		// A weather file without its collisions counterpart must be ignored.
		_, err := store.WriteWeather("20240103_090000", nil)
		require.NoError(t, err)

		pair, err := store.Latest()
		require.NoError(t, err)
		assert.Equal(t, "20240102_090000", pair.RunID)
		assert.FileExists(t, pair.Weather)
		assert.FileExists(t, pair.Collisions)
	})
}

func TestParseTimestamp(t *testing.T) {
	assert.Equal(t,
		time.Date(2024, 1, 1, 7, 0, 0, 0, domain.NYCLocation()),
		snapshot.ParseTimestamp("2024-01-01 07:00:00"))
	assert.True(t, snapshot.ParseTimestamp("").IsZero())
	assert.True(t, snapshot.ParseTimestamp("yesterday").IsZero())
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
