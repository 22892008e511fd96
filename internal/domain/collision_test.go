package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanCollisionRows(t *testing.T) {
	t.Run("reconstructs crash timestamp and keeps blank borough as UNKNOWN", func(t *testing.T) {
		rows := []RawCollisionRow{{
			CollisionID: "4491827",
			CrashDate:   "2024-01-01T00:00:00.000",
			CrashTime:   "7:00",
			Borough:     "",
		}}

		cleaned := CleanCollisionRows(rows)
		require.Len(t, cleaned, 1)

		rec := cleaned[0]
		assert.Equal(t, "4491827", rec.CollisionID)
		assert.Equal(t, Unknown, rec.Borough)
		assert.Equal(t, time.Date(2024, 1, 1, 7, 0, 0, 0, nyc), rec.CrashDatetime)
		assert.Equal(t, CollisionNone, rec.SeverityLevel)
	})

	t.Run("filters non-canonical borough values", func(t *testing.T) {
		rows := []RawCollisionRow{
			{CollisionID: "1", CrashDate: "2024-01-01", CrashTime: "10:00", Borough: "brooklyn "},
			{CollisionID: "2", CrashDate: "2024-01-01", CrashTime: "10:00", Borough: "JERSEY CITY"},
		}

		cleaned := CleanCollisionRows(rows)
		require.Len(t, cleaned, 1)
		assert.Equal(t, Brooklyn, cleaned[0].Borough)
	})

	t.Run("drops rows without id or parseable timestamp", func(t *testing.T) {
		rows := []RawCollisionRow{
			{CollisionID: "", CrashDate: "2024-01-01", CrashTime: "10:00", Borough: "QUEENS"},
			{CollisionID: "10", CrashDate: "bogus", CrashTime: "10:00", Borough: "QUEENS"},
			{CollisionID: "11", CrashDate: "2024-01-01", CrashTime: "", Borough: "QUEENS"},
			{CollisionID: "12", CrashDate: "2024-01-01", CrashTime: "10:15", Borough: "QUEENS"},
		}

		cleaned := CleanCollisionRows(rows)
		require.Len(t, cleaned, 1)
		assert.Equal(t, "12", cleaned[0].CollisionID)
	})

	t.Run("deduplicates by collision id keeping first", func(t *testing.T) {
		rows := []RawCollisionRow{
			{CollisionID: "77", CrashDate: "2024-01-01", CrashTime: "10:00", Borough: "BRONX", PersonsInjured: "1"},
			{CollisionID: "77", CrashDate: "2024-01-02", CrashTime: "11:00", Borough: "QUEENS", PersonsInjured: "2"},
		}

		cleaned := CleanCollisionRows(rows)
		require.Len(t, cleaned, 1)
		assert.Equal(t, Bronx, cleaned[0].Borough)
		assert.Equal(t, 1, cleaned[0].PersonsInjured)
	})

	t.Run("coerces counts leniently", func(t *testing.T) {
		rows := []RawCollisionRow{{
			CollisionID:        "5",
			CrashDate:          "2024-01-01",
			CrashTime:          "12:30",
			Borough:            "MANHATTAN",
			PersonsInjured:     "2.0",
			PersonsKilled:      "-1",
			PedestriansInjured: "abc",
			CyclistsKilled:     "",
			MotoristsInjured:   "3",
		}}

		cleaned := CleanCollisionRows(rows)
		require.Len(t, cleaned, 1)

		rec := cleaned[0]
		assert.Equal(t, 2, rec.PersonsInjured)
		assert.Equal(t, 0, rec.PersonsKilled)
		assert.Equal(t, 0, rec.PedestriansInjured)
		assert.Equal(t, 0, rec.CyclistsKilled)
		assert.Equal(t, 3, rec.MotoristsInjured)
		assert.Equal(t, 5, rec.TotalInvolved)
		assert.True(t, rec.HasInjuries)
		assert.False(t, rec.HasFatalities)
		assert.Equal(t, CollisionModerate, rec.SeverityLevel)
	})

	t.Run("rounds coordinates to 9 decimals", func(t *testing.T) {
		rows := []RawCollisionRow{{
			CollisionID: "6",
			CrashDate:   "2024-01-01",
			CrashTime:   "12:30",
			Borough:     "QUEENS",
			Latitude:    "40.71234567891234",
			Longitude:   "",
		}}

		cleaned := CleanCollisionRows(rows)
		require.Len(t, cleaned, 1)
		require.NotNil(t, cleaned[0].Latitude)
		assert.Equal(t, 40.712345679, *cleaned[0].Latitude)
		assert.Nil(t, cleaned[0].Longitude)
	})

	t.Run("trims factor and vehicle strings", func(t *testing.T) {
		rows := []RawCollisionRow{{
			CollisionID:         "7",
			CrashDate:           "2024-01-01",
			CrashTime:           "12:30",
			Borough:             "BROOKLYN",
			ContributingFactors: [5]string{" Unspecified ", "Following Too Closely"},
			VehicleTypes:        [5]string{"Sedan ", " Bike"},
		}}

		cleaned := CleanCollisionRows(rows)
		require.Len(t, cleaned, 1)
		assert.Equal(t, "Unspecified", cleaned[0].ContributingFactors[0])
		assert.Equal(t, "Sedan", cleaned[0].VehicleTypes[0])
		assert.Equal(t, "Bike", cleaned[0].VehicleTypes[1])
	})
}

func TestParseCrashDatetime(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		time     string
		expected time.Time
	}{
		{"ISO date with time suffix", "2024-01-01T00:00:00.000", "7:00", time.Date(2024, 1, 1, 7, 0, 0, 0, nyc)},
		{"plain date", "2024-03-10", "14:45", time.Date(2024, 3, 10, 14, 45, 0, 0, nyc)},
		{"with seconds", "2024-03-10", "14:45:30", time.Date(2024, 3, 10, 14, 45, 30, 0, nyc)},
		{"single digit hour padded", "2024-03-10", "9:05", time.Date(2024, 3, 10, 9, 5, 0, 0, nyc)},
		{"empty time", "2024-03-10", "", time.Time{}},
		{"garbage date", "10/03/2024", "9:05", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseCrashDatetime(tt.date, tt.time))
		})
	}
}

func TestDetermineCollisionSeverity(t *testing.T) {
	tests := []struct {
		name     string
		injured  int
		killed   int
		total    int
		expected CollisionSeverity
	}{
		{"fatal regardless of injuries", 5, 1, 6, CollisionFatal},
		{"three injured is severe", 3, 0, 3, CollisionSevere},
		{"one injured is moderate", 1, 0, 1, CollisionModerate},
		{"pedestrian involvement only is minor", 0, 0, 2, CollisionMinor},
		{"nothing is none", 0, 0, 0, CollisionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := CollisionRecord{
				PersonsInjured: tt.injured,
				PersonsKilled:  tt.killed,
				TotalInvolved:  tt.total,
			}
			assert.Equal(t, tt.expected, determineCollisionSeverity(rec))
		})
	}
}

func TestNormalizeBorough(t *testing.T) {
	assert.Equal(t, Manhattan, NormalizeBorough(" manhattan "))
	assert.Equal(t, StatenIsland, NormalizeBorough("staten island"))
	assert.Equal(t, Unknown, NormalizeBorough(""))
	assert.Equal(t, Unknown, NormalizeBorough("   "))
	assert.Equal(t, Borough("NEWARK"), NormalizeBorough("Newark"))
	assert.False(t, NormalizeBorough("Newark").IsValid())
	assert.True(t, Unknown.IsValid())
}
