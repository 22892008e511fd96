// Package snapshot persists processed weather and collision tables as
// timestamped CSV pairs. The snapshot pair is the load-independent contract
// the dashboard reads: even when the relational load fails, a successful run
// leaves a fresh pair behind.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
)

// ErrNoSnapshots is returned by Latest when no processed pair exists yet.
// Consumers surface this as an explicit "run the pipeline first" state.
var ErrNoSnapshots = errors.New("no processed snapshots found: run the pipeline first")

const (
	weatherPrefix    = "weather_processed_"
	collisionsPrefix = "collisions_processed_"

	timestampLayout = "2006-01-02 15:04:05"
)

// Pair names the weather/collisions snapshot files of one pipeline run.
type Pair struct {
	RunID      string
	Weather    string
	Collisions string
}

// Store reads and writes snapshot pairs under a single directory.
type Store struct {
	dir string
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

var weatherHeader = []string{
	"borough", "datetime", "temperature_2m", "precipitation", "visibility",
	"rain", "showers", "snowfall", "wind_speed_10m",
	"hour_nyc", "day_of_week", "is_weekend", "is_rush_hour", "is_night",
	"month", "season", "weather_category", "weather_severity",
}

// WriteWeather writes the cleaned weather table for a run and returns the
// file path. Rows with a zero timestamp keep an empty datetime cell.
func (s *Store) WriteWeather(runID string, observations []domain.WeatherObservation) (string, error) {
	path := filepath.Join(s.dir, weatherPrefix+runID+".csv")

	records := make([][]string, 0, len(observations)+1)
	records = append(records, weatherHeader)
	for _, obs := range observations {
		ts := ""
		if !obs.Timestamp.IsZero() {
			ts = obs.Timestamp.Format(timestampLayout)
		}
		records = append(records, []string{
			string(obs.Borough),
			ts,
			formatFloat(obs.Temperature2m),
			formatFloat(obs.Precipitation),
			formatFloat(obs.Visibility),
			formatFloat(obs.Rain),
			formatFloat(obs.Showers),
			formatFloat(obs.Snowfall),
			formatFloat(obs.WindSpeed10m),
			strconv.Itoa(obs.Hour),
			obs.DayOfWeek,
			strconv.FormatBool(obs.IsWeekend),
			strconv.FormatBool(obs.IsRushHour),
			strconv.FormatBool(obs.IsNight),
			strconv.Itoa(int(obs.Month)),
			string(obs.Season),
			string(obs.Category),
			string(obs.Severity),
		})
	}

	return path, writeCSV(path, records)
}

var collisionsHeader = []string{
	"collision_id", "crash_datetime", "borough", "zip_code", "latitude", "longitude",
	"on_street_name", "off_street_name", "cross_street_name",
	"persons_injured", "persons_killed", "pedestrians_injured", "pedestrians_killed",
	"cyclists_injured", "cyclists_killed", "motorists_injured", "motorists_killed",
	"contributing_factor_1", "contributing_factor_2", "contributing_factor_3",
	"contributing_factor_4", "contributing_factor_5",
	"vehicle_type_1", "vehicle_type_2", "vehicle_type_3", "vehicle_type_4", "vehicle_type_5",
	"has_injuries", "has_fatalities", "total_involved", "severity_level",
}

// WriteCollisions writes the cleaned collision table for a run and returns
// the file path.
func (s *Store) WriteCollisions(runID string, records []domain.CollisionRecord) (string, error) {
	path := filepath.Join(s.dir, collisionsPrefix+runID+".csv")

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, collisionsHeader)
	for _, rec := range records {
		row := []string{
			rec.CollisionID,
			rec.CrashDatetime.Format(timestampLayout),
			string(rec.Borough),
			rec.ZipCode,
			formatCoordinate(rec.Latitude),
			formatCoordinate(rec.Longitude),
			rec.OnStreetName,
			rec.OffStreetName,
			rec.CrossStreetName,
			strconv.Itoa(rec.PersonsInjured),
			strconv.Itoa(rec.PersonsKilled),
			strconv.Itoa(rec.PedestriansInjured),
			strconv.Itoa(rec.PedestriansKilled),
			strconv.Itoa(rec.CyclistsInjured),
			strconv.Itoa(rec.CyclistsKilled),
			strconv.Itoa(rec.MotoristsInjured),
			strconv.Itoa(rec.MotoristsKilled),
		}
		row = append(row, rec.ContributingFactors[:]...)
		row = append(row, rec.VehicleTypes[:]...)
		row = append(row,
			strconv.FormatBool(rec.HasInjuries),
			strconv.FormatBool(rec.HasFatalities),
			strconv.Itoa(rec.TotalInvolved),
			string(rec.SeverityLevel),
		)
		rows = append(rows, row)
	}

	return path, writeCSV(path, rows)
}

// Latest returns the snapshot pair of the most recent run, identified by the
// lexicographically greatest run id (run ids are timestamp formatted, so this
// is also the newest). Pairs missing either file are ignored.
func (s *Store) Latest() (Pair, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, weatherPrefix+"*.csv"))
	if err != nil {
		return Pair{}, fmt.Errorf("scan snapshot dir: %w", err)
	}

	var pairs []Pair
	for _, weatherPath := range matches {
		base := filepath.Base(weatherPath)
		runID := strings.TrimSuffix(strings.TrimPrefix(base, weatherPrefix), ".csv")
		collisionsPath := filepath.Join(s.dir, collisionsPrefix+runID+".csv")
		if _, err := os.Stat(collisionsPath); err != nil {
			continue
		}
		pairs = append(pairs, Pair{RunID: runID, Weather: weatherPath, Collisions: collisionsPath})
	}

	if len(pairs) == 0 {
		return Pair{}, ErrNoSnapshots
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].RunID > pairs[j].RunID })
	return pairs[0], nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot %s: %w", path, err)
	}
	return nil
}

// ParseTimestamp parses a snapshot datetime cell back into NYC local time.
// Empty cells yield the zero time.
func ParseTimestamp(cell string) time.Time {
	if cell == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(timestampLayout, cell, domain.NYCLocation())
	if err != nil {
		return time.Time{}
	}
	return t
}
