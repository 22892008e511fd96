// Command genmock generates deterministic mock raw data fixtures and runs
// them through the actual cleaning code, so fixture output always matches
// real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/snapshot"
)

// Fixture window: the first week of 2024, matching the fallback range.
var (
	fixtureStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	fixtureDays  = 7
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "output directory for mock fixtures")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	// Fixed clock so snapshot run ids are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.January, 8, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(20240101))

	rawWeather := genWeatherRows(rng)
	rawCollisions := genCollisionRows(rng)

	if err := writeWeatherCSV(filepath.Join(*outDir, "weather_raw_fixture.csv"), rawWeather); err != nil {
		return fmt.Errorf("writing weather fixture: %w", err)
	}
	if err := writeCollisionsCSV(filepath.Join(*outDir, "collisions_raw_fixture.csv"), rawCollisions); err != nil {
		return fmt.Errorf("writing collisions fixture: %w", err)
	}
	log.Printf("raw fixtures: %d weather rows, %d collision rows", len(rawWeather), len(rawCollisions))

	// Run the actual cleaners and persist a processed pair.
	observations := domain.CleanWeatherRows(rawWeather)
	records := domain.CleanCollisionRows(rawCollisions)

	snapshots := snapshot.NewStore(*outDir)
	runID := "20240108_060000"
	weatherPath, err := snapshots.WriteWeather(runID, observations)
	if err != nil {
		return fmt.Errorf("writing processed weather: %w", err)
	}
	collisionsPath, err := snapshots.WriteCollisions(runID, records)
	if err != nil {
		return fmt.Errorf("writing processed collisions: %w", err)
	}

	log.Printf("processed fixtures: %s (%d rows), %s (%d rows)",
		weatherPath, len(observations), collisionsPath, len(records))

	printStats(observations, records)
	return nil
}

// genWeatherRows produces one row per borough-hour across the fixture window,
// with winter-plausible measurements and occasional snow and rain episodes.
func genWeatherRows(rng *rand.Rand) []domain.RawWeatherRow {
	rows := make([]domain.RawWeatherRow, 0, fixtureDays*24*len(domain.Boroughs))

	for day := 0; day < fixtureDays; day++ {
		for hour := 0; hour < 24; hour++ {
			ts := fixtureStart.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)

			// One snowy day, one rainy day, otherwise clear-ish.
			var snowfall, rain float64
			switch day {
			case 2:
				snowfall = rng.Float64() * 8
			case 4:
				rain = rng.Float64() * 12
			}

			for _, borough := range domain.Boroughs {
				rows = append(rows, domain.RawWeatherRow{
					Borough:       string(borough),
					Datetime:      ts.Format(time.RFC3339),
					Date:          ts.Format("2006-01-02"),
					Temperature2m: formatF(rng.Float64()*10 - 4),
					Precipitation: formatF(rain + snowfall),
					Visibility:    formatF(2000 + rng.Float64()*30000),
					Rain:          formatF(rain),
					Showers:       "0",
					Snowfall:      formatF(snowfall),
					WindSpeed10m:  formatF(rng.Float64() * 40),
				})
			}
		}
	}
	return rows
}

// genCollisionRows produces a spread of crashes across boroughs and severity
// levels, including edge-case rows the cleaner must handle: a blank borough,
// a single-digit crash hour, a duplicate id, and a missing id.
func genCollisionRows(rng *rand.Rand) []domain.RawCollisionRow {
	factors := []string{"Driver Inattention/Distraction", "Following Too Closely", "Failure to Yield Right-of-Way", "Unspecified"}
	vehicles := []string{"Sedan", "Station Wagon/Sport Utility Vehicle", "Bike", "Taxi", "Box Truck"}
	boroughs := append([]domain.Borough{}, domain.Boroughs...)
	boroughs = append(boroughs, "") // cleaned to UNKNOWN

	var rows []domain.RawCollisionRow
	id := 4700000

	for day := 0; day < fixtureDays; day++ {
		date := fixtureStart.AddDate(0, 0, day).Format("2006-01-02") + "T00:00:00.000"
		perDay := 20 + rng.Intn(10)

		for i := 0; i < perDay; i++ {
			id++
			injured := rng.Intn(4)
			killed := 0
			if rng.Intn(50) == 0 {
				killed = 1
			}

			rows = append(rows, domain.RawCollisionRow{
				CollisionID:         strconv.Itoa(id),
				CrashDate:           date,
				CrashTime:           fmt.Sprintf("%d:%02d", rng.Intn(24), rng.Intn(60)),
				Borough:             string(boroughs[rng.Intn(len(boroughs))]),
				Latitude:            formatF(40.5 + rng.Float64()*0.4),
				Longitude:           formatF(-74.2 + rng.Float64()*0.5),
				PersonsInjured:      strconv.Itoa(injured),
				PersonsKilled:       strconv.Itoa(killed),
				MotoristsInjured:    strconv.Itoa(injured),
				ContributingFactors: [5]string{factors[rng.Intn(len(factors))]},
				VehicleTypes:        [5]string{vehicles[rng.Intn(len(vehicles))], vehicles[rng.Intn(len(vehicles))]},
			})
		}
	}

	// Edge cases: duplicate id and missing id.
	dup := rows[0]
	rows = append(rows, dup)
	rows = append(rows, domain.RawCollisionRow{
		CrashDate: fixtureStart.Format("2006-01-02") + "T00:00:00.000",
		CrashTime: "9:30",
		Borough:   "BROOKLYN",
	})

	return rows
}

func writeWeatherCSV(path string, rows []domain.RawWeatherRow) error {
	records := [][]string{{
		"borough", "datetime", "temperature_2m", "precipitation", "visibility",
		"rain", "showers", "snowfall", "wind_speed_10m", "date",
	}}
	for _, r := range rows {
		records = append(records, []string{
			r.Borough, r.Datetime, r.Temperature2m, r.Precipitation, r.Visibility,
			r.Rain, r.Showers, r.Snowfall, r.WindSpeed10m, r.Date,
		})
	}
	return writeCSV(path, records)
}

func writeCollisionsCSV(path string, rows []domain.RawCollisionRow) error {
	records := [][]string{{
		"collision_id", "crash_date", "crash_time", "borough", "zip_code",
		"latitude", "longitude", "on_street_name", "off_street_name", "cross_street_name",
		"number_of_persons_injured", "number_of_persons_killed",
		"number_of_pedestrians_injured", "number_of_pedestrians_killed",
		"number_of_cyclist_injured", "number_of_cyclist_killed",
		"number_of_motorist_injured", "number_of_motorist_killed",
		"contributing_factor_vehicle_1", "contributing_factor_vehicle_2",
		"contributing_factor_vehicle_3", "contributing_factor_vehicle_4",
		"contributing_factor_vehicle_5",
		"vehicle_type_code1", "vehicle_type_code2", "vehicle_type_code_3",
		"vehicle_type_code_4", "vehicle_type_code_5",
	}}
	for _, r := range rows {
		rec := []string{
			r.CollisionID, r.CrashDate, r.CrashTime, r.Borough, r.ZipCode,
			r.Latitude, r.Longitude, r.OnStreetName, r.OffStreetName, r.CrossStreetName,
			r.PersonsInjured, r.PersonsKilled,
			r.PedestriansInjured, r.PedestriansKilled,
			r.CyclistsInjured, r.CyclistsKilled,
			r.MotoristsInjured, r.MotoristsKilled,
		}
		rec = append(rec, r.ContributingFactors[:]...)
		rec = append(rec, r.VehicleTypes[:]...)
		records = append(records, rec)
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	return f.Close()
}

func formatF(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func printStats(observations []domain.WeatherObservation, records []domain.CollisionRecord) {
	categories := map[domain.WeatherCategory]int{}
	for _, obs := range observations {
		categories[obs.Category]++
	}
	severities := map[domain.CollisionSeverity]int{}
	for _, rec := range records {
		severities[rec.SeverityLevel]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Weather: %d rows, categories: %v\n", len(observations), categories)
	fmt.Printf("Collisions: %d rows, severities: %v\n", len(records), severities)
}
