// Command validate performs data integrity checks over a processed snapshot
// pair: weather classification invariants, collision id uniqueness, and
// severity rule consistency. It reads the most recent pair in a processed
// data directory, or an explicitly named pair.
//
// Usage:
//
//	go run ./cmd/validate -processed-dir data/processed
//	go run ./cmd/validate -weather data/processed/weather_processed_X.csv \
//	  -collisions data/processed/collisions_processed_X.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/snapshot"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	processedDir := flag.String("processed-dir", "", "processed data directory; validates the latest snapshot pair")
	weatherPath := flag.String("weather", "", "explicit weather snapshot path")
	collisionsPath := flag.String("collisions", "", "explicit collisions snapshot path")
	flag.Parse()

	wPath, cPath := *weatherPath, *collisionsPath
	if wPath == "" || cPath == "" {
		if *processedDir == "" {
			flag.Usage()
			os.Exit(1)
		}
		pair, err := snapshot.NewStore(*processedDir).Latest()
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(1)
		}
		wPath, cPath = pair.Weather, pair.Collisions
		fmt.Printf("Validating run %s\n", pair.RunID)
	}

	if code := run(wPath, cPath); code != 0 {
		os.Exit(code)
	}
}

func run(weatherPath, collisionsPath string) int {
	fmt.Println("=== Processed Snapshot Validation ===")
	fmt.Println()

	weather, err := loadCSV(weatherPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load weather snapshot: %v\n", err)
		return 1
	}
	collisions, err := loadCSV(collisionsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load collisions snapshot: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateWeatherClassification(weather),
		validateWeatherUniqueness(weather),
		validateCollisionIntegrity(collisions),
		validateCollisionSeverity(collisions),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-46s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d weather, %d collisions\n", len(weather), len(collisions))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

func loadCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 1 {
		return nil, fmt.Errorf("empty file %s", path)
	}

	header := all[0]
	var rows []csvRow
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return rows, nil
}

func (r csvRow) float(name string) float64 {
	v, _ := strconv.ParseFloat(r.fields[name], 64)
	return v
}

func (r csvRow) integer(name string) int {
	v, _ := strconv.Atoi(r.fields[name])
	return v
}

// ── Phase 1: Weather Classification ──
// Category and severity values come from the closed enum sets, and snow
// dominates the category decision.

var (
	weatherCategories = map[string]bool{"CLEAR": true, "RAIN": true, "SNOW": true, "FOG": true, "WIND": true}
	weatherSeverities = map[string]bool{"LIGHT": true, "MODERATE": true, "HEAVY": true, "SEVERE": true}
)

func validateWeatherClassification(rows []csvRow) *phase {
	p := &phase{name: "Phase 1: Weather Classification"}

	for _, row := range rows {
		category := row.fields["weather_category"]
		if !weatherCategories[category] {
			p.errorf("line %d: weather_category %q not in {CLEAR, RAIN, SNOW, FOG, WIND}", row.lineNum, category)
		}
		if !weatherSeverities[row.fields["weather_severity"]] {
			p.errorf("line %d: weather_severity %q not in {LIGHT, MODERATE, HEAVY, SEVERE}", row.lineNum, row.fields["weather_severity"])
		}
		if row.float("snowfall") > 0 && category != "SNOW" {
			p.errorf("line %d: snowfall %s but category %q (snow must dominate)", row.lineNum, row.fields["snowfall"], category)
		}

		borough := domain.Borough(row.fields["borough"])
		if !borough.IsValid() {
			p.errorf("line %d: borough %q invalid", row.lineNum, borough)
		}

		hour := row.integer("hour_nyc")
		wantNight := hour >= 20 || hour < 6
		if row.fields["is_night"] != strconv.FormatBool(wantNight) {
			p.errorf("line %d: is_night %q inconsistent with hour %d", row.lineNum, row.fields["is_night"], hour)
		}
	}
	return p
}

// ── Phase 2: Weather Uniqueness ──
// One row per (borough, timestamp) after cleaning.

func validateWeatherUniqueness(rows []csvRow) *phase {
	p := &phase{name: "Phase 2: Weather Uniqueness"}

	seen := map[string]int{}
	for _, row := range rows {
		key := row.fields["borough"] + "|" + row.fields["datetime"]
		if first, ok := seen[key]; ok {
			p.errorf("line %d: duplicate (borough, datetime) %q, first at line %d", row.lineNum, key, first)
			continue
		}
		seen[key] = row.lineNum
	}
	return p
}

// ── Phase 3: Collision Integrity ──
// Every retained row has a unique collision id, a parseable crash timestamp,
// and a valid borough.

func validateCollisionIntegrity(rows []csvRow) *phase {
	p := &phase{name: "Phase 3: Collision Integrity"}

	seen := map[string]int{}
	for _, row := range rows {
		id := row.fields["collision_id"]
		if id == "" {
			p.errorf("line %d: missing collision_id", row.lineNum)
			continue
		}
		if first, ok := seen[id]; ok {
			p.errorf("line %d: duplicate collision_id %q, first at line %d", row.lineNum, id, first)
			continue
		}
		seen[id] = row.lineNum

		if snapshot.ParseTimestamp(row.fields["crash_datetime"]).IsZero() {
			p.errorf("line %d: unparseable crash_datetime %q", row.lineNum, row.fields["crash_datetime"])
		}
		if borough := domain.Borough(row.fields["borough"]); !borough.IsValid() {
			p.errorf("line %d: borough %q invalid", row.lineNum, borough)
		}
	}
	return p
}

// ── Phase 4: Collision Severity ──
// severity_level follows the priority rules over the casualty counts.

func validateCollisionSeverity(rows []csvRow) *phase {
	p := &phase{name: "Phase 4: Collision Severity"}

	for _, row := range rows {
		injured := row.integer("persons_injured")
		killed := row.integer("persons_killed")
		total := row.integer("total_involved")

		var want string
		switch {
		case killed > 0:
			want = "FATAL"
		case injured >= 3:
			want = "SEVERE"
		case injured > 0:
			want = "MODERATE"
		case total > 0:
			want = "MINOR"
		default:
			want = "NONE"
		}

		if got := row.fields["severity_level"]; got != want {
			p.errorf("line %d: severity_level %q, expected %q (injured=%d killed=%d total=%d)",
				row.lineNum, got, want, injured, killed, total)
		}

		sum := row.integer("persons_injured") + row.integer("persons_killed") +
			row.integer("pedestrians_injured") + row.integer("pedestrians_killed") +
			row.integer("cyclists_injured") + row.integer("cyclists_killed") +
			row.integer("motorists_injured") + row.integer("motorists_killed")
		if sum != total {
			p.errorf("line %d: total_involved %d does not match count sum %d", row.lineNum, total, sum)
		}
	}
	return p
}
