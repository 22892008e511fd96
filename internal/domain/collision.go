package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// RawCollisionRow is one crash record as delivered by the collisions
// extractor, after column names have been normalized to the standard schema.
// All fields are strings straight from the CSV feed.
type RawCollisionRow struct {
	CollisionID string
	CrashDate   string
	CrashTime   string
	Borough     string
	ZipCode     string
	Latitude    string
	Longitude   string

	OnStreetName    string
	OffStreetName   string
	CrossStreetName string

	PersonsInjured     string
	PersonsKilled      string
	PedestriansInjured string
	PedestriansKilled  string
	CyclistsInjured    string
	CyclistsKilled     string
	MotoristsInjured   string
	MotoristsKilled    string

	ContributingFactors [5]string
	VehicleTypes        [5]string
}

// CollisionSeverity grades a crash by its casualty counts.
type CollisionSeverity string

const (
	CollisionNone     CollisionSeverity = "NONE"
	CollisionMinor    CollisionSeverity = "MINOR"
	CollisionModerate CollisionSeverity = "MODERATE"
	CollisionSevere   CollisionSeverity = "SEVERE"
	CollisionFatal    CollisionSeverity = "FATAL"
)

// CollisionRecord is a cleaned crash with a reconstructed timestamp and
// derived severity features. CrashDatetime is NYC local time.
type CollisionRecord struct {
	CollisionID   string
	Borough       Borough
	CrashDatetime time.Time
	ZipCode       string
	Latitude      *float64
	Longitude     *float64

	OnStreetName    string
	OffStreetName   string
	CrossStreetName string

	PersonsInjured     int
	PersonsKilled      int
	PedestriansInjured int
	PedestriansKilled  int
	CyclistsInjured    int
	CyclistsKilled     int
	MotoristsInjured   int
	MotoristsKilled    int

	ContributingFactors [5]string
	VehicleTypes        [5]string

	HasInjuries   bool
	HasFatalities bool
	TotalInvolved int
	SeverityLevel CollisionSeverity
}

// CleanCollisionRows normalizes raw collision rows: reconstructs the crash
// timestamp, normalizes and filters boroughs, coerces the eight casualty
// counts to non-negative integers with a zero fallback, rounds coordinates to
// 9 decimals, drops rows without a collision id or parseable timestamp,
// deduplicates by collision id keeping the first occurrence, and derives the
// severity features.
func CleanCollisionRows(rows []RawCollisionRow) []CollisionRecord {
	cleaned := make([]CollisionRecord, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		borough := NormalizeBorough(row.Borough)
		if !borough.IsValid() {
			continue
		}

		id := strings.TrimSpace(row.CollisionID)
		if id == "" {
			continue
		}

		crashAt := parseCrashDatetime(row.CrashDate, row.CrashTime)
		if crashAt.IsZero() {
			continue
		}

		if seen[id] {
			continue
		}
		seen[id] = true

		rec := CollisionRecord{
			CollisionID:   id,
			Borough:       borough,
			CrashDatetime: crashAt,
			ZipCode:       strings.TrimSpace(row.ZipCode),
			Latitude:      parseCoordinate(row.Latitude),
			Longitude:     parseCoordinate(row.Longitude),

			OnStreetName:    strings.TrimSpace(row.OnStreetName),
			OffStreetName:   strings.TrimSpace(row.OffStreetName),
			CrossStreetName: strings.TrimSpace(row.CrossStreetName),

			PersonsInjured:     parseCountOrZero(row.PersonsInjured),
			PersonsKilled:      parseCountOrZero(row.PersonsKilled),
			PedestriansInjured: parseCountOrZero(row.PedestriansInjured),
			PedestriansKilled:  parseCountOrZero(row.PedestriansKilled),
			CyclistsInjured:    parseCountOrZero(row.CyclistsInjured),
			CyclistsKilled:     parseCountOrZero(row.CyclistsKilled),
			MotoristsInjured:   parseCountOrZero(row.MotoristsInjured),
			MotoristsKilled:    parseCountOrZero(row.MotoristsKilled),

			ContributingFactors: trimAll(row.ContributingFactors),
			VehicleTypes:        trimAll(row.VehicleTypes),
		}

		rec.TotalInvolved = rec.PersonsInjured + rec.PersonsKilled +
			rec.PedestriansInjured + rec.PedestriansKilled +
			rec.CyclistsInjured + rec.CyclistsKilled +
			rec.MotoristsInjured + rec.MotoristsKilled
		rec.HasInjuries = rec.PersonsInjured > 0
		rec.HasFatalities = rec.PersonsKilled > 0
		rec.SeverityLevel = determineCollisionSeverity(rec)

		cleaned = append(cleaned, rec)
	}

	return cleaned
}

// crashDatetimeLayouts are tried in order when parsing the reconstructed
// "<date> <time>" string. The feed usually omits seconds.
var crashDatetimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// parseCrashDatetime reconstructs a crash timestamp from the split raw
// fields: the date portion before a literal "T" in crash_date, plus the
// crash_time clock value with single-digit hours zero-padded. Returns the
// zero time when the combination cannot be parsed.
func parseCrashDatetime(rawDate, rawTime string) time.Time {
	datePart, _, _ := strings.Cut(strings.TrimSpace(rawDate), "T")
	timePart := strings.TrimSpace(rawTime)

	if hh, rest, ok := strings.Cut(timePart, ":"); ok && len(hh) == 1 {
		timePart = "0" + hh + ":" + rest
	}

	combined := datePart + " " + timePart
	for _, layout := range crashDatetimeLayouts {
		if t, err := time.ParseInLocation(layout, combined, nyc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseCountOrZero coerces a casualty count to a non-negative integer.
// Missing, non-numeric, or negative values become 0. Counts arriving as
// floats ("1.0") are truncated.
func parseCountOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < 0 {
		return 0
	}
	return int(v)
}

// parseCoordinate parses a latitude/longitude value rounded to 9 decimals.
// Missing or non-numeric values yield nil.
func parseCoordinate(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	v = math.Round(v*1e9) / 1e9
	return &v
}

func trimAll(values [5]string) [5]string {
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
	return values
}

// determineCollisionSeverity classifies a crash in priority order: any death
// is FATAL, three or more injuries SEVERE, any injury MODERATE, any
// involvement MINOR, otherwise NONE.
func determineCollisionSeverity(rec CollisionRecord) CollisionSeverity {
	switch {
	case rec.PersonsKilled > 0:
		return CollisionFatal
	case rec.PersonsInjured >= 3:
		return CollisionSevere
	case rec.PersonsInjured > 0:
		return CollisionModerate
	case rec.TotalInvolved > 0:
		return CollisionMinor
	}
	return CollisionNone
}
