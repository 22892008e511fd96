package domain

import "strings"

// Borough identifies one of NYC's five administrative divisions, or UNKNOWN
// when the source record carries no usable borough value.
type Borough string

const (
	Manhattan    Borough = "MANHATTAN"
	Brooklyn     Borough = "BROOKLYN"
	Queens       Borough = "QUEENS"
	Bronx        Borough = "BRONX"
	StatenIsland Borough = "STATEN ISLAND"
	Unknown      Borough = "UNKNOWN"
)

// Boroughs lists the five canonical boroughs in extraction order.
var Boroughs = []Borough{Manhattan, Brooklyn, Queens, Bronx, StatenIsland}

// BoroughCenter is the center-point coordinate used for per-borough weather
// extraction.
type BoroughCenter struct {
	Borough Borough
	Lat     float64
	Lon     float64
}

// BoroughCenters holds the Open-Meteo query coordinates for each borough.
var BoroughCenters = []BoroughCenter{
	{Manhattan, 40.7834, -73.9663},
	{Brooklyn, 40.6501, -73.9496},
	{Queens, 40.6815, -73.8365},
	{Bronx, 40.8499, -73.8664},
	{StatenIsland, 40.5623, -74.1399},
}

// NormalizeBorough upper-cases and trims a raw borough value. Empty input maps
// to UNKNOWN; any other value is returned as-is so callers can decide whether
// to filter it out with IsValid.
func NormalizeBorough(raw string) Borough {
	b := Borough(strings.ToUpper(strings.TrimSpace(raw)))
	if b == "" {
		return Unknown
	}
	return b
}

// IsValid reports whether b is one of the five canonical boroughs or UNKNOWN.
func (b Borough) IsValid() bool {
	switch b {
	case Manhattan, Brooklyn, Queens, Bronx, StatenIsland, Unknown:
		return true
	}
	return false
}
