// Package domain models NYC weather observations and motor vehicle collision
// records for the traffic safety ETL pipeline.
//
// # Data Sources
//
// Hourly weather comes from the Open-Meteo forecast API, queried once per
// borough center point with the hourly metrics temperature_2m, precipitation,
// visibility, rain, showers, snowfall, and wind_speed_10m. Timestamps arrive
// in UTC and are converted to NYC local time (America/New_York) during
// cleaning, since every derived temporal feature (rush hour, night, weekend,
// season) is defined in local time.
//
// Collision records come from the NYC Open Data "Motor Vehicle Collisions -
// Crashes" dataset (h9gi-nx95). The raw feed splits the crash moment across
// two columns: crash_date carries an ISO date with a zeroed time portion
// ("2024-01-01T00:00:00.000") and crash_time carries a bare clock value that
// may omit the leading zero ("7:00"). Cleaning reconstructs a single
// crash_datetime from the two, see [parseCrashDatetime].
//
// # Cleaning Policy
//
// Cleaning is deliberately lenient: non-numeric or missing measurements become
// zero, never errors. The only rows dropped are collision rows without a
// collision_id or a parseable crash_datetime, collision rows whose borough is
// not one of the five canonical boroughs or UNKNOWN, and duplicates. Weather
// rows with an unparseable datetime are kept with a zero timestamp so the
// loader can count them as skipped rather than losing them silently.
//
// # Classification
//
// Weather category is priority ordered: snow dominates rain, rain dominates
// fog, fog dominates wind, otherwise clear. Weather severity is a separate
// single-factor rule chain (snowfall, then rain total, then visibility, then
// wind); the first matching rule wins and factors are never combined.
//
// Collision severity is priority ordered on the casualty counts:
//
//	persons_killed > 0          FATAL
//	persons_injured >= 3        SEVERE
//	persons_injured > 0         MODERATE
//	total_involved > 0          MINOR
//	otherwise                   NONE
package domain
