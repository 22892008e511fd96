package socrata

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
)

// DecodeCSV parses the Socrata collisions CSV response into raw rows. Header
// names are normalized (lowercased, trimmed, spaces replaced by underscores)
// before column lookup, so the decoder tolerates the feed's inconsistent
// capitalization. Unknown columns are ignored; missing columns yield empty
// fields that downstream cleaning zero-fills.
func DecodeCSV(data []byte) ([]domain.RawCollisionRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[normalizeColumn(name)] = i
	}

	var rows []domain.RawCollisionRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		row := domain.RawCollisionRow{
			CollisionID: field("collision_id"),
			CrashDate:   field("crash_date"),
			CrashTime:   field("crash_time"),
			Borough:     field("borough"),
			ZipCode:     field("zip_code"),
			Latitude:    field("latitude"),
			Longitude:   field("longitude"),

			OnStreetName:    field("on_street_name"),
			OffStreetName:   field("off_street_name"),
			CrossStreetName: field("cross_street_name"),

			PersonsInjured:     field("number_of_persons_injured"),
			PersonsKilled:      field("number_of_persons_killed"),
			PedestriansInjured: field("number_of_pedestrians_injured"),
			PedestriansKilled:  field("number_of_pedestrians_killed"),
			CyclistsInjured:    field("number_of_cyclist_injured"),
			CyclistsKilled:     field("number_of_cyclist_killed"),
			MotoristsInjured:   field("number_of_motorist_injured"),
			MotoristsKilled:    field("number_of_motorist_killed"),
		}
		for i := 0; i < 5; i++ {
			row.ContributingFactors[i] = field(fmt.Sprintf("contributing_factor_vehicle_%d", i+1))
			row.VehicleTypes[i] = vehicleType(field, i+1)
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// vehicleType reads one of the vehicle type columns. The feed spells the
// first two without an underscore before the digit (vehicle_type_code1) and
// the rest with one (vehicle_type_code_3); accept either.
func vehicleType(field func(string) string, n int) string {
	if v := field(fmt.Sprintf("vehicle_type_code%d", n)); v != "" {
		return v
	}
	return field(fmt.Sprintf("vehicle_type_code_%d", n))
}

func normalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
