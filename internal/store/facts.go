package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/config"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/observability"
)

const dataSource = "nyc_open_data"

// LoadResult reports what a single load call did with its input rows.
type LoadResult struct {
	Loaded     int // fact rows inserted
	Duplicates int // rows skipped because their natural key already exists
	Skipped    int // malformed rows (e.g. unparseable timestamp)
}

// Loader upserts cleaned rows into the fact tables. Each Load call opens its
// own connection pool, resolves dimension ids, pre-checks natural keys, and
// inserts the remainder in batches inside a single transaction. A failure
// anywhere rolls back the entire call.
type Loader struct {
	cfg     config.Database
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a fact loader. The database is not contacted until a Load
// call runs.
func NewLoader(cfg config.Database, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{cfg: cfg, logger: logger, metrics: metrics}
}

// LoadWeather loads cleaned weather observations into fact_weather. At most
// one fact exists per (datetime_id, location_id); rows whose pair is already
// present count as duplicates, whether the earlier row came from a previous
// call or from the same one. Rows with a zero timestamp are skipped.
func (l *Loader) LoadWeather(ctx context.Context, runID string, observations []domain.WeatherObservation) (LoadResult, error) {
	var result LoadResult
	if len(observations) == 0 {
		return result, nil
	}

	err := l.withStore(ctx, func(s *Store, resolver *DimensionResolver) error {
		return l.inTx(ctx, s, func(tx pgx.Tx) error {
			batch := &pgx.Batch{}
			// Natural keys already queued in this call; the EXISTS pre-check
			// cannot see rows still waiting in an unflushed batch.
			seen := make(map[[2]int64]struct{}, len(observations))

			for _, obs := range observations {
				if obs.Timestamp.IsZero() {
					result.Skipped++
					continue
				}

				datetimeID, err := resolver.ResolveDatetime(ctx, obs.Timestamp)
				if err != nil {
					return err
				}
				locationID, err := resolver.ResolveLocation(ctx, obs.Borough)
				if err != nil {
					return err
				}

				key := [2]int64{datetimeID, locationID}
				if _, ok := seen[key]; ok {
					result.Duplicates++
					continue
				}
				seen[key] = struct{}{}

				var exists bool
				err = tx.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM fact_weather WHERE datetime_id = $1 AND location_id = $2)`,
					datetimeID, locationID,
				).Scan(&exists)
				if err != nil {
					return fmt.Errorf("check fact_weather duplicate: %w", err)
				}
				if exists {
					result.Duplicates++
					continue
				}

				batch.Queue(`
					INSERT INTO fact_weather (
						datetime_id, location_id, temperature_2m, precipitation, visibility,
						rain, showers, snowfall, wind_speed_10m,
						weather_category, weather_severity, is_adverse
					) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
					datetimeID, locationID, obs.Temperature2m, obs.Precipitation, obs.Visibility,
					obs.Rain, obs.Showers, obs.Snowfall, obs.WindSpeed10m,
					string(obs.Category), string(obs.Severity), obs.Adverse(),
				)
				result.Loaded++

				if batch.Len() >= l.cfg.LoadBatchSize {
					if err := flushBatch(ctx, tx, batch); err != nil {
						return err
					}
					batch = &pgx.Batch{}
				}
			}

			return flushBatch(ctx, tx, batch)
		})
	}, &result, "weather")
	return result, err
}

// LoadCollisions loads cleaned collision records into fact_collisions. At
// most one fact exists per external collision id; a repeated id counts as a
// duplicate whether its first occurrence came from a previous call or from
// the same one.
func (l *Loader) LoadCollisions(ctx context.Context, runID string, records []domain.CollisionRecord) (LoadResult, error) {
	var result LoadResult
	if len(records) == 0 {
		return result, nil
	}

	err := l.withStore(ctx, func(s *Store, resolver *DimensionResolver) error {
		return l.inTx(ctx, s, func(tx pgx.Tx) error {
			batch := &pgx.Batch{}
			seen := make(map[string]struct{}, len(records))

			for _, rec := range records {
				if rec.CollisionID == "" || rec.CrashDatetime.IsZero() {
					result.Skipped++
					continue
				}
				if _, ok := seen[rec.CollisionID]; ok {
					result.Duplicates++
					continue
				}
				seen[rec.CollisionID] = struct{}{}

				datetimeID, err := resolver.ResolveDatetime(ctx, rec.CrashDatetime)
				if err != nil {
					return err
				}
				locationID, err := resolver.ResolveLocation(ctx, rec.Borough)
				if err != nil {
					return err
				}

				var exists bool
				err = tx.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM fact_collisions WHERE collision_id = $1)`,
					rec.CollisionID,
				).Scan(&exists)
				if err != nil {
					return fmt.Errorf("check fact_collisions duplicate: %w", err)
				}
				if exists {
					result.Duplicates++
					continue
				}

				batch.Queue(`
					INSERT INTO fact_collisions (
						collision_id, datetime_id, location_id,
						persons_injured, persons_killed, pedestrians_injured, pedestrians_killed,
						cyclists_injured, cyclists_killed, motorists_injured, motorists_killed,
						total_involved, has_injuries, has_fatalities, severity_level,
						contributing_factor_1, contributing_factor_2, contributing_factor_3,
						contributing_factor_4, contributing_factor_5,
						vehicle_type_1, vehicle_type_2, vehicle_type_3, vehicle_type_4, vehicle_type_5,
						latitude, longitude, zip_code,
						on_street_name, off_street_name, cross_street_name,
						data_source, load_run_id
					) VALUES (
						$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
						$16, $17, $18, $19, $20, $21, $22, $23, $24, $25,
						$26, $27, $28, $29, $30, $31, $32, $33
					)`,
					rec.CollisionID, datetimeID, locationID,
					rec.PersonsInjured, rec.PersonsKilled, rec.PedestriansInjured, rec.PedestriansKilled,
					rec.CyclistsInjured, rec.CyclistsKilled, rec.MotoristsInjured, rec.MotoristsKilled,
					rec.TotalInvolved, rec.HasInjuries, rec.HasFatalities, string(rec.SeverityLevel),
					nullIfEmpty(rec.ContributingFactors[0]), nullIfEmpty(rec.ContributingFactors[1]),
					nullIfEmpty(rec.ContributingFactors[2]), nullIfEmpty(rec.ContributingFactors[3]),
					nullIfEmpty(rec.ContributingFactors[4]),
					nullIfEmpty(rec.VehicleTypes[0]), nullIfEmpty(rec.VehicleTypes[1]),
					nullIfEmpty(rec.VehicleTypes[2]), nullIfEmpty(rec.VehicleTypes[3]),
					nullIfEmpty(rec.VehicleTypes[4]),
					rec.Latitude, rec.Longitude, nullIfEmpty(rec.ZipCode),
					nullIfEmpty(rec.OnStreetName), nullIfEmpty(rec.OffStreetName), nullIfEmpty(rec.CrossStreetName),
					dataSource, runID,
				)
				result.Loaded++

				if batch.Len() >= l.cfg.LoadBatchSize {
					if err := flushBatch(ctx, tx, batch); err != nil {
						return err
					}
					batch = &pgx.Batch{}
				}
			}

			return flushBatch(ctx, tx, batch)
		})
	}, &result, "collisions")
	return result, err
}

// withStore opens a pool for the duration of fn and closes it afterwards.
func (l *Loader) withStore(ctx context.Context, fn func(*Store, *DimensionResolver) error, result *LoadResult, fact string) error {
	s, err := Open(ctx, l.cfg, l.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	resolver := NewDimensionResolver(s, l.metrics)
	if err := fn(s, resolver); err != nil {
		// The transaction rolled back; nothing from this call was persisted.
		*result = LoadResult{}
		return err
	}

	if l.metrics != nil {
		l.metrics.FactsLoaded.WithLabelValues(fact).Add(float64(result.Loaded))
		l.metrics.FactsDuplicate.WithLabelValues(fact).Add(float64(result.Duplicates))
		l.metrics.FactsSkipped.WithLabelValues(fact).Add(float64(result.Skipped))
	}
	return nil
}

// inTx runs fn inside a transaction, committing on success and rolling back
// on error.
func (l *Loader) inTx(ctx context.Context, s *Store, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// nullIfEmpty maps empty strings to SQL NULL for the optional text columns.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// flushBatch sends the queued inserts and surfaces the first statement error.
func flushBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close() //nolint:errcheck // insert error takes precedence
			return fmt.Errorf("insert fact row: %w", err)
		}
	}
	return results.Close()
}
