package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/observability"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// DimensionResolver maps (local timestamp) and (borough) values to surrogate
// dimension ids with get-or-create semantics. Resolution is idempotent even
// under concurrent creation: the lookup-miss-insert sequence is not atomic
// against a second caller, so an insert that loses the race hits the
// uniqueness constraint and is converted into a re-lookup.
//
// Resolved ids are cached in memory for the lifetime of the resolver, which
// is bounded by a single load call.
type DimensionResolver struct {
	store   *Store
	metrics *observability.Metrics

	datetimeIDs map[string]int64
	locationIDs map[domain.Borough]int64
}

// NewDimensionResolver creates a resolver backed by the given store.
func NewDimensionResolver(s *Store, metrics *observability.Metrics) *DimensionResolver {
	return &DimensionResolver{
		store:       s,
		metrics:     metrics,
		datetimeIDs: make(map[string]int64),
		locationIDs: make(map[domain.Borough]int64),
	}
}

// ResolveDatetime returns the surrogate id for a local timestamp, inserting a
// dimension row with all derived calendar attributes on first sight.
func (r *DimensionResolver) ResolveDatetime(ctx context.Context, local time.Time) (int64, error) {
	key := local.Format("2006-01-02 15:04:05")
	if id, ok := r.datetimeIDs[key]; ok {
		r.lookup("datetime", "hit")
		return id, nil
	}

	id, err := r.resolveDatetimeRow(ctx, local, key)
	if err != nil {
		return 0, err
	}
	r.datetimeIDs[key] = id
	return id, nil
}

// resolveDatetimeRow passes the local timestamp as a formatted string so the
// timestamp column keeps NYC wall-clock time; pgx would otherwise shift a
// zoned time.Time to UTC on encode.
func (r *DimensionResolver) resolveDatetimeRow(ctx context.Context, local time.Time, key string) (int64, error) {
	const lookupSQL = `SELECT datetime_id FROM dim_datetime WHERE local_datetime = $1::timestamp`

	var id int64
	err := r.store.pool.QueryRow(ctx, lookupSQL, key).Scan(&id)
	if err == nil {
		r.lookup("datetime", "hit")
		return id, nil
	}
	if !isNoRows(err) {
		return 0, fmt.Errorf("lookup dim_datetime: %w", err)
	}

	tf := domain.DeriveTimeFeatures(local)
	const insertSQL = `
		INSERT INTO dim_datetime (
			local_datetime, utc_datetime, date, hour, day_of_week, day_of_month,
			month, year, quarter, is_weekend, is_rush_hour, is_night, season
		) VALUES ($1::timestamp, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING datetime_id`

	err = r.store.pool.QueryRow(ctx, insertSQL,
		key, local.UTC(), local.Format("2006-01-02"), tf.Hour, tf.DayOfWeek, tf.DayOfMonth,
		int(tf.Month), tf.Year, tf.Quarter, tf.IsWeekend, tf.IsRushHour, tf.IsNight, string(tf.Season),
	).Scan(&id)
	if err == nil {
		r.lookup("datetime", "insert")
		return id, nil
	}
	if !isUniqueViolation(err) {
		return 0, fmt.Errorf("insert dim_datetime: %w", err)
	}

	// Lost the get-or-create race: another caller inserted the same timestamp
	// between our lookup and insert. The row exists now, so re-read it.
	r.lookup("datetime", "conflict")
	if err := r.store.pool.QueryRow(ctx, lookupSQL, key).Scan(&id); err != nil {
		return 0, fmt.Errorf("re-lookup dim_datetime after conflict: %w", err)
	}
	return id, nil
}

// ResolveLocation returns the surrogate id for a borough, inserting a
// dimension row on first sight. Blank boroughs resolve as UNKNOWN.
func (r *DimensionResolver) ResolveLocation(ctx context.Context, borough domain.Borough) (int64, error) {
	if borough == "" {
		borough = domain.Unknown
	}
	if id, ok := r.locationIDs[borough]; ok {
		r.lookup("location", "hit")
		return id, nil
	}

	id, err := r.resolveLocationRow(ctx, borough)
	if err != nil {
		return 0, err
	}
	r.locationIDs[borough] = id
	return id, nil
}

func (r *DimensionResolver) resolveLocationRow(ctx context.Context, borough domain.Borough) (int64, error) {
	const lookupSQL = `SELECT location_id FROM dim_location WHERE borough = $1`

	var id int64
	err := r.store.pool.QueryRow(ctx, lookupSQL, string(borough)).Scan(&id)
	if err == nil {
		r.lookup("location", "hit")
		return id, nil
	}
	if !isNoRows(err) {
		return 0, fmt.Errorf("lookup dim_location: %w", err)
	}

	const insertSQL = `INSERT INTO dim_location (borough) VALUES ($1) RETURNING location_id`
	err = r.store.pool.QueryRow(ctx, insertSQL, string(borough)).Scan(&id)
	if err == nil {
		r.lookup("location", "insert")
		return id, nil
	}
	if !isUniqueViolation(err) {
		return 0, fmt.Errorf("insert dim_location: %w", err)
	}

	r.lookup("location", "conflict")
	if err := r.store.pool.QueryRow(ctx, lookupSQL, string(borough)).Scan(&id); err != nil {
		return 0, fmt.Errorf("re-lookup dim_location after conflict: %w", err)
	}
	return id, nil
}

func (r *DimensionResolver) lookup(dimension, result string) {
	if r.metrics != nil {
		r.metrics.DimensionLookups.WithLabelValues(dimension, result).Inc()
	}
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
