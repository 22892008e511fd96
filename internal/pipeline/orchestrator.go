// Package pipeline sequences the batch ETL run: extract raw weather and
// collision tables, clean them, persist processed snapshots, and load the
// fact tables. The orchestrator owns run-level bookkeeping: run identifiers,
// phase timing, the summary, and failure containment between phases.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/config"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/observability"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/snapshot"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/store"
)

// WeatherExtractor fetches raw hourly weather rows for a date range.
type WeatherExtractor interface {
	ExtractWeather(ctx context.Context, start, end time.Time) ([]domain.RawWeatherRow, error)
}

// CollisionExtractor fetches raw collision rows for a date range.
type CollisionExtractor interface {
	ExtractCollisions(ctx context.Context, start, end time.Time) ([]domain.RawCollisionRow, error)
}

// FactLoader loads cleaned rows into the relational store.
type FactLoader interface {
	LoadWeather(ctx context.Context, runID string, observations []domain.WeatherObservation) (store.LoadResult, error)
	LoadCollisions(ctx context.Context, runID string, records []domain.CollisionRecord) (store.LoadResult, error)
}

// Orchestrator runs the extract-transform-load sequence for one date range.
type Orchestrator struct {
	cfg        *config.Config
	weather    WeatherExtractor
	collisions CollisionExtractor
	loader     FactLoader // nil skips the load phase
	snapshots  *snapshot.Store
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	ready      atomic.Bool
}

// New creates an Orchestrator. A nil loader disables the load phase; the run
// then relies on CSV snapshots alone.
func New(cfg *config.Config, weather WeatherExtractor, collisions CollisionExtractor, loader FactLoader,
	snapshots *snapshot.Store, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		weather:    weather,
		collisions: collisions,
		loader:     loader,
		snapshots:  snapshots,
		logger:     logger,
		metrics:    metrics,
		clock:      clockwork.NewRealClock(),
	}
}

// SetClock replaces the orchestrator's clock. Tests use this to fix run ids.
func (o *Orchestrator) SetClock(c clockwork.Clock) {
	o.clock = c
}

// CheckReadiness returns nil once a run has written a snapshot pair, or an
// error describing why the service is not yet ready.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("pipeline has not produced a snapshot pair yet")
	}
	return nil
}

// Run executes one pipeline run over [start, end] (dates, end inclusive).
// Zero start and end select the most recent complete 30-day window in NYC
// local time. Extraction failure triggers one fallback attempt against the
// configured historical window; load failure is reported in the summary but
// does not fail the run.
func (o *Orchestrator) Run(ctx context.Context, start, end time.Time) (*Summary, error) {
	if start.IsZero() || end.IsZero() {
		start, end = domain.DefaultDateRange()
	}

	runID := o.clock.Now().Format("20060102_150405")
	logger := o.logger.With("run_id", runID)
	logger.Info("pipeline run starting",
		"start_date", start.Format("2006-01-02"),
		"end_date", end.Format("2006-01-02"))

	o.metrics.PipelineRunning.Set(1)
	defer o.metrics.PipelineRunning.Set(0)

	summary, err := o.run(ctx, logger, runID, start, end)
	if err != nil {
		o.metrics.PipelineRuns.WithLabelValues("failure").Inc()
		o.writeErrorReport(logger, runID, start, end, err)
		return nil, err
	}

	o.metrics.PipelineRuns.WithLabelValues("success").Inc()
	logger.Info("pipeline run complete",
		"weather_records", summary.WeatherRecords,
		"collision_records", summary.CollisionRecords,
		"load_status", summary.LoadStatus)
	return summary, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, runID string, start, end time.Time) (*Summary, error) {
	rawWeather, rawCollisions, start, end, err := o.extract(ctx, logger, start, end)
	if err != nil {
		return nil, err
	}

	observations, records := o.transform(logger, rawWeather, rawCollisions)

	pair, err := o.writeSnapshots(logger, runID, observations, records)
	if err != nil {
		return nil, err
	}
	o.ready.Store(true)

	summary := newSummary(runID, start, end, observations, records)
	summary.Snapshots = pair

	o.load(ctx, logger, runID, observations, records, summary)

	if path, err := summary.writeFile(o.cfg.LogsDir); err != nil {
		logger.Warn("write summary file failed", "error", err)
	} else {
		logger.Info("summary written", "path", path)
	}

	return summary, nil
}

// extract fetches both raw tables, falling back once to the configured
// historical window when either source fails. Returns the range actually
// extracted.
func (o *Orchestrator) extract(ctx context.Context, logger *slog.Logger, start, end time.Time) (
	[]domain.RawWeatherRow, []domain.RawCollisionRow, time.Time, time.Time, error) {

	done := o.timePhase("extract")
	defer done()

	rawWeather, rawCollisions, err := o.extractRange(ctx, start, end)
	if err == nil {
		o.countExtracted(len(rawWeather), len(rawCollisions))
		return rawWeather, rawCollisions, start, end, nil
	}

	logger.Error("extraction failed, trying fallback window", "error", err,
		"fallback_start", o.cfg.FallbackStartDate, "fallback_end", o.cfg.FallbackEndDate)

	fbStart, fbEnd, fbErr := o.fallbackRange()
	if fbErr != nil {
		return nil, nil, start, end, fmt.Errorf("extraction failed: %w", err)
	}

	rawWeather, rawCollisions, fbErr = o.extractRange(ctx, fbStart, fbEnd)
	if fbErr != nil {
		return nil, nil, start, end, fmt.Errorf("extraction failed (fallback also failed: %v): %w", fbErr, err)
	}

	o.countExtracted(len(rawWeather), len(rawCollisions))
	return rawWeather, rawCollisions, fbStart, fbEnd, nil
}

func (o *Orchestrator) extractRange(ctx context.Context, start, end time.Time) (
	[]domain.RawWeatherRow, []domain.RawCollisionRow, error) {

	rawWeather, err := o.weather.ExtractWeather(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("extract weather: %w", err)
	}
	rawCollisions, err := o.collisions.ExtractCollisions(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("extract collisions: %w", err)
	}
	return rawWeather, rawCollisions, nil
}

func (o *Orchestrator) fallbackRange() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", o.cfg.FallbackStartDate, domain.NYCLocation())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse fallback start date: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", o.cfg.FallbackEndDate, domain.NYCLocation())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse fallback end date: %w", err)
	}
	return start, end, nil
}

func (o *Orchestrator) countExtracted(weather, collisions int) {
	o.metrics.RowsExtracted.WithLabelValues("weather").Add(float64(weather))
	o.metrics.RowsExtracted.WithLabelValues("collisions").Add(float64(collisions))
}

func (o *Orchestrator) transform(logger *slog.Logger, rawWeather []domain.RawWeatherRow, rawCollisions []domain.RawCollisionRow) (
	[]domain.WeatherObservation, []domain.CollisionRecord) {

	done := o.timePhase("transform")
	defer done()

	observations := domain.CleanWeatherRows(rawWeather)
	records := domain.CleanCollisionRows(rawCollisions)

	o.metrics.RowsCleaned.WithLabelValues("weather").Add(float64(len(observations)))
	o.metrics.RowsCleaned.WithLabelValues("collisions").Add(float64(len(records)))

	logger.Info("transformation complete",
		"weather_in", len(rawWeather), "weather_out", len(observations),
		"collisions_in", len(rawCollisions), "collisions_out", len(records))
	return observations, records
}

// writeSnapshots persists the processed pair. Snapshot failure is fatal: the
// pair is the load-independent contract downstream consumers read.
func (o *Orchestrator) writeSnapshots(logger *slog.Logger, runID string,
	observations []domain.WeatherObservation, records []domain.CollisionRecord) (snapshot.Pair, error) {

	weatherPath, err := o.snapshots.WriteWeather(runID, observations)
	if err != nil {
		return snapshot.Pair{}, fmt.Errorf("write weather snapshot: %w", err)
	}
	collisionsPath, err := o.snapshots.WriteCollisions(runID, records)
	if err != nil {
		return snapshot.Pair{}, fmt.Errorf("write collisions snapshot: %w", err)
	}

	logger.Info("snapshots written", "weather", weatherPath, "collisions", collisionsPath)
	return snapshot.Pair{RunID: runID, Weather: weatherPath, Collisions: collisionsPath}, nil
}

// load runs the load phase and records its outcome on the summary. Store
// failures are contained here: the run already has its snapshots.
func (o *Orchestrator) load(ctx context.Context, logger *slog.Logger, runID string,
	observations []domain.WeatherObservation, records []domain.CollisionRecord, summary *Summary) {

	if o.loader == nil {
		summary.LoadStatus = LoadSkipped
		logger.Info("load phase skipped: no store configured")
		return
	}

	done := o.timePhase("load")
	defer done()

	weatherResult, err := o.loader.LoadWeather(ctx, runID, observations)
	if err != nil {
		summary.LoadStatus = LoadFailed
		summary.LoadError = err.Error()
		logger.Error("weather load failed, continuing without store", "error", err)
		return
	}
	summary.WeatherLoad = weatherResult

	collisionResult, err := o.loader.LoadCollisions(ctx, runID, records)
	if err != nil {
		summary.LoadStatus = LoadFailed
		summary.LoadError = err.Error()
		logger.Error("collision load failed, continuing without store", "error", err)
		return
	}
	summary.CollisionLoad = collisionResult

	summary.LoadStatus = LoadSucceeded
	logger.Info("load complete",
		"weather_loaded", weatherResult.Loaded, "weather_duplicates", weatherResult.Duplicates,
		"collisions_loaded", collisionResult.Loaded, "collisions_duplicates", collisionResult.Duplicates)
}

func (o *Orchestrator) timePhase(phase string) func() {
	start := o.clock.Now()
	return func() {
		o.metrics.PhaseDuration.WithLabelValues(phase).Observe(o.clock.Since(start).Seconds())
	}
}
