// Command etl runs one NYC weather + collision pipeline pass: extract raw
// tables for a date range, clean them, write processed CSV snapshots, and
// load the star schema when a database is configured.
//
// Usage:
//
//	go run ./cmd/etl                                    # latest 30-day window
//	go run ./cmd/etl -start-date 2024-01-01 -end-date 2024-01-07
//	go run ./cmd/etl -historical                        # fixed fallback window
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/AZhuk30/WeatherImpactonCarAccidents/internal/adapter/http"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/adapter/openmeteo"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/adapter/socrata"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/config"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/observability"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/pipeline"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/snapshot"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/store"
)

func main() {
	startDate := flag.String("start-date", "", "range start (YYYY-MM-DD); requires -end-date, omit both for the latest 30-day window")
	endDate := flag.String("end-date", "", "range end (YYYY-MM-DD); requires -start-date")
	historical := flag.Bool("historical", false, "use the fixed fallback date range")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		slog.Error("failed to create data directories", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	start, end, err := resolveRange(cfg, *startDate, *endDate, *historical)
	if err != nil {
		logger.Error("invalid date range", "error", err)
		os.Exit(1)
	}

	weather, err := openmeteo.NewClient(logger, cfg.RawDataDir)
	if err != nil {
		logger.Error("failed to create weather client", "error", err)
		os.Exit(1)
	}
	collisions := socrata.NewClient(cfg.CollisionsAPIURL, cfg.CollisionsLimit, cfg.HTTPTimeout, logger, cfg.RawDataDir)

	var loader pipeline.FactLoader
	if cfg.Database.Enabled() {
		loader = store.NewLoader(cfg.Database, logger, metrics)
	} else {
		logger.Info("no database configured, load phase disabled")
	}

	snapshots := snapshot.NewStore(cfg.ProcessedDataDir)
	orch := pipeline.New(cfg, weather, collisions, loader, snapshots, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, orch, snapshots, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	_, runErr := orch.Run(ctx, start, end)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("pipeline failed", "error", runErr)
		os.Exit(1)
	}
}

// resolveRange turns the date flags into a concrete range. Both flags empty
// leaves the zero times, which the orchestrator fills with the default 30-day
// window; a half-specified range is an error rather than a silent default.
func resolveRange(cfg *config.Config, startDate, endDate string, historical bool) (time.Time, time.Time, error) {
	if historical {
		startDate = cfg.FallbackStartDate
		endDate = cfg.FallbackEndDate
	}
	if (startDate == "") != (endDate == "") {
		return time.Time{}, time.Time{}, errors.New("-start-date and -end-date must be provided together")
	}
	if startDate == "" {
		return time.Time{}, time.Time{}, nil
	}

	start, err := time.ParseInLocation("2006-01-02", startDate, domain.NYCLocation())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, domain.NYCLocation())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
