package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/snapshot"
	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/store"
)

// LoadStatus reports how the load phase of a run ended.
type LoadStatus string

const (
	LoadSkipped   LoadStatus = "SKIPPED"
	LoadSucceeded LoadStatus = "SUCCESS"
	LoadFailed    LoadStatus = "FAILED"
)

// Summary is the structured record of one pipeline run.
type Summary struct {
	RunID     string
	StartDate time.Time
	EndDate   time.Time
	Days      int

	WeatherRecords   int
	CollisionRecords int
	WeatherPerDay    float64
	CollisionsPerDay float64

	WeatherByBorough   map[domain.Borough]int
	CollisionByBorough map[domain.Borough]int

	Snapshots snapshot.Pair

	LoadStatus    LoadStatus
	WeatherLoad   store.LoadResult
	CollisionLoad store.LoadResult
	LoadError     string
}

func newSummary(runID string, start, end time.Time, observations []domain.WeatherObservation, records []domain.CollisionRecord) *Summary {
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	s := &Summary{
		RunID:              runID,
		StartDate:          start,
		EndDate:            end,
		Days:               days,
		WeatherRecords:     len(observations),
		CollisionRecords:   len(records),
		WeatherPerDay:      float64(len(observations)) / float64(days),
		CollisionsPerDay:   float64(len(records)) / float64(days),
		WeatherByBorough:   make(map[domain.Borough]int),
		CollisionByBorough: make(map[domain.Borough]int),
	}
	for _, obs := range observations {
		s.WeatherByBorough[obs.Borough]++
	}
	for _, rec := range records {
		s.CollisionByBorough[rec.Borough]++
	}
	return s
}

// TotalRecords is the combined cleaned row count of the run.
func (s *Summary) TotalRecords() int {
	return s.WeatherRecords + s.CollisionRecords
}

// writeFile renders the summary as the run's plain-text report and returns
// the file path.
func (s *Summary) writeFile(dir string) (string, error) {
	path := filepath.Join(dir, "pipeline_summary_"+s.RunID+".txt")

	var b strings.Builder
	rule := strings.Repeat("=", 60) + "\n"

	b.WriteString("ETL Pipeline Summary - Run ID: " + s.RunID + "\n")
	b.WriteString(rule)
	fmt.Fprintf(&b, "%-25s: %s to %s (%d days)\n", "Date Range",
		s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.Days)
	fmt.Fprintf(&b, "%-25s: %d (%.1f/day)\n", "Weather Records", s.WeatherRecords, s.WeatherPerDay)
	fmt.Fprintf(&b, "%-25s: %d (%.1f/day)\n", "Collision Records", s.CollisionRecords, s.CollisionsPerDay)
	fmt.Fprintf(&b, "%-25s: %d\n", "Total Records", s.TotalRecords())
	fmt.Fprintf(&b, "%-25s: %s\n", "Database Load", s.LoadStatus)
	if s.LoadError != "" {
		fmt.Fprintf(&b, "%-25s: %s\n", "Load Error", s.LoadError)
	}
	if s.LoadStatus == LoadSucceeded {
		fmt.Fprintf(&b, "%-25s: loaded=%d duplicates=%d skipped=%d\n", "Weather Facts",
			s.WeatherLoad.Loaded, s.WeatherLoad.Duplicates, s.WeatherLoad.Skipped)
		fmt.Fprintf(&b, "%-25s: loaded=%d duplicates=%d skipped=%d\n", "Collision Facts",
			s.CollisionLoad.Loaded, s.CollisionLoad.Duplicates, s.CollisionLoad.Skipped)
	}
	fmt.Fprintf(&b, "%-25s: %s\n", "Weather Snapshot", s.Snapshots.Weather)
	fmt.Fprintf(&b, "%-25s: %s\n", "Collisions Snapshot", s.Snapshots.Collisions)

	b.WriteString("\n" + rule)
	b.WriteString("RECORDS PER BOROUGH\n")
	b.WriteString(rule)
	b.WriteString("\nWEATHER:\n")
	writeBoroughCounts(&b, s.WeatherByBorough)
	b.WriteString("\nCOLLISIONS:\n")
	writeBoroughCounts(&b, s.CollisionByBorough)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write summary %s: %w", path, err)
	}
	return path, nil
}

// writeBoroughCounts lists counts in the canonical borough order, UNKNOWN
// last, omitting zero-count boroughs.
func writeBoroughCounts(b *strings.Builder, counts map[domain.Borough]int) {
	for _, borough := range append(append([]domain.Borough{}, domain.Boroughs...), domain.Unknown) {
		if n, ok := counts[borough]; ok && n > 0 {
			fmt.Fprintf(b, "  %s: %d\n", borough, n)
		}
	}
}

// writeErrorReport records a failed run's triggering condition and the range
// attempted. Best effort: a report write failure is only logged.
func (o *Orchestrator) writeErrorReport(logger *slog.Logger, runID string, start, end time.Time, runErr error) {
	path := filepath.Join(o.cfg.LogsDir, "pipeline_error_"+runID+".txt")

	var b strings.Builder
	b.WriteString("Pipeline Error - Run ID: " + runID + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Error: %s\n", runErr)
	fmt.Fprintf(&b, "Date Range: %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Fprintf(&b, "Timestamp: %s\n", o.clock.Now().Format(time.RFC3339))

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		logger.Warn("write error report failed", "error", err)
		return
	}
	logger.Info("error report written", "path", path)
}
