// Package socrata extracts NYC motor vehicle collision records from the NYC
// Open Data Socrata CSV endpoint.
package socrata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/domain"
)

// Client fetches raw collision CSV data for a date range.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limit      int
	rawDir     string
	logger     *slog.Logger
	maxRetries uint64
}

// NewClient creates a collisions extraction client. Raw responses are cached
// under rawDir; pass an empty rawDir to disable caching.
func NewClient(baseURL string, limit int, timeout time.Duration, logger *slog.Logger, rawDir string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limit:      limit,
		rawDir:     rawDir,
		logger:     logger,
		maxRetries: 5,
	}
}

// ExtractCollisions fetches collision rows whose crash_date falls between
// start and end (inclusive).
func (c *Client) ExtractCollisions(ctx context.Context, start, end time.Time) ([]domain.RawCollisionRow, error) {
	params := url.Values{
		"$limit": {strconv.Itoa(c.limit)},
		"$where": {fmt.Sprintf("crash_date between '%s' and '%s'",
			start.Format("2006-01-02"), end.Format("2006-01-02"))},
	}

	body, err := c.fetchWithRetry(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch collisions: %w", err)
	}

	if err := c.saveRaw(body, start, end); err != nil {
		c.logger.Warn("save raw collisions cache failed", "error", err)
	}

	rows, err := DecodeCSV(body)
	if err != nil {
		return nil, fmt.Errorf("decode collisions CSV: %w", err)
	}

	c.logger.Info("collisions extraction complete", "rows", len(rows))
	return rows, nil
}

// fetchWithRetry performs the GET, retrying network errors and 5xx responses
// with exponential backoff. 4xx responses are permanent failures.
func (c *Client) fetchWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("socrata API error: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("socrata API error: status %d: %s", resp.StatusCode, data))
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx))
	return body, err
}

func (c *Client) saveRaw(body []byte, start, end time.Time) error {
	if c.rawDir == "" {
		return nil
	}
	name := fmt.Sprintf("collisions_%s_to_%s.csv", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return os.WriteFile(filepath.Join(c.rawDir, name), body, 0o644)
}
