package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/medalist/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o640
)

// Defaults applied to zero Config fields.
const (
	defaultAthletes   = 100
	defaultPerAthlete = 4
	defaultBatchSize  = 50
	defaultWorkers    = 4
	defaultTimeout    = 30 * time.Second
)

// ErrAllBatchesFailed is returned when no batch reached the server.
var ErrAllBatchesFailed = errors.New("all batches failed")

// Run executes a complete load run: generate, import athletes, import
// performances, then verify the listed medals against the criteria.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	applyDefaults(config)
	stats := &Stats{
		StartTime:    time.Now(),
		ErrorsByKind: make(map[string]int),
		MedalsByTier: make(map[string]int),
	}
	log := logger.Get().Named("loadgen")

	log.Info(ctx, "starting medalist load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("athletes", config.Athletes),
		logger.Int("perAthlete", config.PerAthlete),
		logger.Int("batchSize", config.BatchSize),
		logger.Int("workers", config.Workers),
		logger.Bool("force", config.Force))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	athletes, err := generateAthletes(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("athlete generation failed: %w", err)
	}
	perfs, err := generatePerformances(ctx, config, athletes, stats)
	if err != nil {
		return stats, fmt.Errorf("performance generation failed: %w", err)
	}

	// Performances resolve athletes, so every athlete batch must land first.
	err = submitBatches(ctx, client, config, stats, "/athletes", "athletes", len(athletes), nil, func(lo, hi int) ([]byte, error) {
		return athletesCSV(athletes[lo:hi])
	})
	if err != nil {
		return stats, fmt.Errorf("athlete import failed: %w", err)
	}

	form := url.Values{"force": {strconv.FormatBool(config.Force)}}
	err = submitBatches(ctx, client, config, stats, "/performances", "performances", len(perfs), form, func(lo, hi int) ([]byte, error) {
		return performancesCSV(perfs[lo:hi])
	})
	if err != nil {
		return stats, fmt.Errorf("performance import failed: %w", err)
	}

	if err := verifyResults(ctx, client, config, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	if config.OutputDir != "" {
		if err := saveInputs(ctx, config, athletes, perfs); err != nil {
			log.Warn(ctx, "failed to save generated files", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

func applyDefaults(c *Config) {
	if c.Athletes <= 0 {
		c.Athletes = defaultAthletes
	}
	if c.PerAthlete <= 0 {
		c.PerAthlete = defaultPerAthlete
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ReferenceAt.IsZero() {
		c.ReferenceAt = time.Now().UTC()
	}
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")
	if err := client.getJSON(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// submitBatches uploads n rows in BatchSize chunks with at most Workers
// uploads in flight. Failed uploads are counted; the phase fails only when
// every batch failed.
func submitBatches(ctx context.Context, client *HTTPClient, config *Config, stats *Stats,
	path, name string, n int, form url.Values, render func(lo, hi int) ([]byte, error),
) error {
	batches := chunk(n, config.BatchSize)
	logger.Get().Info(ctx, "submitting batches",
		logger.String("path", path),
		logger.Int("batches", len(batches)),
		logger.Int("workers", config.Workers))

	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			data, err := render(b[0], b[1])
			if err != nil {
				return err
			}
			res, err := client.upload(gctx, path, fmt.Sprintf("%s-%d.csv", name, i+1), data, form)

			mu.Lock()
			defer mu.Unlock()
			stats.BatchesSubmitted++
			if err != nil {
				failed++
				stats.BatchesFailed++
				logger.Get().Warn(gctx, "batch failed", logger.String("path", path), logger.Int("batch", i+1), logger.Error(err))
				return nil
			}
			recordBatch(stats, res)
			if config.Verbose {
				logger.Get().Info(gctx, "batch imported",
					logger.String("path", path),
					logger.String("batchId", res.BatchID),
					logger.Int("succeeded", res.SuccessCount),
					logger.Int("failed", res.ErrorCount))
			}
			if config.OutputDir != "" && res.ErrorCount > 0 {
				if err := writeFile(config.OutputDir, "errors-"+res.BatchID+".csv", []byte(res.ErrorReport)); err != nil {
					logger.Get().Warn(gctx, "failed to save error report", logger.Error(err))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(batches) > 0 && failed == len(batches) {
		return ErrAllBatchesFailed
	}
	return nil
}

func recordBatch(stats *Stats, res *importResult) {
	stats.RowsSucceeded += res.SuccessCount
	stats.RowsFailed += res.ErrorCount
	for _, e := range res.Errors {
		stats.ErrorsByKind[e.Kind]++
	}
}

// saveInputs writes the generated files to OutputDir.
func saveInputs(ctx context.Context, config *Config, athletes []athlete, perfs []performanceRow) error {
	a, err := athletesCSV(athletes)
	if err != nil {
		return err
	}
	if err := writeFile(config.OutputDir, "athletes.csv", a); err != nil {
		return err
	}
	p, err := performancesCSV(perfs)
	if err != nil {
		return err
	}
	if err := writeFile(config.OutputDir, "performances.csv", p); err != nil {
		return err
	}
	logger.Get().Info(ctx, "generated files saved", logger.String("dir", config.OutputDir))
	return nil
}

func writeFile(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, rowsPerSecond float64
	total := stats.RowsSucceeded + stats.RowsFailed
	if total > 0 {
		successRate = float64(stats.RowsSucceeded) / float64(total) * 100
	}
	if stats.Duration > 0 {
		rowsPerSecond = float64(total) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("athletesGenerated", stats.AthletesGenerated),
		logger.Int("performancesGenerated", stats.PerformancesGenerated),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("rowsSucceeded", stats.RowsSucceeded),
		logger.Int("rowsFailed", stats.RowsFailed),
		logger.Any("errorsByKind", stats.ErrorsByKind),
		logger.Any("medalsByTier", stats.MedalsByTier),
		logger.Int("performancesVerified", stats.PerformancesVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("rowsPerSecond", rowsPerSecond))
}
