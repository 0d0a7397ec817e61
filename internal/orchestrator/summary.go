package orchestrator

import (
	"time"

	"github.com/elchinoo/gemini/internal/logging"
)

// StartSummaryTicker periodically logs a heartbeat line for --non-interactive
// runs. It cannot report live operation counts: per the worker concurrency
// model, a running worker's counters are private until it publishes its
// final ProcessResult at termination, so there is nothing to aggregate
// safely mid-run without adding shared mutable state the design forbids.
// Adapted from the teacher's internal/progress.Tracker ticker-driven
// display loop, stripped of the percentage bar since there is no live total
// to render against.
func StartSummaryTicker(logger logging.GeminiLogger, interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		start := time.Now()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				logger.Info("gemini: run in progress", logging.Fields.Duration("elapsed", time.Since(start)))
			}
		}
	}()
}
