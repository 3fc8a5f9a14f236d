// Package probe runs startup health checks before the server takes traffic.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// checkTimeout bounds each individual check so one wedged dependency
// cannot hang startup.
const checkTimeout = 5 * time.Second

// CheckFunc performs one health check. It returns nil when healthy.
type CheckFunc func(ctx context.Context) error

// Probe is a named startup check. Critical failures abort startup;
// non-critical failures only warn.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool
}

// Result holds the outcome of a single probe.
type Result struct {
	Name     string
	Critical bool
	Error    error
	Duration time.Duration
}

// Run executes the probes in order and returns their results.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))

	for i, p := range probes {
		start := time.Now()

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{
			Name:     p.Name,
			Critical: p.Critical,
			Error:    err,
			Duration: time.Since(start),
		}
	}

	return results
}

// AnalyzeResults logs a summary and returns a combined error if any
// critical probe failed.
func AnalyzeResults(results []Result) error {
	var criticalErrors []error

	slog.Info("Startup Checks Summary")

	for _, r := range results {
		status := "PASS"
		if r.Error != nil {
			status = "FAIL"
		}
		msg := fmt.Sprintf("[%s] %-20s (%v)", status, r.Name, r.Duration.Round(time.Millisecond))

		switch {
		case r.Error == nil:
			slog.Info(msg)
		case r.Critical:
			slog.Error(msg, "error", r.Error)
			criticalErrors = append(criticalErrors, fmt.Errorf("%s: %w", r.Name, r.Error))
		default:
			slog.Warn(msg, "error", r.Error)
		}
	}

	if len(criticalErrors) > 0 {
		return errors.Join(criticalErrors...)
	}

	return nil
}
