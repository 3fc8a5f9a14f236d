// Package engine drives the one-second propagation loop.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"orbitcmd/internal/metrics"
	"orbitcmd/pkg/feed"
	"orbitcmd/pkg/logging"
	"orbitcmd/pkg/model"
	"orbitcmd/pkg/orbit"
	"orbitcmd/pkg/store"
)

// Engine advances the persisted telemetry once per interval and records the
// resulting angle in the feed.
type Engine struct {
	store    store.TelemetryStore
	ring     *feed.Ring
	interval time.Duration
	logger   *slog.Logger

	ticks   atomic.Int64
	skipped atomic.Int64

	// Touched only from the loop goroutine.
	storeDown bool
}

// New creates a propagation engine.
func New(s store.TelemetryStore, ring *feed.Ring, interval time.Duration) *Engine {
	return &Engine{
		store:    s,
		ring:     ring,
		interval: interval,
		logger:   slog.With("component", "engine"),
	}
}

// Run executes the tick loop. It blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	interval := e.interval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("Propagation engine started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Propagation engine stopped", "ticks", e.ticks.Load())
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick applies one propagation step. A store failure skips the step; the
// loop keeps running and retries on the next interval.
func (e *Engine) tick(ctx context.Context) {
	var completed bool
	tel, err := e.store.Update(ctx, func(t *model.Telemetry) error {
		wasBurning := t.Phase == model.PhaseBurning
		orbit.Advance(t)
		completed = wasBurning && t.Phase == model.PhaseStable
		return nil
	})
	if err != nil {
		e.skipped.Add(1)
		metrics.IncTickSkipped()
		if !e.storeDown {
			e.storeDown = true
			e.logger.Warn("Tick skipped, store unavailable", "error", err)
		} else {
			e.logger.Debug("Tick skipped, store still unavailable", "error", err)
		}
		return
	}

	if e.storeDown {
		e.storeDown = false
		e.logger.Info("Store available again, resuming ticks")
	}

	e.ticks.Add(1)
	metrics.IncTick()
	metrics.SetOrbitState(tel.Angle, tel.Radius, tel.Altitude, tel.Speed())

	if completed {
		metrics.IncBurnCompleted()
		e.logger.Info("Burn complete", "vx", tel.VX, "vy", tel.VY, "altitude", tel.Altitude)
	}

	e.ring.Append(time.Now(), tel.Angle)

	logging.Trace(e.logger, "Tick applied",
		"angle", tel.Angle,
		"vx", tel.VX,
		"vy", tel.VY,
		"altitude", tel.Altitude,
		"status", tel.Status())
}

// Ticks returns the number of applied propagation steps.
func (e *Engine) Ticks() int64 {
	return e.ticks.Load()
}

// Skipped returns the number of steps lost to store failures.
func (e *Engine) Skipped() int64 {
	return e.skipped.Load()
}
