// Package burn validates and installs velocity-change commands.
package burn

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"orbitcmd/pkg/logging"
	"orbitcmd/pkg/model"
	"orbitcmd/pkg/store"
)

// MaxDuration is the longest burn a single command may request, in seconds.
const MaxDuration = 60

// Request is a burn command as submitted by a client.
type Request struct {
	DVX      float64 `json:"dvx"`
	DVY      float64 `json:"dvy"`
	Duration int     `json:"duration"`
}

// Scheduler validates burn requests and writes them into the telemetry store.
type Scheduler struct {
	store  store.Store
	logger *slog.Logger
}

// NewScheduler creates a new burn Scheduler.
func NewScheduler(s store.Store) *Scheduler {
	return &Scheduler{
		store:  s,
		logger: slog.With("component", "burn_scheduler"),
	}
}

// Validate checks a request without touching any state.
func Validate(req Request) error {
	if math.IsNaN(req.DVX) || math.IsInf(req.DVX, 0) ||
		math.IsNaN(req.DVY) || math.IsInf(req.DVY, 0) {
		return fmt.Errorf("%w: dvx and dvy must be finite numbers", ErrInvalidInput)
	}
	if req.Duration < 1 || req.Duration > MaxDuration {
		return fmt.Errorf("%w: duration must be between 1 and %d seconds, got %d", ErrInvalidDuration, MaxDuration, req.Duration)
	}
	return nil
}

// Schedule installs a burn. A new command replaces any burn already in
// progress outright; rates are never merged. On success it returns the
// updated telemetry snapshot and the recorded command.
//
// The audit log and command history are best-effort: the burn stands even
// if either write fails.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (*model.Telemetry, *model.Command, error) {
	if err := Validate(req); err != nil {
		return nil, nil, err
	}

	cmd := &model.Command{
		ID:         uuid.New().String(),
		DVX:        req.DVX,
		DVY:        req.DVY,
		Duration:   req.Duration,
		ReceivedAt: time.Now().UTC(),
	}

	snapshot, err := s.store.Update(ctx, func(t *model.Telemetry) error {
		t.Phase = model.PhaseBurning
		t.Burn = &model.Burn{
			RateX:     req.DVX / float64(req.Duration),
			RateY:     req.DVY / float64(req.Duration),
			Remaining: req.Duration,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logging.LogBurn(cmd)
	if err := s.store.RecordCommand(ctx, cmd); err != nil {
		s.logger.Warn("Failed to record command history", "id", cmd.ID, "error", err)
	}

	s.logger.Info("Burn scheduled",
		"id", cmd.ID,
		"dvx", req.DVX,
		"dvy", req.DVY,
		"duration", req.Duration,
		"rate_x", snapshot.Burn.RateX,
		"rate_y", snapshot.Burn.RateY)

	return snapshot, cmd, nil
}
