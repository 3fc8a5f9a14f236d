// Package feed maintains the rolling window of angle samples produced by the
// tick loop. The window is capped: once full, each new sample evicts the
// oldest. A JSON mirror of the window can be kept on disk for external
// visualization tooling.
package feed

import (
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"orbitcmd/internal/metrics"
)

// DefaultCapacity is the number of samples kept when none is configured.
const DefaultCapacity = 1000

// Sample is one angle observation.
type Sample struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Angle       float64 `json:"angle"`
}

// Ring is a fixed-capacity FIFO of angle samples.
// Safe for concurrent use by multiple goroutines.
type Ring struct {
	mu       sync.RWMutex
	samples  []Sample
	capacity int

	mirrorPath    string
	mirrorFailing bool

	logger *slog.Logger
}

// New creates a ring holding up to capacity samples. An empty mirrorPath
// disables the on-disk mirror.
func New(capacity int, mirrorPath string) *Ring {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Ring{
		samples:    make([]Sample, 0, capacity),
		capacity:   capacity,
		mirrorPath: mirrorPath,
		logger:     slog.With("component", "feed"),
	}
}

// RoundAngle truncates an angle to the feed's recorded precision.
func RoundAngle(angle float64) float64 {
	return math.Round(angle*10000) / 10000
}

// Append records one sample and returns it. The angle is rounded to four
// decimal places before storage. When the window is full the oldest sample
// is evicted first.
func (r *Ring) Append(ts time.Time, angle float64) Sample {
	s := Sample{
		TimestampMs: ts.UnixMilli(),
		Angle:       RoundAngle(angle),
	}

	r.mu.Lock()
	if len(r.samples) < r.capacity {
		r.samples = append(r.samples, s)
	} else {
		copy(r.samples, r.samples[1:])
		r.samples[len(r.samples)-1] = s
		metrics.IncFeedDropped()
	}
	n := len(r.samples)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	metrics.SetFeedSamples(n)
	r.mirror(snapshot)
	return s
}

// Snapshot returns a copy of the window, oldest first.
func (r *Ring) Snapshot() []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Ring) snapshotLocked() []Sample {
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Latest returns the most recent sample, if any.
func (r *Ring) Latest() (Sample, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.samples) == 0 {
		return Sample{}, false
	}
	return r.samples[len(r.samples)-1], true
}

// Len returns the number of samples currently held.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.samples)
}

// Capacity returns the configured window size.
func (r *Ring) Capacity() int {
	return r.capacity
}

// Load seeds the window from an existing mirror file. A missing mirror is
// not an error; the window simply starts empty.
func (r *Ring) Load() error {
	if r.mirrorPath == "" {
		return nil
	}

	raw, err := os.ReadFile(r.mirrorPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var samples []Sample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return err
	}
	if len(samples) > r.capacity {
		samples = samples[len(samples)-r.capacity:]
	}

	r.mu.Lock()
	r.samples = append(r.samples[:0], samples...)
	n := len(r.samples)
	r.mu.Unlock()

	metrics.SetFeedSamples(n)
	r.logger.Info("Angle feed restored from mirror", "samples", n)
	return nil
}

// mirror writes the window to disk. Failures are logged once per outage and
// never propagate: the mirror is strictly best-effort.
func (r *Ring) mirror(samples []Sample) {
	if r.mirrorPath == "" {
		return
	}

	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		r.noteMirrorError(err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.mirrorPath), 0o755); err != nil {
		r.noteMirrorError(err)
		return
	}
	if err := os.WriteFile(r.mirrorPath, data, 0o644); err != nil {
		r.noteMirrorError(err)
		return
	}

	r.mu.Lock()
	r.mirrorFailing = false
	r.mu.Unlock()
}

func (r *Ring) noteMirrorError(err error) {
	r.mu.Lock()
	wasFailing := r.mirrorFailing
	r.mirrorFailing = true
	r.mu.Unlock()

	// The tick loop appends every second; one line per outage is enough.
	if !wasFailing {
		r.logger.Warn("Failed to write feed mirror", "path", r.mirrorPath, "error", err)
	}
}
