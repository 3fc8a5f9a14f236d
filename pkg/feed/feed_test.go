package feed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRoundAngle(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{12.345678, 12.3457},
		{0.06064, 0.0606},
		{359.99995, 360.0},
		{45.12344999, 45.1234},
	}

	for _, tt := range tests {
		if got := RoundAngle(tt.in); got != tt.want {
			t.Errorf("RoundAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAppend_EvictsOldestAtCapacity(t *testing.T) {
	r := New(5, "")
	base := time.UnixMilli(1700000000000)

	for i := 0; i < 7; i++ {
		r.Append(base.Add(time.Duration(i)*time.Second), float64(i))
	}

	if r.Len() != 5 {
		t.Fatalf("Expected 5 samples, got %d", r.Len())
	}

	samples := r.Snapshot()
	if samples[0].Angle != 2 {
		t.Errorf("Expected oldest surviving angle 2, got %v", samples[0].Angle)
	}
	if samples[4].Angle != 6 {
		t.Errorf("Expected newest angle 6, got %v", samples[4].Angle)
	}
}

func TestAppend_DefaultCapacity(t *testing.T) {
	r := New(0, "")
	if r.Capacity() != DefaultCapacity {
		t.Fatalf("Expected default capacity %d, got %d", DefaultCapacity, r.Capacity())
	}

	base := time.UnixMilli(1700000000000)
	for i := 0; i < DefaultCapacity+1; i++ {
		r.Append(base.Add(time.Duration(i)*time.Second), float64(i%360))
	}

	// The 1001st sample pushed out the very first
	if r.Len() != DefaultCapacity {
		t.Fatalf("Expected %d samples, got %d", DefaultCapacity, r.Len())
	}
	samples := r.Snapshot()
	if samples[0].TimestampMs != base.Add(time.Second).UnixMilli() {
		t.Errorf("Expected first sample to be the second appended, got timestamp %d", samples[0].TimestampMs)
	}
}

func TestSnapshot_Isolated(t *testing.T) {
	r := New(5, "")
	r.Append(time.UnixMilli(1700000000000), 1.0)

	snap := r.Snapshot()
	snap[0].Angle = 999

	if got := r.Snapshot()[0].Angle; got != 1.0 {
		t.Errorf("Snapshot mutation leaked into ring: angle %v", got)
	}
}

func TestLatest(t *testing.T) {
	r := New(5, "")

	if _, ok := r.Latest(); ok {
		t.Error("Expected no latest sample on an empty ring")
	}

	base := time.UnixMilli(1700000000000)
	r.Append(base, 1.0)
	r.Append(base.Add(time.Second), 2.0)

	s, ok := r.Latest()
	if !ok {
		t.Fatal("Expected a latest sample")
	}
	if s.Angle != 2.0 {
		t.Errorf("Expected latest angle 2.0, got %v", s.Angle)
	}
}

func TestMirror(t *testing.T) {
	dir := t.TempDir()
	mirror := filepath.Join(dir, "angle_feed.json")
	r := New(10, mirror)

	base := time.UnixMilli(1700000000000)
	r.Append(base, 0.123456)
	r.Append(base.Add(time.Second), 0.24)

	raw, err := os.ReadFile(mirror)
	if err != nil {
		t.Fatalf("Failed to read mirror: %v", err)
	}

	// Indented array layout for external readers
	if !strings.HasPrefix(string(raw), "[\n  {") {
		t.Errorf("Mirror is not an indented JSON array: %q", string(raw[:min(20, len(raw))]))
	}

	var samples []Sample
	if err := json.Unmarshal(raw, &samples); err != nil {
		t.Fatalf("Mirror is not valid JSON: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("Expected 2 mirrored samples, got %d", len(samples))
	}
	if samples[0].Angle != 0.1235 {
		t.Errorf("Expected rounded angle 0.1235, got %v", samples[0].Angle)
	}
	if samples[0].TimestampMs != 1700000000000 {
		t.Errorf("Expected timestamp 1700000000000, got %d", samples[0].TimestampMs)
	}

	// Field names are part of the external contract
	if !strings.Contains(string(raw), `"timestamp_ms"`) || !strings.Contains(string(raw), `"angle"`) {
		t.Errorf("Mirror missing expected field names: %s", string(raw))
	}
}

func TestMirror_BestEffort(t *testing.T) {
	dir := t.TempDir()
	// A file where the mirror's parent directory should be makes every
	// mirror write fail
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create blocker: %v", err)
	}

	r := New(5, filepath.Join(blocker, "angle_feed.json"))
	r.Append(time.UnixMilli(1700000000000), 1.0)
	r.Append(time.UnixMilli(1700000001000), 2.0)

	// The ring itself must be unaffected
	if r.Len() != 2 {
		t.Errorf("Expected 2 samples despite mirror failure, got %d", r.Len())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	mirror := filepath.Join(dir, "angle_feed.json")

	seed := []Sample{
		{TimestampMs: 1700000000000, Angle: 0.0606},
		{TimestampMs: 1700000001000, Angle: 0.1213},
	}
	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal seed: %v", err)
	}
	if err := os.WriteFile(mirror, data, 0o644); err != nil {
		t.Fatalf("Failed to write seed: %v", err)
	}

	r := New(10, mirror)
	if err := r.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if r.Len() != 2 {
		t.Fatalf("Expected 2 restored samples, got %d", r.Len())
	}
	s, _ := r.Latest()
	if s.Angle != 0.1213 {
		t.Errorf("Expected restored latest angle 0.1213, got %v", s.Angle)
	}
}

func TestLoad_MissingMirror(t *testing.T) {
	r := New(10, filepath.Join(t.TempDir(), "absent.json"))
	if err := r.Load(); err != nil {
		t.Errorf("Expected no error for a missing mirror, got %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty ring, got %d samples", r.Len())
	}
}

func TestLoad_TruncatesToCapacity(t *testing.T) {
	dir := t.TempDir()
	mirror := filepath.Join(dir, "angle_feed.json")

	var seed []Sample
	for i := 0; i < 8; i++ {
		seed = append(seed, Sample{TimestampMs: int64(1700000000000 + i*1000), Angle: float64(i)})
	}
	data, _ := json.Marshal(seed)
	if err := os.WriteFile(mirror, data, 0o644); err != nil {
		t.Fatalf("Failed to write seed: %v", err)
	}

	r := New(5, mirror)
	if err := r.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if r.Len() != 5 {
		t.Fatalf("Expected 5 samples after truncation, got %d", r.Len())
	}
	if got := r.Snapshot()[0].Angle; got != 3 {
		t.Errorf("Expected oldest surviving angle 3, got %v", got)
	}
}
