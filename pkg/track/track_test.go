package track

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"orbitcmd/pkg/feed"
)

func seedRing(t *testing.T, capacity int, angles ...float64) *feed.Ring {
	t.Helper()
	r := feed.New(capacity, "")
	base := time.UnixMilli(1700000000000)
	for i, a := range angles {
		r.Append(base.Add(time.Duration(i)*time.Second), a)
	}
	return r
}

func TestLonFromAngle(t *testing.T) {
	tests := []struct {
		angle float64
		want  float64
	}{
		{0, 0},
		{90, 90},
		{179.9, 179.9},
		{180, -180},
		{270, -90},
		{359.9, -0.1},
	}

	for _, tt := range tests {
		got := lonFromAngle(tt.angle)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("lonFromAngle(%v) = %v, want %v", tt.angle, got, tt.want)
		}
	}
}

func TestFeatureCollection_Empty(t *testing.T) {
	b := NewBuilder(seedRing(t, 10), 5)
	fc := b.FeatureCollection()
	if len(fc.Features) != 0 {
		t.Errorf("Expected no features for an empty feed, got %d", len(fc.Features))
	}
}

func TestFeatureCollection(t *testing.T) {
	b := NewBuilder(seedRing(t, 10, 0, 1, 2), 5)
	fc := b.FeatureCollection()

	if len(fc.Features) != 2 {
		t.Fatalf("Expected track + position features, got %d", len(fc.Features))
	}

	trackFeature := fc.Features[0]
	if trackFeature.Properties["kind"] != "ground_track" {
		t.Errorf("Expected ground_track feature first, got %v", trackFeature.Properties["kind"])
	}
	mls, ok := trackFeature.Geometry.(orb.MultiLineString)
	if !ok {
		t.Fatalf("Expected MultiLineString geometry, got %T", trackFeature.Geometry)
	}
	if len(mls) != 1 {
		t.Fatalf("Expected 1 continuous segment, got %d", len(mls))
	}
	if len(mls[0]) != 3 {
		t.Errorf("Expected 3 points in segment, got %d", len(mls[0]))
	}

	marker := fc.Features[1]
	if marker.Properties["kind"] != "current_position" {
		t.Errorf("Expected current_position feature, got %v", marker.Properties["kind"])
	}
	pt, ok := marker.Geometry.(orb.Point)
	if !ok {
		t.Fatalf("Expected Point geometry, got %T", marker.Geometry)
	}
	if pt.Lon() != 2 || pt.Lat() != 0 {
		t.Errorf("Expected marker at (2, 0), got (%v, %v)", pt.Lon(), pt.Lat())
	}
	if marker.Properties["angle"] != 2.0 {
		t.Errorf("Expected marker angle 2.0, got %v", marker.Properties["angle"])
	}
}

func TestFeatureCollection_SplitsAtAntimeridian(t *testing.T) {
	// Crossing 180 degrees flips the longitude sign
	b := NewBuilder(seedRing(t, 10, 177, 178, 179, 181, 182), 10)
	fc := b.FeatureCollection()

	trackFeature := fc.Features[0]
	mls, ok := trackFeature.Geometry.(orb.MultiLineString)
	if !ok {
		t.Fatalf("Expected MultiLineString geometry, got %T", trackFeature.Geometry)
	}
	if len(mls) != 2 {
		t.Fatalf("Expected the track split into 2 segments, got %d", len(mls))
	}
	if len(mls[0]) != 3 {
		t.Errorf("Expected 3 points before the crossing, got %d", len(mls[0]))
	}
	if len(mls[1]) != 2 {
		t.Errorf("Expected 2 points after the crossing, got %d", len(mls[1]))
	}
	if got := mls[1][0].Lon(); got != -179 {
		t.Errorf("Expected first point after crossing at lon -179, got %v", got)
	}
}

func TestFeatureCollection_LimitsTrailingPoints(t *testing.T) {
	b := NewBuilder(seedRing(t, 20, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9), 4)
	fc := b.FeatureCollection()

	trackFeature := fc.Features[0]
	if got := trackFeature.Properties["samples"]; got != 4 {
		t.Errorf("Expected 4 samples drawn, got %v", got)
	}
	mls := trackFeature.Geometry.(orb.MultiLineString)
	if got := mls[0][0].Lon(); got != 6 {
		t.Errorf("Expected trail to start at lon 6, got %v", got)
	}
}

func TestFeatureCollection_Marshal(t *testing.T) {
	b := NewBuilder(seedRing(t, 10, 10, 20, 30), 5)
	data, err := json.Marshal(b.FeatureCollection())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	s := string(data)
	if !strings.Contains(s, `"type":"FeatureCollection"`) {
		t.Errorf("Expected a FeatureCollection, got %s", s)
	}
	if !strings.Contains(s, `"MultiLineString"`) {
		t.Errorf("Expected a MultiLineString geometry, got %s", s)
	}
	if !strings.Contains(s, `"ground_track"`) || !strings.Contains(s, `"current_position"`) {
		t.Errorf("Expected both feature kinds, got %s", s)
	}
}
