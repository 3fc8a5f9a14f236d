package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orbitcmd/pkg/feed"
	"orbitcmd/pkg/track"
)

func TestHandleTrack(t *testing.T) {
	ring := feed.New(1000, "")
	base := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)
	for i, angle := range []float64{10, 20, 30} {
		ring.Append(base.Add(time.Duration(i)*time.Second), angle)
	}
	handler := NewTrackHandler(track.NewBuilder(ring, 360))

	req := httptest.NewRequest("GET", "/api/track", http.NoBody)
	w := httptest.NewRecorder()
	handler.HandleTrack(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("StatusCode: got %v, want %v", w.Code, http.StatusOK)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(w.Body).Decode(&fc); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if fc.Type != "FeatureCollection" {
		t.Errorf("type: got %q, want FeatureCollection", fc.Type)
	}

	kinds := make(map[string]string)
	for _, f := range fc.Features {
		if kind, ok := f.Properties["kind"].(string); ok {
			kinds[kind] = f.Geometry.Type
		}
	}
	if kinds["ground_track"] != "MultiLineString" {
		t.Errorf("ground_track geometry: got %q, want MultiLineString", kinds["ground_track"])
	}
	if kinds["current_position"] != "Point" {
		t.Errorf("current_position geometry: got %q, want Point", kinds["current_position"])
	}
}
