package api

import (
	"net/http"

	"orbitcmd/pkg/track"
)

// TrackHandler serves the projected ground track as GeoJSON.
type TrackHandler struct {
	builder *track.Builder
}

func NewTrackHandler(b *track.Builder) *TrackHandler {
	return &TrackHandler{builder: b}
}

// HandleTrack returns a FeatureCollection with the ground-track line and
// the current position marker.
// GET /api/track
func (h *TrackHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.builder.FeatureCollection())
}
