// Package track renders the recent trajectory as GeoJSON for map display.
package track

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"orbitcmd/pkg/feed"
)

// DefaultPoints is the number of trailing samples drawn when none is configured.
const DefaultPoints = 360

// Builder converts feed samples into a GeoJSON ground track.
type Builder struct {
	ring   *feed.Ring
	points int
}

// NewBuilder creates a track builder reading from ring, keeping up to points
// trailing samples.
func NewBuilder(ring *feed.Ring, points int) *Builder {
	if points < 1 {
		points = DefaultPoints
	}
	return &Builder{ring: ring, points: points}
}

// lonFromAngle maps an along-track angle in [0, 360) to a longitude in
// [-180, 180).
func lonFromAngle(angle float64) float64 {
	if angle >= 180 {
		return angle - 360
	}
	return angle
}

// FeatureCollection builds the ground track from the most recent samples.
// The orbit is equatorial in this model, so latitude is always zero and the
// angle maps directly to longitude. The line is split wherever it crosses
// the antimeridian so map clients do not draw a stroke across the world.
func (b *Builder) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	samples := b.ring.Snapshot()
	if len(samples) > b.points {
		samples = samples[len(samples)-b.points:]
	}
	if len(samples) == 0 {
		return fc
	}

	var segments orb.MultiLineString
	var current orb.LineString
	var prev float64
	for i, s := range samples {
		lon := lonFromAngle(s.Angle)
		if i > 0 && math.Abs(lon-prev) > 180 {
			if len(current) > 1 {
				segments = append(segments, current)
			}
			current = orb.LineString{}
		}
		current = append(current, orb.Point{lon, 0})
		prev = lon
	}
	if len(current) > 1 {
		segments = append(segments, current)
	}

	if len(segments) > 0 {
		f := geojson.NewFeature(segments)
		f.Properties["kind"] = "ground_track"
		f.Properties["samples"] = len(samples)
		fc.Append(f)
	}

	last := samples[len(samples)-1]
	marker := geojson.NewFeature(orb.Point{lonFromAngle(last.Angle), 0})
	marker.Properties["kind"] = "current_position"
	marker.Properties["angle"] = last.Angle
	marker.Properties["timestamp_ms"] = last.TimestampMs
	fc.Append(marker)

	return fc
}
