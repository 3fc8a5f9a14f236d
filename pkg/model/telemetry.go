// Package model defines the telemetry record shared between the command
// service and the propagation engine.
package model

import (
	"fmt"
	"math"
	"time"
)

// Physical constants of the simplified circular-orbit model.
const (
	// GM is Earth's standard gravitational parameter in km^3/s^2.
	GM = 398600.4418
	// EarthRadius is the mean Earth radius in km.
	EarthRadius = 6371.0
)

// DefaultAltitude is the bootstrap altitude in km above the surface.
const DefaultAltitude = 500.0

// Phase represents the burn lifecycle stage of the spacecraft.
type Phase string

const (
	// PhaseIdle indicates no burn has ever been applied.
	PhaseIdle Phase = "idle"
	// PhaseBurning indicates a burn is in progress.
	PhaseBurning Phase = "burning"
	// PhaseStable indicates at least one burn has run to completion.
	PhaseStable Phase = "stable"
)

// Burn holds the parameters of an in-progress burn. The scheduler divides
// the requested delta-v evenly over the duration; Remaining counts the
// ticks still to be applied.
type Burn struct {
	RateX     float64 // km/s added to vx per tick
	RateY     float64 // km/s added to vy per tick
	Remaining int     // ticks left
}

// Telemetry is the full spacecraft state record.
//
// Burn is non-nil exactly when Phase is PhaseBurning; the JSON document
// round-trip preserves that pairing and rejects documents that violate it.
type Telemetry struct {
	VX       float64 // km/s
	VY       float64 // km/s
	Radius   float64 // km from body center
	Altitude float64 // km above surface
	Angle    float64 // degrees, [0, 360)
	Phase    Phase
	Burn     *Burn
}

// Default returns the bootstrap record used when no prior state exists.
func Default() *Telemetry {
	return &Telemetry{
		VX:       7.5,
		VY:       0,
		Radius:   EarthRadius + DefaultAltitude,
		Altitude: DefaultAltitude,
		Angle:    0,
		Phase:    PhaseIdle,
	}
}

// Speed returns the scalar velocity magnitude in km/s.
func (t *Telemetry) Speed() float64 {
	return math.Hypot(t.VX, t.VY)
}

// Status renders the human-readable status string stored in the document.
func (t *Telemetry) Status() string {
	switch t.Phase {
	case PhaseBurning:
		if t.Burn == nil {
			return "Burning"
		}
		return fmt.Sprintf("Burning: %ds remaining", t.Burn.Remaining)
	case PhaseStable:
		return "Stable"
	default:
		return "Idle"
	}
}

// Clone returns a deep copy, so callers can hand out snapshots without
// sharing the Burn pointer.
func (t *Telemetry) Clone() *Telemetry {
	c := *t
	if t.Burn != nil {
		b := *t.Burn
		c.Burn = &b
	}
	return &c
}

// Command records one accepted burn command for the history log.
type Command struct {
	ID         string    `json:"id"`
	DVX        float64   `json:"dvx"`
	DVY        float64   `json:"dvy"`
	Duration   int       `json:"duration"`
	ReceivedAt time.Time `json:"received_at"`
}
