// Package orbit implements the per-tick propagation step of the
// simplified 2D orbital model.
//
// The model is a toy: radius is derived directly from speed via the
// circular-orbit relation r = GM/v^2, so thrust that raises speed lowers
// the orbit. There is no real integration and no conservation of energy;
// the step is exactly reproducible from the previous record.
package orbit

import (
	"math"

	"orbitcmd/pkg/model"
)

const degPerRad = 180.0 / math.Pi

// Advance applies one simulation tick to the record in place.
//
// Order matters: the burn (if any) adjusts velocity first, then radius and
// altitude are derived from the new speed, then the angle advances using
// the new speed over the new radius. A zero-speed record is frozen except
// for angle normalization.
func Advance(t *model.Telemetry) {
	applyBurn(t)

	speed := t.Speed()
	if speed > 0 {
		t.Radius = model.GM / (speed * speed)
		t.Altitude = t.Radius - model.EarthRadius
		t.Angle += (speed / t.Radius) * degPerRad
	}
	t.Angle = NormalizeDegrees(t.Angle)
}

// applyBurn integrates one tick of an active burn and retires the burn
// when its countdown reaches zero. A completed burn always lands in
// PhaseStable, never back in PhaseIdle.
func applyBurn(t *model.Telemetry) {
	if t.Phase != model.PhaseBurning || t.Burn == nil {
		return
	}
	t.VX += t.Burn.RateX
	t.VY += t.Burn.RateY
	t.Burn.Remaining--
	if t.Burn.Remaining <= 0 {
		t.Burn = nil
		t.Phase = model.PhaseStable
	}
}

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(angle float64) float64 {
	angle = math.Mod(angle, 360.0)
	if angle < 0 {
		angle += 360.0
	}
	return angle
}
