package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// document is the flat on-disk shape of the telemetry record. The three
// burn_* fields are present exactly when a burn is in progress.
type document struct {
	VX            float64  `json:"vx"`
	VY            float64  `json:"vy"`
	Radius        float64  `json:"radius"`
	Altitude      float64  `json:"altitude"`
	Angle         float64  `json:"angle"`
	Status        string   `json:"status"`
	BurnRateX     *float64 `json:"burn_rate_x,omitempty"`
	BurnRateY     *float64 `json:"burn_rate_y,omitempty"`
	BurnRemaining *int     `json:"burn_remaining,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t Telemetry) MarshalJSON() ([]byte, error) {
	doc := document{
		VX:       t.VX,
		VY:       t.VY,
		Radius:   t.Radius,
		Altitude: t.Altitude,
		Angle:    t.Angle,
		Status:   t.Status(),
	}
	if t.Phase == PhaseBurning && t.Burn != nil {
		doc.BurnRateX = &t.Burn.RateX
		doc.BurnRateY = &t.Burn.RateY
		doc.BurnRemaining = &t.Burn.Remaining
	}
	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler. The burn variant is
// reconstructed from the optional fields; the status string only
// disambiguates Idle from Stable.
func (t *Telemetry) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	present := 0
	for _, p := range []bool{doc.BurnRateX != nil, doc.BurnRateY != nil, doc.BurnRemaining != nil} {
		if p {
			present++
		}
	}
	if present != 0 && present != 3 {
		return errors.New("telemetry document carries a partial burn record")
	}

	*t = Telemetry{
		VX:       doc.VX,
		VY:       doc.VY,
		Radius:   doc.Radius,
		Altitude: doc.Altitude,
		Angle:    doc.Angle,
	}
	switch {
	case present == 3:
		if *doc.BurnRemaining < 1 {
			return fmt.Errorf("telemetry document has burn_remaining %d, want >= 1", *doc.BurnRemaining)
		}
		t.Phase = PhaseBurning
		t.Burn = &Burn{
			RateX:     *doc.BurnRateX,
			RateY:     *doc.BurnRateY,
			Remaining: *doc.BurnRemaining,
		}
	case doc.Status == "Stable":
		t.Phase = PhaseStable
	default:
		t.Phase = PhaseIdle
	}
	return nil
}
