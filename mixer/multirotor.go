/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mixer

import (
	"fmt"
	"math"
)

// Airmode selects how aggressively the mixer trades thrust for attitude
// authority when motors saturate.
type Airmode int

const (
	// AirmodeDisabled never raises thrust to unsaturate a motor. At the
	// low stick the craft loses roll/pitch/yaw authority.
	AirmodeDisabled Airmode = iota
	// AirmodeRollPitch boosts thrust to keep roll and pitch authority,
	// yaw is still mixed on top and desaturated last.
	AirmodeRollPitch
	// AirmodeRollPitchYaw boosts thrust to keep authority on all three
	// moment axes.
	AirmodeRollPitchYaw
)

// String implements fmt.Stringer.
func (a Airmode) String() string {
	switch a {
	case AirmodeDisabled:
		return "disabled"
	case AirmodeRollPitch:
		return "roll_pitch"
	case AirmodeRollPitchYaw:
		return "roll_pitch_yaw"
	}
	return fmt.Sprintf("airmode(%d)", int(a))
}

// ParseAirmode converts a config/flag string into an Airmode.
func ParseAirmode(s string) (Airmode, error) {
	switch s {
	case "", "disabled":
		return AirmodeDisabled, nil
	case "roll_pitch", "rp":
		return AirmodeRollPitch, nil
	case "roll_pitch_yaw", "rpy":
		return AirmodeRollPitchYaw, nil
	}
	return AirmodeDisabled, fmt.Errorf("unknown airmode %q", s)
}

// Tuning holds the per-craft parameters of a multirotor mixer.
type Tuning struct {
	// Demand gains applied before mixing.
	RollScale  float64
	PitchScale float64
	YawScale   float64
	// IdleSpeed is the output floor as a fraction of the full range,
	// in [0, 1). Motors never drop below it while armed.
	IdleSpeed float64
	// ThrustFactor linearizes the static motor thrust curve
	// thrust = (1-f)*cmd + f*cmd^2. Zero disables the correction.
	ThrustFactor float64
	Airmode      Airmode
}

const (
	// Outputs this close to the idle floor count as clipping low.
	lowClipMargin = 0.01
	// Upper bound for the yaw desaturation pass in mixYaw. Letting yaw
	// overshoot the band slightly keeps some yaw response at full thrust.
	yawHeadroom = 1.15
)

// MultirotorMixer mixes roll/pitch/yaw/thrust demands onto N rotors with
// airmode-dependent saturation management. Not safe for concurrent use.
type MultirotorMixer struct {
	controls ControlSource
	geometry Geometry
	tuning   Tuning

	saturation  SaturationStatus
	deltaOutMax float64
	outputsPrev []float64
	tmp         []float64
}

// NewMultirotorMixer builds a mixer for the given geometry. The
// previous-output history starts at the idle floor, matching a craft that
// has just been armed.
func NewMultirotorMixer(controls ControlSource, geometry Geometry, tuning Tuning) (*MultirotorMixer, error) {
	if controls == nil {
		return nil, fmt.Errorf("nil control source")
	}
	if len(geometry) == 0 {
		return nil, fmt.Errorf("geometry has no rotors")
	}
	if tuning.IdleSpeed < 0 || tuning.IdleSpeed >= 1 {
		return nil, fmt.Errorf("idle speed %v outside [0, 1)", tuning.IdleSpeed)
	}
	if tuning.ThrustFactor < 0 || tuning.ThrustFactor > 1 {
		return nil, fmt.Errorf("thrust factor %v outside [0, 1]", tuning.ThrustFactor)
	}
	switch tuning.Airmode {
	case AirmodeDisabled, AirmodeRollPitch, AirmodeRollPitchYaw:
	default:
		return nil, fmt.Errorf("unknown airmode %d", tuning.Airmode)
	}

	m := &MultirotorMixer{
		controls:    controls,
		geometry:    geometry,
		tuning:      tuning,
		outputsPrev: make([]float64, len(geometry)),
		tmp:         make([]float64, len(geometry)),
	}
	for i := range m.outputsPrev {
		m.outputsPrev[i] = tuning.IdleSpeed
	}
	return m, nil
}

// Count returns the number of rotors.
func (m *MultirotorMixer) Count() int {
	return len(m.geometry)
}

// Geometry returns a copy of the rotor geometry.
func (m *MultirotorMixer) Geometry() Geometry {
	g := make(Geometry, len(m.geometry))
	copy(g, m.geometry)
	return g
}

// Tuning returns the mixer parameters.
func (m *MultirotorMixer) Tuning() Tuning {
	return m.tuning
}

// SaturationStatus returns the flags raised during the last Mix call.
func (m *MultirotorMixer) SaturationStatus() SaturationStatus {
	return m.saturation
}

// SetSlewRateLimit arms output slew limiting for the next Mix call only.
func (m *MultirotorMixer) SetSlewRateLimit(deltaMax float64) {
	m.deltaOutMax = deltaMax
}

// Mix runs one mixing cycle and writes the rotor commands, each in
// [IdleSpeed, 1], into outputs. Returns the number of commands written, or 0
// when the buffer is smaller than Count().
func (m *MultirotorMixer) Mix(outputs []float64) int {
	if len(outputs) < len(m.geometry) {
		return 0
	}
	out := outputs[:len(m.geometry)]

	m.saturation.Reset()

	roll := Constrain(m.controls.Get(0, ControlRoll)*m.tuning.RollScale, -1, 1)
	pitch := Constrain(m.controls.Get(0, ControlPitch)*m.tuning.PitchScale, -1, 1)
	yaw := Constrain(m.controls.Get(0, ControlYaw)*m.tuning.YawScale, -1, 1)
	thrust := Constrain(m.controls.Get(0, ControlThrust), 0, 1)

	switch m.tuning.Airmode {
	case AirmodeRollPitch:
		m.mixAirmodeRP(roll, pitch, yaw, thrust, out)
	case AirmodeRollPitchYaw:
		m.mixAirmodeRPY(roll, pitch, yaw, thrust, out)
	default:
		m.mixAirmodeDisabled(roll, pitch, yaw, thrust, out)
	}

	// Apply the thrust model and scale into [idle, 1]. Outputs are
	// expected in [0, 1] here but may be outside when a moment demand
	// exceeded the motor band.
	idle := m.tuning.IdleSpeed
	for i := range out {
		if f := m.tuning.ThrustFactor; f > 0 {
			out[i] = -(1-f)/(2*f) + math.Sqrt((1-f)*(1-f)/(4*f*f)+math.Max(out[i], 0)/f)
		}
		out[i] = Constrain(idle+out[i]*(1-idle), idle, 1)
	}

	// Slew rate limiting and saturation reporting. Low clipping is only
	// reported where the airmode left the axis unprotected: with airmode
	// on, thrust gets boosted instead and the upstream integrators can
	// stay enabled for better tracking.
	for i := range out {
		clippingHigh := false
		clippingLowRollPitch := false
		clippingLowYaw := false

		if out[i] < idle+lowClipMargin {
			switch m.tuning.Airmode {
			case AirmodeDisabled:
				clippingLowRollPitch = true
				clippingLowYaw = true
			case AirmodeRollPitch:
				clippingLowYaw = true
			}
		}

		if m.deltaOutMax > 0 {
			delta := out[i] - m.outputsPrev[i]
			if delta > m.deltaOutMax {
				out[i] = m.outputsPrev[i] + m.deltaOutMax
				clippingHigh = true
			} else if delta < -m.deltaOutMax {
				out[i] = m.outputsPrev[i] - m.deltaOutMax
				clippingLowRollPitch = true
				clippingLowYaw = true
			}
		}

		m.outputsPrev[i] = out[i]
		m.saturation.update(m.geometry[i], clippingHigh, clippingLowRollPitch, clippingLowYaw)
	}

	// Force callers to supply a fresh slew budget every cycle.
	m.deltaOutMax = 0

	return len(m.geometry)
}

// mixAirmodeRPY mixes all four axes at once, then trades thrust and finally
// yaw to bring the outputs back into the band. Roll/pitch keep priority over
// yaw.
func (m *MultirotorMixer) mixAirmodeRPY(roll, pitch, yaw, thrust float64, outputs []float64) {
	for i, r := range m.geometry {
		outputs[i] = roll*r.RollScale +
			pitch*r.PitchScale +
			yaw*r.YawScale +
			thrust*r.ThrustScale
	}

	m.geometry.scales(axisThrust, m.tmp)
	MinimizeSaturation(m.tmp, outputs, &m.saturation, 0, 1, false)

	m.geometry.scales(axisYaw, m.tmp)
	MinimizeSaturation(m.tmp, outputs, &m.saturation, 0, 1, false)
}

// mixAirmodeRP mixes roll/pitch/thrust with thrust boosting allowed, then
// mixes yaw on top without it.
func (m *MultirotorMixer) mixAirmodeRP(roll, pitch, yaw, thrust float64, outputs []float64) {
	for i, r := range m.geometry {
		outputs[i] = roll*r.RollScale +
			pitch*r.PitchScale +
			thrust*r.ThrustScale
	}

	m.geometry.scales(axisThrust, m.tmp)
	MinimizeSaturation(m.tmp, outputs, &m.saturation, 0, 1, false)

	m.mixYaw(yaw, outputs)
}

// mixAirmodeDisabled mixes roll/pitch/thrust but only ever reduces thrust,
// then gives up roll and pitch authority as needed, then mixes yaw.
func (m *MultirotorMixer) mixAirmodeDisabled(roll, pitch, yaw, thrust float64, outputs []float64) {
	for i, r := range m.geometry {
		outputs[i] = roll*r.RollScale +
			pitch*r.PitchScale +
			thrust*r.ThrustScale
	}

	m.geometry.scales(axisThrust, m.tmp)
	MinimizeSaturation(m.tmp, outputs, &m.saturation, 0, 1, true)

	m.geometry.scales(axisRoll, m.tmp)
	MinimizeSaturation(m.tmp, outputs, &m.saturation, 0, 1, false)

	m.geometry.scales(axisPitch, m.tmp)
	MinimizeSaturation(m.tmp, outputs, &m.saturation, 0, 1, false)

	m.mixYaw(yaw, outputs)
}

// mixYaw adds yaw on top of already mixed outputs. Yaw desaturates itself
// first (with some extra headroom above the band), then thrust is reduced if
// yaw pushed any motor over the top.
func (m *MultirotorMixer) mixYaw(yaw float64, outputs []float64) {
	for i, r := range m.geometry {
		outputs[i] += yaw * r.YawScale
	}

	m.geometry.scales(axisYaw, m.tmp)
	MinimizeSaturation(m.tmp, outputs, &m.saturation, 0, yawHeadroom, false)

	m.geometry.scales(axisThrust, m.tmp)
	MinimizeSaturation(m.tmp, outputs, &m.saturation, 0, 1, true)
}
