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

// Package tiltrotor allocates control demands for quad-tiltrotor VTOL craft
// via a closed-form pseudo-inverse: four rotor thrusts, a small differential
// nacelle tilt per side for the in-plane force, and a control surface share
// that grows with airspeed.
package tiltrotor

import (
	"fmt"

	"github.com/facebook/flight/mixer"
)

// Output channel assignment of Mix. Rotor commands occupy channels 0-3.
const (
	ChannelTiltLeft  = 4
	ChannelTiltRight = 5
	ChannelAileron   = 6
	ChannelCount     = 7
)

// Mixer implements mixer.Mixer for a quad tiltrotor. Unlike the multirotor
// path, saturation handling is implicit in the allocation (surface and tilt
// clamps), so the reported status stays empty; slew limiting applies to the
// two tilt servo channels only, where rate-limited motion matters most.
// Not safe for concurrent use.
type Mixer struct {
	controls mixer.ControlSource
	airframe *Airframe

	saturation  mixer.SaturationStatus
	deltaOutMax float64
	tiltPrev    [2]float64 // previous tilt servo outputs, left then right
	last        Allocation
}

var _ mixer.Mixer = (*Mixer)(nil)

// New builds a tiltrotor mixer around the given airframe. The tilt servo
// history starts at the neutral-tilt positions, matching a craft that powers
// up in hover configuration.
func New(controls mixer.ControlSource, airframe *Airframe) (*Mixer, error) {
	if controls == nil {
		return nil, fmt.Errorf("nil control source")
	}
	if airframe == nil {
		return nil, fmt.Errorf("nil airframe")
	}
	if err := airframe.Validate(); err != nil {
		return nil, fmt.Errorf("invalid airframe: %w", err)
	}
	m := &Mixer{
		controls: controls,
		airframe: airframe,
	}
	m.tiltPrev[0] = airframe.TiltServoLeft(0)
	m.tiltPrev[1] = airframe.TiltServoRight(0)
	return m, nil
}

// Count returns the number of output channels.
func (m *Mixer) Count() int {
	return ChannelCount
}

// Airframe returns the airframe the mixer was built with.
func (m *Mixer) Airframe() *Airframe {
	return m.airframe
}

// LastAllocation returns the allocation products of the last Mix call.
func (m *Mixer) LastAllocation() Allocation {
	return m.last
}

// SaturationStatus returns the status as of the last Mix call.
func (m *Mixer) SaturationStatus() mixer.SaturationStatus {
	return m.saturation
}

// SetSlewRateLimit arms tilt servo slew limiting for the next Mix call only.
func (m *Mixer) SetSlewRateLimit(deltaMax float64) {
	m.deltaOutMax = deltaMax
}

// Mix runs one allocation cycle and writes the seven actuator commands:
// four rotors, left tilt servo, right tilt servo, aileron. Returns 0 when
// the buffer is smaller than Count().
func (m *Mixer) Mix(outputs []float64) int {
	if len(outputs) < ChannelCount {
		return 0
	}

	m.saturation.Reset()

	af := m.airframe
	d := Demands{
		Roll:   mixer.Constrain(m.controls.Get(0, mixer.ControlRoll), -1, 1) * af.MomentMax,
		Pitch:  mixer.Constrain(m.controls.Get(0, mixer.ControlPitch), -1, 1) * af.MomentMax,
		Yaw:    mixer.Constrain(m.controls.Get(0, mixer.ControlYaw), -1, 1) * af.MomentMax,
		Thrust: mixer.Constrain(m.controls.Get(0, mixer.ControlThrust), 0, 1) * af.ThrustMax,
		Tilt:   mixer.Constrain(m.controls.Get(0, mixer.ControlTilt), -1, 1) * af.TiltMax,
		// The floor keeps the dynamic pressure nonzero so surface
		// authority divides cleanly.
		Airspeed: mixer.Constrain(m.controls.Get(0, mixer.ControlAirspeed), 1e-8, 1) * af.AirspeedMax,
	}

	alloc := Allocate(af, d)
	m.last = alloc

	for i, thrust := range alloc.RotorThrust {
		outputs[i] = af.RotorCommand(thrust)
	}
	outputs[ChannelTiltLeft] = af.TiltServoLeft(alloc.TiltLeft)
	outputs[ChannelTiltRight] = af.TiltServoRight(alloc.TiltRight)
	outputs[ChannelAileron] = af.SurfaceCommand(alloc.Aileron)

	if m.deltaOutMax > 0 {
		for i, ch := range []int{ChannelTiltLeft, ChannelTiltRight} {
			delta := outputs[ch] - m.tiltPrev[i]
			if delta > m.deltaOutMax {
				outputs[ch] = m.tiltPrev[i] + m.deltaOutMax
			} else if delta < -m.deltaOutMax {
				outputs[ch] = m.tiltPrev[i] - m.deltaOutMax
			}
		}
	}
	m.tiltPrev[0] = outputs[ChannelTiltLeft]
	m.tiltPrev[1] = outputs[ChannelTiltRight]

	// Force callers to supply a fresh slew budget every cycle.
	m.deltaOutMax = 0

	return ChannelCount
}
