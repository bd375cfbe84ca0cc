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

// Package mixer turns normalized control demands (roll, pitch, yaw, thrust)
// into per-actuator commands for rotor craft.
//
// The hard part of mixing is not the weighted sum, it's what happens when an
// actuator command leaves the achievable band: headroom must be traded
// between axes in a deliberate priority order, and upstream rate controllers
// must be told which axes are saturated so their integrators stop winding up.
// This package implements that saturation management for multirotors, and the
// tiltrotor subpackage implements the pseudo-inverse allocation used by
// quad-tiltrotor VTOL craft.
package mixer

import (
	"golang.org/x/exp/constraints"
)

// Demand indices within control group 0.
const (
	ControlRoll uint8 = iota
	ControlPitch
	ControlYaw
	ControlThrust
	ControlTilt     // tiltrotor only: commanded nacelle tilt
	ControlAirspeed // tiltrotor only: measured airspeed
)

// ControlSource supplies the demand values a mixer reads at the start of
// every cycle. Demands are normalized: [-1, 1] for moments, [0, 1] for
// thrust. Implementations must be safe to call repeatedly within one cycle.
type ControlSource interface {
	Get(group, index uint8) float64
}

// ControlFunc adapts a plain function to the ControlSource interface.
type ControlFunc func(group, index uint8) float64

// Get implements ControlSource.
func (f ControlFunc) Get(group, index uint8) float64 {
	return f(group, index)
}

// Mixer is one mixing strategy bound to a control source. The concrete type
// chosen at construction time decides the strategy: MultirotorMixer here,
// tiltrotor.Mixer in the subpackage.
type Mixer interface {
	// Mix runs one cycle: read demands, allocate, write actuator commands
	// into outputs. Returns the number of commands written, or 0 when
	// len(outputs) is smaller than Count().
	Mix(outputs []float64) int
	// Count returns the number of actuator commands Mix produces.
	Count() int
	// SaturationStatus reports the flags raised during the last Mix call.
	SaturationStatus() SaturationStatus
	// SetSlewRateLimit arms per-cycle output rate limiting with the given
	// maximum delta. The budget covers a single Mix call and is cleared
	// afterwards, so callers must re-arm it every cycle.
	SetSlewRateLimit(deltaMax float64)
}

// Constrain clamps v to the [lo, hi] interval.
func Constrain[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
