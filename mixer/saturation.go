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

import "strings"

// SaturationStatus reports which control axes were saturated, and in which
// direction, during the last mixing cycle. Upstream rate controllers use the
// directional flags for anti-windup: a raised RollPos means "more positive
// roll demand would only deepen saturation", so the roll integrator must not
// grow in that direction.
//
// Flags describe the current cycle only; Mix clears them before every run.
type SaturationStatus struct {
	// Valid is set once the mixer has filled in the flags for a cycle.
	Valid bool
	// MotorPos/MotorNeg: some motor hit its upper/lower output bound
	// during desaturation.
	MotorPos bool
	MotorNeg bool

	RollPos   bool
	RollNeg   bool
	PitchPos  bool
	PitchNeg  bool
	YawPos    bool
	YawNeg    bool
	ThrustPos bool
	ThrustNeg bool
}

// Reset clears all flags.
func (s *SaturationStatus) Reset() {
	*s = SaturationStatus{}
}

// Saturated reports whether any axis or motor flag is raised.
func (s SaturationStatus) Saturated() bool {
	return s.MotorPos || s.MotorNeg ||
		s.RollPos || s.RollNeg ||
		s.PitchPos || s.PitchNeg ||
		s.YawPos || s.YawNeg ||
		s.ThrustPos || s.ThrustNeg
}

// Bit positions of the packed status word, for telemetry consumers that
// expect the legacy wire layout.
const (
	satBitValid = iota
	satBitMotorPos
	satBitMotorNeg
	satBitRollPos
	satBitRollNeg
	satBitPitchPos
	satBitPitchNeg
	satBitYawPos
	satBitYawNeg
	satBitThrustPos
	satBitThrustNeg
)

// Value packs the flags into the legacy telemetry word.
func (s SaturationStatus) Value() uint16 {
	var v uint16
	set := func(bit int, on bool) {
		if on {
			v |= 1 << bit
		}
	}
	set(satBitValid, s.Valid)
	set(satBitMotorPos, s.MotorPos)
	set(satBitMotorNeg, s.MotorNeg)
	set(satBitRollPos, s.RollPos)
	set(satBitRollNeg, s.RollNeg)
	set(satBitPitchPos, s.PitchPos)
	set(satBitPitchNeg, s.PitchNeg)
	set(satBitYawPos, s.YawPos)
	set(satBitYawNeg, s.YawNeg)
	set(satBitThrustPos, s.ThrustPos)
	set(satBitThrustNeg, s.ThrustNeg)
	return v
}

// String renders the raised flags in a compact form for logs, e.g.
// "roll+ yaw- thrust+ motor+".
func (s SaturationStatus) String() string {
	if !s.Valid {
		return "invalid"
	}
	var parts []string
	dir := func(name string, pos, neg bool) {
		if pos {
			parts = append(parts, name+"+")
		}
		if neg {
			parts = append(parts, name+"-")
		}
	}
	dir("roll", s.RollPos, s.RollNeg)
	dir("pitch", s.PitchPos, s.PitchNeg)
	dir("yaw", s.YawPos, s.YawNeg)
	dir("thrust", s.ThrustPos, s.ThrustNeg)
	dir("motor", s.MotorPos, s.MotorNeg)
	if len(parts) == 0 {
		return "ok"
	}
	return strings.Join(parts, " ")
}

// update translates one actuator's clipping state into directional axis
// flags using the sign of the actuator's effectiveness scales. Clipping high
// means the command was limited in the positive direction, so the axes
// pushing it up are saturated in their pushing direction; clipping low is
// the mirror image. Low-side roll/pitch and yaw contributions are gated
// separately because the airmode policies disarm them independently.
func (s *SaturationStatus) update(r Rotor, clippingHigh, clippingLowRollPitch, clippingLowYaw bool) {
	if clippingHigh {
		if r.RollScale > 0 {
			s.RollPos = true
		} else if r.RollScale < 0 {
			s.RollNeg = true
		}
		if r.PitchScale > 0 {
			s.PitchPos = true
		} else if r.PitchScale < 0 {
			s.PitchNeg = true
		}
		if r.YawScale > 0 {
			s.YawPos = true
		} else if r.YawScale < 0 {
			s.YawNeg = true
		}
		s.ThrustPos = true
	}

	if clippingLowRollPitch {
		if r.RollScale > 0 {
			s.RollNeg = true
		} else if r.RollScale < 0 {
			s.RollPos = true
		}
		if r.PitchScale > 0 {
			s.PitchNeg = true
		} else if r.PitchScale < 0 {
			s.PitchPos = true
		}
		s.ThrustNeg = true
	}

	if clippingLowYaw {
		if r.YawScale > 0 {
			s.YawNeg = true
		} else if r.YawScale < 0 {
			s.YawPos = true
		}
	}

	s.Valid = true
}
