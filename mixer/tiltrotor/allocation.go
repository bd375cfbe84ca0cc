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

package tiltrotor

import (
	"math"

	"github.com/facebook/flight/mixer"
)

// Demands are the denormalized control demands of one allocation cycle.
type Demands struct {
	Roll     float64 // N*m
	Pitch    float64 // N*m
	Yaw      float64 // N*m
	Thrust   float64 // N
	Tilt     float64 // rad, commanded nacelle tilt (0 up, pi/2 forward)
	Airspeed float64 // m/s, must be positive
}

// Allocation carries the products of one control-allocation solve, exposed
// for inspection by tests and tools.
type Allocation struct {
	// Control surface deflections, radians.
	Aileron  float64
	Elevator float64
	Rudder   float64

	// Moments left for the rotor set after the surfaces took their share.
	ResidualRoll  float64
	ResidualPitch float64
	ResidualYaw   float64

	// Differential tilt per side after clamping, radians.
	TiltCorrRight float64
	TiltCorrLeft  float64

	// Commanded tilt per side: demand plus correction.
	TiltRight float64
	TiltLeft  float64

	// Rotor thrusts in newtons: the right-side pair first, then the
	// left-side pair.
	RotorThrust [4]float64
}

// Allocate runs one closed-form control-allocation solve: control surfaces
// absorb what the dynamic pressure lets them, the pseudo-inverse distributes
// the rest over the four rotors, and a small differential tilt per side
// covers the in-plane force component. Airspeed must be positive; the mixer
// floors it when reading demands.
func Allocate(af *Airframe, d Demands) Allocation {
	var out Allocation

	// Surface authority scales with dynamic pressure and ramps in with
	// airspeed to avoid bang-bang behaviour at low speeds.
	qBar := 0.5 * af.AirDensity * d.Airspeed * d.Airspeed
	lFactor := af.RollDerivative * af.WingArea * af.WingSpan * qBar
	mFactor := af.PitchDerivative * af.WingArea * af.WingChord * qBar
	nFactor := af.YawDerivative * af.WingArea * af.WingSpan * qBar

	ramp := mixer.Constrain((d.Airspeed-af.SurfaceRampStart)/af.SurfaceRampRange, 0, 1)

	out.Aileron = mixer.Constrain(d.Roll/lFactor*ramp, af.DeflectionMin, af.DeflectionMax)
	out.Elevator = mixer.Constrain(d.Pitch/mFactor*ramp, af.DeflectionMin, af.DeflectionMax)
	out.Rudder = mixer.Constrain(d.Yaw/nFactor*ramp, af.DeflectionMin, af.DeflectionMax)

	// Whatever the surfaces did not produce stays with the rotors.
	roll := d.Roll - lFactor*out.Aileron
	pitch := d.Pitch - mFactor*out.Elevator
	yaw := d.Yaw - nFactor*out.Rudder
	out.ResidualRoll = roll
	out.ResidualPitch = pitch
	out.ResidualYaw = yaw

	pinv := pseudoInverse(af, d.Tilt)

	sChi := math.Sin(d.Tilt)
	cChi := math.Cos(d.Tilt)
	var v [8]float64
	for i := range v {
		v[i] = pinv[i][0]*d.Thrust*sChi +
			pinv[i][1]*d.Thrust*cChi +
			pinv[i][2]*roll +
			pinv[i][3]*pitch +
			pinv[i][4]*yaw
	}

	// Differential tilt only activates once there is enough thrust for it
	// to do anything useful.
	act := mixer.Constrain((d.Thrust-af.TiltRampStart)/af.TiltRampRange, 0, 1)
	dChiR := act * math.Atan2(v[0]+v[2], v[1]+v[3])
	dChiL := act * math.Atan2(v[4]+v[6], v[5]+v[7])

	// Rotor thrusts are recovered with the unclamped correction: the
	// solve stays self-consistent even when the clamp bites.
	out.RotorThrust[0] = v[0]*math.Sin(dChiR) + v[1]*math.Cos(dChiR)
	out.RotorThrust[1] = v[2]*math.Sin(dChiR) + v[3]*math.Cos(dChiR)
	out.RotorThrust[2] = v[4]*math.Sin(dChiL) + v[5]*math.Cos(dChiL)
	out.RotorThrust[3] = v[6]*math.Sin(dChiL) + v[7]*math.Cos(dChiL)

	out.TiltCorrRight = mixer.Constrain(dChiR, -af.TiltCorrectionMax, af.TiltCorrectionMax)
	out.TiltCorrLeft = mixer.Constrain(dChiL, -af.TiltCorrectionMax, af.TiltCorrectionMax)
	out.TiltRight = d.Tilt + out.TiltCorrRight
	out.TiltLeft = d.Tilt + out.TiltCorrLeft

	return out
}

// pseudoInverse evaluates the closed-form pseudo-inverse of the 5x8 rotor
// effectiveness matrix at the commanded tilt. Rows come in sin/cos pairs per
// rotor, the right-side pair first; columns take the axial thrust component,
// the normal thrust component, and the three residual moments.
func pseudoInverse(af *Airframe, chi float64) [8][5]float64 {
	h0 := af.HubHeight
	l0 := af.YawArm
	l1 := af.LateralArm
	l3 := af.FrontArm
	l4 := af.RearArm
	c := af.TorqueCoefficient / af.ThrustCoefficient

	sChi, cChi := math.Sin(chi), math.Cos(chi)
	s2Chi, c2Chi := math.Sin(2*chi), math.Cos(2*chi)
	cChi2 := cChi * cChi
	l34 := l3 + l4

	temp1 := 2*l1*l1 + l3*l4
	temp2 := 2*temp1 + l3*l3 + l4*l4
	denom1 := temp2 + 4*cChi*l1*l34
	denom2 := 4 * (c*c + l0*l0)

	var pinv [8][5]float64
	for i := 0; i < 8; i++ {
		// Sign patterns: front/rear, right/left, spin direction.
		sign1 := -1.0
		if i >= 2 && i <= 5 {
			sign1 = 1.0
		}
		sign2 := -1.0
		if i >= 4 {
			sign2 = 1.0
		}
		sign3 := -1.0
		if i%4 <= 1 {
			sign3 = 1.0
		}

		lArm := 0.5*(1+sign1)*l3 + 0.5*(1-sign1)*l4
		lArm2 := lArm * lArm

		if i%2 == 0 {
			// Rows for the sin component of the rotor thrust.
			pinv[i][0] = (temp2*cChi - sign1*2*h0*l34*sChi + 4*l1*l34*cChi2) / (4 * denom1)
			pinv[i][1] = -((temp1+lArm2)*sChi + l1*l34*s2Chi) / (2 * denom1)
			pinv[i][2] = (-sign2*l0*sChi + sign3*c*cChi) / denom2
			pinv[i][3] = -sign1 * sChi * l34 / (2 * denom1)
			pinv[i][4] = (sign2*l0*cChi + sign3*c*sChi) / denom2
		} else {
			// Rows for the cos component.
			pinv[i][0] = (temp2*sChi + sign1*2*h0*(cChi*l34+2*l1) + 2*l1*l34*s2Chi) / (4 * denom1)
			pinv[i][1] = (2*l1*lArm + (temp1+lArm2)*cChi + l1*l34*c2Chi) / (2 * denom1)
			pinv[i][2] = (sign2*l0*cChi + sign3*c*sChi) / denom2
			pinv[i][3] = sign1 * (2*l1 + l34*cChi) / (2 * denom1)
			pinv[i][4] = (sign2*l0*sChi - sign3*c*cChi) / denom2
		}
	}
	return pinv
}
