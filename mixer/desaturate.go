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

import "math"

// Direction entries with magnitude below this cannot trade any headroom and
// are skipped, which also avoids dividing by zero.
const desatEpsilon = 1e-6

// ComputeDesaturationGain returns the gain k such that adding
// k*desatVector[i] to every output moves the saturated outputs back toward
// the [minOutput, maxOutput] band. Each violating output i contributes the
// candidate gain (bound-outputs[i])/desatVector[i]; the result is the sum of
// the most negative and the most positive candidate (each clamped toward
// zero), so single-sided violations are corrected exactly and two-sided ones
// are balanced. Violations raise the motor flags on sat: MotorNeg for an
// output under the lower bound, MotorPos for one over the upper bound.
//
// desatVector must be at least as long as outputs.
func ComputeDesaturationGain(desatVector, outputs []float64, sat *SaturationStatus, minOutput, maxOutput float64) float64 {
	var kMin, kMax float64

	for i := range outputs {
		if math.Abs(desatVector[i]) < desatEpsilon {
			continue
		}

		if outputs[i] < minOutput {
			k := (minOutput - outputs[i]) / desatVector[i]
			if k < kMin {
				kMin = k
			}
			if k > kMax {
				kMax = k
			}
			sat.MotorNeg = true
		}

		if outputs[i] > maxOutput {
			k := (maxOutput - outputs[i]) / desatVector[i]
			if k < kMin {
				kMin = k
			}
			if k > kMax {
				kMax = k
			}
			sat.MotorPos = true
		}
	}

	return kMin + kMax
}

// MinimizeSaturation applies desaturation along desatVector to outputs in
// two passes and returns the total gain applied. The second pass runs with
// half the computed gain: when max(outputs)-min(outputs) exceeds the band
// width no gain can fix both sides, and the half step equilibrates the
// violations instead of oscillating between them.
//
// With reduceOnly set, a first-pass gain that would increase outputs is
// discarded and the outputs are left untouched. This is how thrust-direction
// passes guarantee the mixer never commands a climb on its own.
func MinimizeSaturation(desatVector, outputs []float64, sat *SaturationStatus, minOutput, maxOutput float64, reduceOnly bool) float64 {
	k1 := ComputeDesaturationGain(desatVector, outputs, sat, minOutput, maxOutput)

	if reduceOnly && k1 > 0 {
		return 0
	}

	for i := range outputs {
		outputs[i] += k1 * desatVector[i]
	}

	k2 := 0.5 * ComputeDesaturationGain(desatVector, outputs, sat, minOutput, maxOutput)

	for i := range outputs {
		outputs[i] += k2 * desatVector[i]
	}

	return k1 + k2
}
