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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeDesaturationGainUnsaturated(t *testing.T) {
	var sat SaturationStatus
	vec := []float64{1, 1, 1, 1}
	outputs := []float64{0.1, 0.4, 0.7, 1.0}

	k := ComputeDesaturationGain(vec, outputs, &sat, 0, 1)
	require.Zero(t, k)
	require.False(t, sat.MotorPos)
	require.False(t, sat.MotorNeg)
}

func TestComputeDesaturationGainSingleHigh(t *testing.T) {
	var sat SaturationStatus
	vec := []float64{1, 1}
	outputs := []float64{0.5, 1.2}

	k := ComputeDesaturationGain(vec, outputs, &sat, 0, 1)
	require.InEpsilon(t, -0.2, k, 0.00001)
	require.True(t, sat.MotorPos)
	require.False(t, sat.MotorNeg)

	// Applying the gain along the vector restores the bound exactly.
	for i := range outputs {
		outputs[i] += k * vec[i]
	}
	require.InEpsilon(t, 0.3, outputs[0], 0.00001)
	require.InEpsilon(t, 1.0, outputs[1], 0.00001)
}

func TestComputeDesaturationGainSingleLow(t *testing.T) {
	var sat SaturationStatus
	vec := []float64{1, 1}
	outputs := []float64{-0.2, 0.5}

	k := ComputeDesaturationGain(vec, outputs, &sat, 0, 1)
	require.InEpsilon(t, 0.2, k, 0.00001)
	require.True(t, sat.MotorNeg)
	require.False(t, sat.MotorPos)
}

func TestComputeDesaturationGainTwoSided(t *testing.T) {
	var sat SaturationStatus
	vec := []float64{1, 1}
	outputs := []float64{-0.1, 1.2}

	// Low side asks for +0.1, high side for -0.2; the sum biases toward
	// the deeper violation.
	k := ComputeDesaturationGain(vec, outputs, &sat, 0, 1)
	require.InEpsilon(t, -0.1, k, 0.00001)
	require.True(t, sat.MotorPos)
	require.True(t, sat.MotorNeg)
}

func TestComputeDesaturationGainSkipsTinyEntries(t *testing.T) {
	var sat SaturationStatus
	vec := []float64{1e-9, 1}
	outputs := []float64{5.0, 0.5}

	// The first output is far out of band but the direction has no
	// authority over it, so it contributes nothing at all.
	k := ComputeDesaturationGain(vec, outputs, &sat, 0, 1)
	require.Zero(t, k)
	require.False(t, sat.MotorPos)
}

func TestMinimizeSaturationExact(t *testing.T) {
	var sat SaturationStatus
	vec := []float64{1, 1}
	outputs := []float64{0.5, 1.2}

	k := MinimizeSaturation(vec, outputs, &sat, 0, 1, false)
	require.InEpsilon(t, -0.2, k, 0.00001)
	require.InEpsilon(t, 0.3, outputs[0], 0.00001)
	require.InEpsilon(t, 1.0, outputs[1], 0.00001)
}

func TestMinimizeSaturationEquilibratesTwoSided(t *testing.T) {
	var sat SaturationStatus
	vec := []float64{1, 1}
	outputs := []float64{-0.2, 1.1}

	// The spread (1.3) exceeds the band width (1.0), so no gain fixes
	// both sides. The half-weighted second pass splits the excess evenly.
	MinimizeSaturation(vec, outputs, &sat, 0, 1, false)
	require.InEpsilon(t, -0.15, outputs[0], 0.00001)
	require.InEpsilon(t, 1.15, outputs[1], 0.00001)
}

func TestMinimizeSaturationReduceOnly(t *testing.T) {
	var sat SaturationStatus
	vec := []float64{1, 1}
	outputs := []float64{-0.3, 0.4}

	// Fixing the low violation would require raising outputs, which
	// reduce-only forbids: nothing moves.
	k := MinimizeSaturation(vec, outputs, &sat, 0, 1, true)
	require.Zero(t, k)
	require.InEpsilon(t, -0.3, outputs[0], 0.00001)
	require.InEpsilon(t, 0.4, outputs[1], 0.00001)

	// Reductions still go through.
	outputs = []float64{0.5, 1.3}
	k = MinimizeSaturation(vec, outputs, &sat, 0, 1, true)
	require.Less(t, k, 0.0)
	require.InEpsilon(t, 0.2, outputs[0], 0.00001)
	require.InEpsilon(t, 1.0, outputs[1], 0.00001)
}
