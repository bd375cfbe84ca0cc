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

package sim

import (
	"testing"

	"github.com/facebook/flight/mixer"
	"github.com/stretchr/testify/require"
)

func TestProfileEvaluation(t *testing.T) {
	p, err := ParseProfile(map[string]string{
		"roll":   "0.3 * sin(2 * t)",
		"thrust": "min(1, 0.1 * t)",
	})
	require.NoError(t, err)

	require.InDelta(t, 0, p.Get(0, mixer.ControlRoll), 1e-9)
	require.InDelta(t, 0, p.Get(0, mixer.ControlThrust), 1e-9)

	p.SetTime(5)
	require.InDelta(t, -0.1632063, p.Get(0, mixer.ControlRoll), 1e-6)
	require.InDelta(t, 0.5, p.Get(0, mixer.ControlThrust), 1e-9)

	p.SetTime(20)
	require.InDelta(t, 1.0, p.Get(0, mixer.ControlThrust), 1e-9)
}

func TestProfileStep(t *testing.T) {
	p, err := ParseProfile(map[string]string{"yaw": "0.5 * step(t - 2)"})
	require.NoError(t, err)

	p.SetTime(1)
	require.InDelta(t, 0, p.Get(0, mixer.ControlYaw), 1e-9)
	p.SetTime(2)
	require.InDelta(t, 0.5, p.Get(0, mixer.ControlYaw), 1e-9)
	p.SetTime(3)
	require.InDelta(t, 0.5, p.Get(0, mixer.ControlYaw), 1e-9)
}

func TestProfileFunctions(t *testing.T) {
	p, err := ParseProfile(map[string]string{
		"pitch":    "max(0.2, cos(0))",
		"airspeed": "abs(0-0.25)",
	})
	require.NoError(t, err)

	require.InDelta(t, 1.0, p.Get(0, mixer.ControlPitch), 1e-9)
	require.InDelta(t, 0.25, p.Get(0, mixer.ControlAirspeed), 1e-9)
}

func TestProfileDefaultsToZero(t *testing.T) {
	p, err := ParseProfile(nil)
	require.NoError(t, err)

	require.InDelta(t, 0, p.Get(0, mixer.ControlThrust), 1e-9)
	// Only group 0 carries demands.
	require.InDelta(t, 0, p.Get(1, mixer.ControlRoll), 1e-9)
}

func TestParseProfileErrors(t *testing.T) {
	_, err := ParseProfile(map[string]string{"throttle": "0.5"})
	require.Error(t, err)

	_, err = ParseProfile(map[string]string{"roll": "q * 2"})
	require.Error(t, err)

	_, err = ParseProfile(map[string]string{"roll": "0.3 *"})
	require.Error(t, err)
}

func TestProfileEvaluationErrorReadsZero(t *testing.T) {
	// Function arity is only checked when the expression runs; a bad
	// call reads as zero demand instead of failing the cycle.
	p, err := ParseProfile(map[string]string{"roll": "sin(1, 2)"})
	require.NoError(t, err)
	require.InDelta(t, 0, p.Get(0, mixer.ControlRoll), 1e-9)
}
