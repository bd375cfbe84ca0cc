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

func TestSaturationStatusValue(t *testing.T) {
	var s SaturationStatus
	require.Equal(t, uint16(0), s.Value())

	s.Valid = true
	require.Equal(t, uint16(1), s.Value())

	s.RollPos = true
	s.ThrustNeg = true
	require.Equal(t, uint16(1|1<<3|1<<10), s.Value())

	s = SaturationStatus{Valid: true, MotorPos: true, MotorNeg: true}
	require.Equal(t, uint16(1|1<<1|1<<2), s.Value())
}

func TestSaturationStatusString(t *testing.T) {
	var s SaturationStatus
	require.Equal(t, "invalid", s.String())

	s.Valid = true
	require.Equal(t, "ok", s.String())

	s.RollPos = true
	s.YawNeg = true
	s.MotorPos = true
	require.Equal(t, "roll+ yaw- motor+", s.String())
}

func TestSaturationStatusReset(t *testing.T) {
	s := SaturationStatus{Valid: true, RollPos: true, ThrustNeg: true}
	require.True(t, s.Saturated())

	s.Reset()
	require.False(t, s.Valid)
	require.False(t, s.Saturated())
	require.Equal(t, uint16(0), s.Value())
}

func TestSaturationUpdateClippingHigh(t *testing.T) {
	r := Rotor{RollScale: -0.707107, PitchScale: 0.707107, YawScale: 1.0, ThrustScale: 1.0}

	var s SaturationStatus
	s.update(r, true, false, false)
	require.True(t, s.Valid)
	require.True(t, s.RollNeg)
	require.False(t, s.RollPos)
	require.True(t, s.PitchPos)
	require.True(t, s.YawPos)
	require.True(t, s.ThrustPos)
	require.False(t, s.ThrustNeg)
}

func TestSaturationUpdateClippingLow(t *testing.T) {
	r := Rotor{RollScale: -0.707107, PitchScale: 0.707107, YawScale: 1.0, ThrustScale: 1.0}

	var s SaturationStatus
	s.update(r, false, true, false)
	require.True(t, s.RollPos)
	require.True(t, s.PitchNeg)
	require.True(t, s.ThrustNeg)
	require.False(t, s.YawNeg)

	s.Reset()
	s.update(r, false, false, true)
	require.True(t, s.YawNeg)
	require.False(t, s.RollPos)
	require.False(t, s.ThrustNeg)
	require.True(t, s.Valid)
}

func TestSaturationUpdateNoClipping(t *testing.T) {
	r := Rotor{RollScale: 1, PitchScale: 1, YawScale: 1, ThrustScale: 1}

	// The translator runs for every actuator every cycle; a clean cycle
	// still marks the report valid.
	var s SaturationStatus
	s.update(r, false, false, false)
	require.True(t, s.Valid)
	require.False(t, s.Saturated())
}
