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

func TestFromText(t *testing.T) {
	buf := "R: 4x 5000 5000 5000 0\n"
	m, n, err := FromText(demands(0, 0, 0, 0), buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, 4, m.Count())

	tuning := m.Tuning()
	require.InEpsilon(t, 0.5, tuning.RollScale, 0.00001)
	require.InEpsilon(t, 0.5, tuning.PitchScale, 0.00001)
	require.InEpsilon(t, 0.5, tuning.YawScale, 0.00001)
	require.Zero(t, tuning.IdleSpeed)
	require.Zero(t, tuning.ThrustFactor)
	require.Equal(t, AirmodeDisabled, tuning.Airmode)

	g := m.Geometry()
	require.InEpsilon(t, -0.707107, g[0].RollScale, 0.00001)
}

func TestFromTextIdleSpeed(t *testing.T) {
	m, _, err := FromText(demands(0, 0, 0, 0), "R: 4+ 10000 10000 10000 1500\n")
	require.NoError(t, err)
	require.InEpsilon(t, 0.15, m.Tuning().IdleSpeed, 0.00001)
	require.InEpsilon(t, 1.0, m.Tuning().RollScale, 0.00001)
}

func TestFromTextMultiRecord(t *testing.T) {
	buf := "R: 4x 5000 5000 5000 0\nR: 6x 10000 10000 10000 500\n"

	m1, n1, err := FromText(demands(0, 0, 0, 0), buf)
	require.NoError(t, err)
	require.Equal(t, 4, m1.Count())

	m2, n2, err := FromText(demands(0, 0, 0, 0), buf[n1:])
	require.NoError(t, err)
	require.Equal(t, 6, m2.Count())
	require.Equal(t, len(buf), n1+n2)
}

func TestFromTextMissingNewline(t *testing.T) {
	m, n, err := FromText(demands(0, 0, 0, 0), "R: 4x 5000 5000 5000 0")
	require.ErrorIs(t, err, ErrParse)
	require.Nil(t, m)
	require.Zero(t, n)
}

func TestFromTextUnknownGeometry(t *testing.T) {
	m, n, err := FromText(demands(0, 0, 0, 0), "R: 9z 5000 5000 5000 0\n")
	require.ErrorIs(t, err, ErrParse)
	require.Nil(t, m)
	require.Zero(t, n)
}

func TestFromTextShortRecord(t *testing.T) {
	m, _, err := FromText(demands(0, 0, 0, 0), "R: 4x 5000 5000\n")
	require.ErrorIs(t, err, ErrParse)
	require.Nil(t, m)
}

func TestFromTextWrongPrefix(t *testing.T) {
	m, _, err := FromText(demands(0, 0, 0, 0), "Z: 4x 5000 5000 5000 0\n")
	require.ErrorIs(t, err, ErrParse)
	require.Nil(t, m)
}

func TestFromTextBadIdleSpeed(t *testing.T) {
	// Idle 1.0 leaves no output range at all; the record is rejected.
	m, _, err := FromText(demands(0, 0, 0, 0), "R: 4x 5000 5000 5000 10000\n")
	require.ErrorIs(t, err, ErrParse)
	require.Nil(t, m)
}
