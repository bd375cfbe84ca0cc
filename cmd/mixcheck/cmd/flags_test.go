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

package cmd

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/flight/mixer"
	"github.com/facebook/flight/mixer/tiltrotor"
)

func TestMixerFromFlagsDefaults(t *testing.T) {
	m, err := mixerFromFlags(evalControls())
	require.NoError(t, err)
	require.Equal(t, 4, m.Count())

	mm, ok := m.(*mixer.MultirotorMixer)
	require.True(t, ok)
	require.Equal(t, 1.0, mm.Tuning().RollScale)
	require.Equal(t, mixer.AirmodeDisabled, mm.Tuning().Airmode)
}

func TestMixerFromFlagsTuning(t *testing.T) {
	yawScaleFlag = 0.7
	airmodeFlag = "roll_pitch_yaw"
	defer func() {
		yawScaleFlag = 1
		airmodeFlag = "disabled"
	}()

	m, err := mixerFromFlags(evalControls())
	require.NoError(t, err)
	mm, ok := m.(*mixer.MultirotorMixer)
	require.True(t, ok)
	require.Equal(t, 0.7, mm.Tuning().YawScale)
	require.Equal(t, mixer.AirmodeRollPitchYaw, mm.Tuning().Airmode)
}

func TestMixerFromFlagsFile(t *testing.T) {
	dir := t.TempDir()
	mixFile := path.Join(dir, "main.mix")
	require.NoError(t, os.WriteFile(mixFile, []byte("R: 8x 10000 10000 10000 0\n"), 0644))

	fileFlag = mixFile
	defer func() { fileFlag = "" }()

	m, err := mixerFromFlags(evalControls())
	require.NoError(t, err)
	require.Equal(t, 8, m.Count())
}

func TestMixerFromFlagsAirframe(t *testing.T) {
	dir := t.TempDir()
	airframeFile := path.Join(dir, "tiltrotor.yaml")
	require.NoError(t, os.WriteFile(airframeFile, []byte("version: \"1.0\"\n"), 0644))

	airframeFlag = airframeFile
	defer func() { airframeFlag = "" }()

	m, err := mixerFromFlags(evalControls())
	require.NoError(t, err)
	require.Equal(t, tiltrotor.ChannelCount, m.Count())
}

func TestMixerFromFlagsBadGeometry(t *testing.T) {
	geometryFlag = "3z"
	defer func() { geometryFlag = "4x" }()

	_, err := mixerFromFlags(evalControls())
	require.Error(t, err)
}

func TestEvalControls(t *testing.T) {
	evalRollFlag = 0.25
	evalThrustFlag = 0.5
	defer func() {
		evalRollFlag = 0
		evalThrustFlag = 0
	}()

	controls := evalControls()
	require.Equal(t, 0.25, controls.Get(0, mixer.ControlRoll))
	require.Equal(t, 0.5, controls.Get(0, mixer.ControlThrust))
	require.Equal(t, 0.0, controls.Get(0, mixer.ControlYaw))
	require.Equal(t, 0.0, controls.Get(1, mixer.ControlRoll))
}

func TestChannelFunction(t *testing.T) {
	m, err := mixerFromFlags(evalControls())
	require.NoError(t, err)
	require.Equal(t, "rotor 2", channelFunction(m, 2))

	tm, err := tiltrotor.New(evalControls(), tiltrotor.DefaultAirframe())
	require.NoError(t, err)
	require.Equal(t, "rotor 0", channelFunction(tm, 0))
	require.Equal(t, "tilt left", channelFunction(tm, tiltrotor.ChannelTiltLeft))
	require.Equal(t, "tilt right", channelFunction(tm, tiltrotor.ChannelTiltRight))
	require.Equal(t, "aileron", channelFunction(tm, tiltrotor.ChannelAileron))
}
