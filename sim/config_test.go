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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/facebook/flight/mixer"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	require.Equal(t, 4*time.Millisecond, c.Interval())
	require.Equal(t, MixerMultirotor, c.Mixer.Type)
}

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	data := `
mixer:
  type: multirotor
  geometry: 6x
  airmode: roll_pitch
rate: 500
duration: 1
slew_rate: 2
profile:
  roll: "0.1"
  thrust: "min(1, 0.2 * t)"
monitoring_port: 8888
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	c, err := ReadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "6x", c.Mixer.Geometry)
	require.Equal(t, "roll_pitch", c.Mixer.Airmode)
	require.Equal(t, 500.0, c.Rate)
	require.Equal(t, 2*time.Millisecond, c.Interval())
	require.Equal(t, 1.0, c.Duration)
	require.Equal(t, 2.0, c.SlewRate)
	require.Equal(t, 8888, c.MonitoringPort)
	require.Equal(t, "0.1", c.Profile["roll"])
}

func TestReadConfigRejects(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))
		return path
	}

	_, err := ReadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	// Typos must not pass silently.
	_, err = ReadConfig(write("unknown.yaml", "wheels: 4\n"))
	require.Error(t, err)

	_, err = ReadConfig(write("rate.yaml", "rate: 0\n"))
	require.Error(t, err)

	_, err = ReadConfig(write("type.yaml", "mixer:\n  type: quadpod\n"))
	require.Error(t, err)

	_, err = ReadConfig(write("nogeo.yaml", "mixer:\n  type: multirotor\n  geometry: \"\"\n"))
	require.Error(t, err)

	_, err = ReadConfig(write("both.yaml", "mixer:\n  type: multirotor\n  file: quad.mix\n"))
	require.Error(t, err)

	_, err = ReadConfig(write("tiltgeo.yaml", "mixer:\n  type: tiltrotor\n"))
	require.Error(t, err)
}

func TestBuildMixerGeometry(t *testing.T) {
	c := DefaultConfig()
	m, err := c.BuildMixer(mixer.ControlFunc(func(group, index uint8) float64 { return 0 }))
	require.NoError(t, err)
	require.Equal(t, 4, m.Count())

	c.Mixer.Geometry = "8x"
	m, err = c.BuildMixer(mixer.ControlFunc(func(group, index uint8) float64 { return 0 }))
	require.NoError(t, err)
	require.Equal(t, 8, m.Count())

	c.Mixer.Geometry = "3z"
	_, err = c.BuildMixer(mixer.ControlFunc(func(group, index uint8) float64 { return 0 }))
	require.Error(t, err)
}

func TestBuildMixerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hex.mix")
	require.NoError(t, os.WriteFile(path, []byte("R: 6x 10000 10000 10000 0\n"), 0644))

	c := DefaultConfig()
	c.Mixer.Geometry = ""
	c.Mixer.File = path
	m, err := c.BuildMixer(mixer.ControlFunc(func(group, index uint8) float64 { return 0 }))
	require.NoError(t, err)
	require.Equal(t, 6, m.Count())
}

func TestBuildMixerTiltrotor(t *testing.T) {
	c := &Config{Mixer: MixerConfig{Type: MixerTiltrotor}, Rate: 250}
	m, err := c.BuildMixer(mixer.ControlFunc(func(group, index uint8) float64 { return 0 }))
	require.NoError(t, err)
	require.Equal(t, 7, m.Count())
}

func TestMixerConfigTuning(t *testing.T) {
	mc := MixerConfig{Type: MixerMultirotor, Geometry: "4x"}
	tuning, err := mc.Tuning()
	require.NoError(t, err)
	require.Equal(t, 1.0, tuning.RollScale)
	require.Equal(t, 1.0, tuning.PitchScale)
	require.Equal(t, 1.0, tuning.YawScale)
	require.Equal(t, mixer.AirmodeDisabled, tuning.Airmode)

	mc.YawScale = 0.7
	mc.Airmode = "rpy"
	tuning, err = mc.Tuning()
	require.NoError(t, err)
	require.Equal(t, 0.7, tuning.YawScale)
	require.Equal(t, mixer.AirmodeRollPitchYaw, tuning.Airmode)

	mc.Airmode = "hover"
	_, err = mc.Tuning()
	require.Error(t, err)
}
