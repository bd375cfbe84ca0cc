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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerRun(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "out.csv")
	cfg := &Config{
		Mixer:    MixerConfig{Type: MixerMultirotor, Geometry: "4x"},
		Rate:     1000,
		Duration: 0.01,
		Profile:  map[string]string{"thrust": "0.5"},
		CSV:      csvPath,
	}
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	require.Equal(t, 4, r.Mixer().Count())

	require.NoError(t, r.Run(context.Background()))
	require.NoError(t, r.Close())

	counters := r.Stats().Get()
	require.Equal(t, int64(10), counters["cycles"])
	require.Equal(t, int64(0), counters["cycles.saturated"])

	report := r.Stats().Report()
	require.InDelta(t, 0.5, report.Channels[0].Mean, 1e-9)
	require.InDelta(t, 0, report.Channels[0].Stddev, 1e-9)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 11)
	require.Equal(t, "t,ch0,ch1,ch2,ch3,saturation", lines[0])
	require.Equal(t, "0,0.5,0.5,0.5,0.5,ok", lines[1])
}

func TestRunnerCountsSaturation(t *testing.T) {
	// Full roll at idle thrust pins the mixer against both output limits
	// every cycle.
	cfg := &Config{
		Mixer:    MixerConfig{Type: MixerMultirotor, Geometry: "4x"},
		Rate:     1000,
		Duration: 0.005,
		Profile:  map[string]string{"roll": "1"},
	}
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	counters := r.Stats().Get()
	require.Equal(t, int64(5), counters["cycles"])
	require.Equal(t, int64(5), counters["cycles.saturated"])
	require.Equal(t, int64(5), counters["saturation.thrust.neg"])
}

func TestRunnerCancel(t *testing.T) {
	cfg := &Config{
		Mixer:   MixerConfig{Type: MixerMultirotor, Geometry: "4x"},
		Rate:    1000,
		Profile: map[string]string{"thrust": "0.5"},
	}
	r, err := NewRunner(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.Run(ctx), context.Canceled)
}

func TestNewRunnerErrors(t *testing.T) {
	base := func() *Config {
		return &Config{
			Mixer:   MixerConfig{Type: MixerMultirotor, Geometry: "4x"},
			Rate:    1000,
			Profile: map[string]string{"thrust": "0.5"},
		}
	}

	cfg := base()
	cfg.Rate = 0
	_, err := NewRunner(cfg)
	require.Error(t, err)

	cfg = base()
	cfg.Profile = map[string]string{"thrust": "0.5 +"}
	_, err = NewRunner(cfg)
	require.Error(t, err)

	cfg = base()
	cfg.Mixer.Geometry = "3z"
	_, err = NewRunner(cfg)
	require.Error(t, err)

	cfg = base()
	cfg.CSV = filepath.Join(t.TempDir(), "no", "such", "dir", "out.csv")
	_, err = NewRunner(cfg)
	require.Error(t, err)
}
