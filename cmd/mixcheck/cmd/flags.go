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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/facebook/flight/mixer"
	"github.com/facebook/flight/mixer/tiltrotor"
)

// flags shared between eval and diag, both build the same mixer
var (
	geometryFlag     string
	fileFlag         string
	airframeFlag     string
	airmodeFlag      string
	rollScaleFlag    float64
	pitchScaleFlag   float64
	yawScaleFlag     float64
	idleSpeedFlag    float64
	thrustFactorFlag float64
	calibrationFlag  string
)

func addMixerFlags(c *cobra.Command) {
	c.Flags().StringVarP(&geometryFlag, "geometry", "g", "4x", "built-in rotor geometry key, see the geometries command")
	c.Flags().StringVarP(&fileFlag, "file", "f", "", "multirotor mixer definition file, overrides --geometry")
	c.Flags().StringVar(&airframeFlag, "airframe", "", "tiltrotor airframe YAML, replaces --geometry and --file")
	c.Flags().StringVar(&airmodeFlag, "airmode", "disabled", "airmode: disabled, roll_pitch or roll_pitch_yaw")
	c.Flags().Float64Var(&rollScaleFlag, "roll-scale", 1, "roll demand gain")
	c.Flags().Float64Var(&pitchScaleFlag, "pitch-scale", 1, "pitch demand gain")
	c.Flags().Float64Var(&yawScaleFlag, "yaw-scale", 1, "yaw demand gain")
	c.Flags().Float64Var(&idleSpeedFlag, "idle-speed", 0, "motor output floor while armed, fraction of full range")
	c.Flags().Float64Var(&thrustFactorFlag, "thrust-factor", 0, "quadratic motor thrust model factor, 0 disables the correction")
	c.Flags().StringVarP(&calibrationFlag, "calibration", "c", "", "PWM calibration INI file")
}

func tuningFromFlags() (mixer.Tuning, error) {
	airmode, err := mixer.ParseAirmode(airmodeFlag)
	return mixer.Tuning{
		RollScale:    rollScaleFlag,
		PitchScale:   pitchScaleFlag,
		YawScale:     yawScaleFlag,
		IdleSpeed:    idleSpeedFlag,
		ThrustFactor: thrustFactorFlag,
		Airmode:      airmode,
	}, err
}

// mixerFromFlags builds the mixer under inspection. The airframe flag
// selects the tiltrotor mixer, otherwise a multirotor mixer comes from
// a definition file or the built-in geometry catalog. Definition files
// carry their own scales and idle speed, so the tuning flags only apply
// to the catalog path.
func mixerFromFlags(controls mixer.ControlSource) (mixer.Mixer, error) {
	if airframeFlag != "" {
		airframe, err := tiltrotor.ReadAirframe(airframeFlag)
		if err != nil {
			return nil, err
		}
		return tiltrotor.New(controls, airframe)
	}
	if fileFlag != "" {
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return nil, err
		}
		m, _, err := mixer.FromText(controls, string(data))
		if err != nil {
			return nil, fmt.Errorf("mixer file %q: %w", fileFlag, err)
		}
		return m, nil
	}
	geometry, err := mixer.GeometryByKey(geometryFlag)
	if err != nil {
		return nil, err
	}
	tuning, err := tuningFromFlags()
	if err != nil {
		return nil, err
	}
	return mixer.NewMultirotorMixer(controls, geometry, tuning)
}
