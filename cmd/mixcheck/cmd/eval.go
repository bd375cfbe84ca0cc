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
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/flight/mixer"
	"github.com/facebook/flight/mixer/tiltrotor"
	"github.com/facebook/flight/pwm"
)

// flags
var (
	evalRollFlag     float64
	evalPitchFlag    float64
	evalYawFlag      float64
	evalThrustFlag   float64
	evalTiltFlag     float64
	evalAirspeedFlag float64
	evalSlewFlag     float64
	evalCyclesFlag   int
	evalDumpFlag     bool
)

func init() {
	RootCmd.AddCommand(evalCmd)
	addMixerFlags(evalCmd)
	evalCmd.Flags().Float64VarP(&evalRollFlag, "roll", "r", 0, "roll demand in [-1, 1]")
	evalCmd.Flags().Float64VarP(&evalPitchFlag, "pitch", "p", 0, "pitch demand in [-1, 1]")
	evalCmd.Flags().Float64VarP(&evalYawFlag, "yaw", "y", 0, "yaw demand in [-1, 1]")
	evalCmd.Flags().Float64VarP(&evalThrustFlag, "thrust", "t", 0, "thrust demand in [0, 1]")
	evalCmd.Flags().Float64Var(&evalTiltFlag, "tilt", 0, "tilt demand in [-1, 1], tiltrotor only")
	evalCmd.Flags().Float64Var(&evalAirspeedFlag, "airspeed", 0, "airspeed fraction in [0, 1], tiltrotor only")
	evalCmd.Flags().Float64Var(&evalSlewFlag, "slew", 0, "per-cycle output delta limit, 0 disables slew limiting")
	evalCmd.Flags().IntVarP(&evalCyclesFlag, "cycles", "n", 1, "number of mix cycles to run")
	evalCmd.Flags().BoolVar(&evalDumpFlag, "dump", false, "dump mixer internals after the run")
}

// evalControls feeds the demand flags to the mixer.
func evalControls() mixer.ControlSource {
	return mixer.ControlFunc(func(group, index uint8) float64 {
		if group != 0 {
			return 0
		}
		switch index {
		case mixer.ControlRoll:
			return evalRollFlag
		case mixer.ControlPitch:
			return evalPitchFlag
		case mixer.ControlYaw:
			return evalYawFlag
		case mixer.ControlThrust:
			return evalThrustFlag
		case mixer.ControlTilt:
			return evalTiltFlag
		case mixer.ControlAirspeed:
			return evalAirspeedFlag
		}
		return 0
	})
}

func channelFunction(m mixer.Mixer, ch int) string {
	if _, ok := m.(*tiltrotor.Mixer); ok {
		switch ch {
		case tiltrotor.ChannelTiltLeft:
			return "tilt left"
		case tiltrotor.ChannelTiltRight:
			return "tilt right"
		case tiltrotor.ChannelAileron:
			return "aileron"
		}
	}
	return fmt.Sprintf("rotor %d", ch)
}

func runEval() error {
	m, err := mixerFromFlags(evalControls())
	if err != nil {
		return err
	}
	var cal *pwm.Calibration
	if calibrationFlag != "" {
		if cal, err = pwm.ReadCalibration(calibrationFlag); err != nil {
			return err
		}
	}

	outputs := make([]float64, m.Count())
	n := 0
	for i := 0; i < evalCyclesFlag; i++ {
		if evalSlewFlag > 0 {
			// Mix consumes the slew budget, arm it again every cycle.
			m.SetSlewRateLimit(evalSlewFlag)
		}
		n = m.Mix(outputs)
	}

	_, bipolar := m.(*tiltrotor.Mixer)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(20)
	header := []string{"channel", "function", "output"}
	if cal != nil {
		header = append(header, "pulse (us)")
	}
	table.SetHeader(header)
	for i, out := range outputs[:n] {
		row := []string{
			strconv.Itoa(i),
			channelFunction(m, i),
			strconv.FormatFloat(out, 'f', 6, 64),
		}
		if cal != nil {
			// Motor outputs are unipolar, servo channels already
			// span the full range.
			v := out
			if !bipolar {
				v = pwm.FromUnipolar(out)
			}
			row = append(row, strconv.Itoa(int(cal.Pulse(i, v))))
		}
		table.Append(row)
	}
	table.Render()

	fmt.Printf("saturation: %s\n", m.SaturationStatus())
	if evalDumpFlag {
		spew.Dump(m)
	}
	return nil
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Mix a fixed set of demands and print the actuator outputs.",
	Long: `Mix a fixed set of demands and print the actuator outputs.
Builds a mixer from flags, feeds it the given demands for a number of
cycles and prints the resulting outputs together with the saturation
summary. With a calibration file the table also shows PWM pulse widths.
`,
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := runEval(); err != nil {
			log.Fatal(err)
		}
	},
}
