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
	"math"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/exp/constraints"

	"github.com/facebook/flight/mixer"
	"github.com/facebook/flight/mixer/tiltrotor"
	"github.com/facebook/flight/pwm"
)

type status int

// possible check results
const (
	OK status = iota
	WARN
	FAIL
	CRITICAL
)

// checkTarget is the mixer configuration assembled from flags, before
// any validation. Fields stay nil when the corresponding flag was not
// given, the errors carry whatever kept a part from loading.
type checkTarget struct {
	geometry       mixer.Geometry
	geometryErr    error
	tuning         mixer.Tuning
	airmodeErr     error
	airframe       *tiltrotor.Airframe
	airframeErr    error
	calibration    *pwm.Calibration
	calibrationErr error
}

// diagnoser is function that does checks on checkTarget
type diagnoser func(r *checkTarget) (status, string)

var okString = color.GreenString("[ OK ]")
var warnString = color.YellowString("[WARN]")
var failString = color.RedString("[FAIL]")

var statusToColor = []string{okString, warnString, failString}

func fmtThreshold(warnThreshold any) string {
	return color.BlueString("%v", warnThreshold)
}

// generic function to check value against some thresholds
func checkAgainstThreshold[T constraints.Ordered](name string, value, warnThreshold, failThreshold T, explanation string) (status, string) {
	msgTemplate := "%s is %s, we expect it to be within %s%s"
	thresholdStr := fmtThreshold(warnThreshold)

	if value > failThreshold {
		return FAIL, fmt.Sprintf(
			msgTemplate,
			name,
			color.RedString("%v", value),
			thresholdStr,
			". "+explanation,
		)
	}
	if value > warnThreshold {
		return WARN, fmt.Sprintf(
			msgTemplate,
			name,
			color.YellowString("%v", value),
			thresholdStr,
			". "+explanation,
		)
	}
	return OK, fmt.Sprintf(
		msgTemplate,
		name,
		color.GreenString("%v", value),
		thresholdStr,
		"",
	)
}

func checkMixerSource(r *checkTarget) (status, string) {
	if r.geometryErr != nil {
		return CRITICAL, fmt.Sprintf("mixer definition: %v", r.geometryErr)
	}
	if r.airframeErr != nil {
		return CRITICAL, fmt.Sprintf("airframe file: %v", r.airframeErr)
	}
	if r.airframe != nil {
		return OK, "tiltrotor airframe loaded"
	}
	return OK, fmt.Sprintf("multirotor geometry with %d rotors", len(r.geometry))
}

func checkAxisBalance(r *checkTarget) (status, string) {
	var roll, pitch, yaw float64
	for _, rotor := range r.geometry {
		roll += rotor.RollScale
		pitch += rotor.PitchScale
		yaw += rotor.YawScale
	}
	worst := math.Max(math.Abs(roll), math.Max(math.Abs(pitch), math.Abs(yaw)))
	return checkAgainstThreshold(
		"Largest axis imbalance",
		worst,
		0.001,
		0.1,
		"Unbalanced rotor scales produce a net moment at hover",
	)
}

func checkYawAuthority(r *checkTarget) (status, string) {
	largest := 0.0
	for _, rotor := range r.geometry {
		if a := math.Abs(rotor.YawScale); a > largest {
			largest = a
		}
	}
	if largest < 0.1 {
		return FAIL, fmt.Sprintf("Largest yaw scale is %s, the craft cannot hold heading", color.RedString("%v", largest))
	}
	if largest < 0.5 {
		return WARN, fmt.Sprintf("Largest yaw scale is %s, yaw authority is weak", color.YellowString("%v", largest))
	}
	return OK, fmt.Sprintf("Largest yaw scale is %s", color.GreenString("%v", largest))
}

func checkRotorScales(r *checkTarget) (status, string) {
	for i, rotor := range r.geometry {
		moments := []float64{rotor.RollScale, rotor.PitchScale, rotor.YawScale}
		for _, s := range moments {
			if math.Abs(s) > 1 {
				return FAIL, fmt.Sprintf("rotor %d moment scale is %s, we expect it to be within [-1, 1]", i, color.RedString("%v", s))
			}
		}
		if rotor.ThrustScale <= 0 || rotor.ThrustScale > 1 {
			return FAIL, fmt.Sprintf("rotor %d thrust scale is %s, we expect it to be within (0, 1]", i, color.RedString("%v", rotor.ThrustScale))
		}
	}
	return OK, "rotor scales are within range"
}

func checkIdleSpeed(r *checkTarget) (status, string) {
	if r.tuning.IdleSpeed < 0 || r.tuning.IdleSpeed >= 1 {
		return FAIL, fmt.Sprintf("Idle speed is %s, we expect it to be within [0, 1)", color.RedString("%v", r.tuning.IdleSpeed))
	}
	return checkAgainstThreshold(
		"Idle speed",
		r.tuning.IdleSpeed,
		0.2,
		0.5,
		"A high idle leaves the mixer little room below hover thrust",
	)
}

func checkThrustFactor(r *checkTarget) (status, string) {
	if r.tuning.ThrustFactor < 0 || r.tuning.ThrustFactor > 1 {
		return FAIL, fmt.Sprintf("Thrust factor is %s, we expect it to be within [0, 1]", color.RedString("%v", r.tuning.ThrustFactor))
	}
	return OK, fmt.Sprintf("Thrust factor is %s", color.GreenString("%v", r.tuning.ThrustFactor))
}

func checkDemandGains(r *checkTarget) (status, string) {
	gains := []struct {
		name  string
		value float64
	}{
		{"roll", r.tuning.RollScale},
		{"pitch", r.tuning.PitchScale},
		{"yaw", r.tuning.YawScale},
	}
	for _, g := range gains {
		if g.value <= 0 {
			return WARN, fmt.Sprintf("%s gain is %s, a non-positive gain inverts or disables the axis", g.name, color.YellowString("%v", g.value))
		}
		if g.value > 2 {
			return WARN, fmt.Sprintf("%s gain is %s, demands will saturate early", g.name, color.YellowString("%v", g.value))
		}
	}
	return OK, "demand gains are sane"
}

func checkAirmode(r *checkTarget) (status, string) {
	if r.airmodeErr != nil {
		return FAIL, fmt.Sprintf("airmode: %v", r.airmodeErr)
	}
	return OK, fmt.Sprintf("airmode is %s", r.tuning.Airmode)
}

func checkAirframeVersion(r *checkTarget) (status, string) {
	if err := r.airframe.CheckVersion(); err != nil {
		return FAIL, fmt.Sprintf("airframe version: %v", err)
	}
	return OK, fmt.Sprintf("airframe version %s is supported", r.airframe.Version)
}

func checkAirframeLimits(r *checkTarget) (status, string) {
	if err := r.airframe.Validate(); err != nil {
		return FAIL, fmt.Sprintf("airframe limits: %v", err)
	}
	return OK, "airframe limits are sane"
}

func checkCalibration(r *checkTarget) (status, string) {
	if r.calibrationErr != nil {
		return FAIL, fmt.Sprintf("calibration: %v", r.calibrationErr)
	}
	return OK, fmt.Sprintf("calibration pulses within [%d, %d]", pwm.PulseFloor, pwm.PulseCeiling)
}

func checkCalibrationTrims(r *checkTarget) (status, string) {
	largest := 0
	channels := []pwm.Channel{r.calibration.Defaults}
	for _, ch := range r.calibration.Channels {
		channels = append(channels, ch)
	}
	for _, ch := range channels {
		v := int(ch.Trim)
		if v < 0 {
			v = -v
		}
		if v > largest {
			largest = v
		}
	}
	return checkAgainstThreshold(
		"Largest channel trim",
		largest,
		200,
		500,
		"A large trim pins the channel center near a pulse bound",
	)
}

var diagnosers = []diagnoser{
	checkMixerSource,
}

// expandDiagnosers returns extra diagnosers based on the checkTarget content.
// Geometry checks only make sense for multirotor targets, airframe checks
// for tiltrotor ones.
func expandDiagnosers(r *checkTarget) []diagnoser {
	extra := []diagnoser{}
	if r.geometry != nil {
		extra = append(extra, checkAxisBalance, checkYawAuthority, checkRotorScales, checkIdleSpeed, checkThrustFactor, checkDemandGains, checkAirmode)
	}
	if r.airframe != nil {
		extra = append(extra, checkAirframeVersion, checkAirframeLimits)
	}
	if r.calibrationErr != nil {
		extra = append(extra, checkCalibration)
	} else if r.calibration != nil {
		extra = append(extra, checkCalibration, checkCalibrationTrims)
	}
	return extra
}

func runDiagnosers(r *checkTarget, toRun []diagnoser) int {
	failed := 0
	for _, check := range toRun {
		status, msg := check(r)
		if status != OK {
			failed++
		}
		switch status {
		case CRITICAL:
			fmt.Printf("%s %s\n", failString, msg)
			return 127
		default:
			fmt.Printf("%s %s\n", statusToColor[status], msg)
		}
	}
	return failed
}

func runAllDiagnosers(r *checkTarget) int {
	extra := expandDiagnosers(r)
	toRun := append(diagnosers, extra...)
	return runDiagnosers(r, toRun)
}

// gatherTarget loads whatever the flags point at without failing hard,
// so the diagnosers get to report the problems one by one.
func gatherTarget() *checkTarget {
	r := &checkTarget{}
	switch {
	case airframeFlag != "":
		data, err := os.ReadFile(airframeFlag)
		if err != nil {
			r.airframeErr = err
		} else if r.airframe, err = tiltrotor.ParseAirframe(data); err != nil {
			r.airframeErr = err
		}
	case fileFlag != "":
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			r.geometryErr = err
			break
		}
		m, _, err := mixer.FromText(evalControls(), string(data))
		if err != nil {
			r.geometryErr = fmt.Errorf("mixer file %q: %w", fileFlag, err)
			break
		}
		r.geometry = m.Geometry()
		r.tuning = m.Tuning()
	default:
		r.geometry, r.geometryErr = mixer.GeometryByKey(geometryFlag)
		r.tuning, r.airmodeErr = tuningFromFlags()
	}
	if calibrationFlag != "" {
		r.calibration, r.calibrationErr = pwm.ReadCalibration(calibrationFlag)
	}
	return r
}

func init() {
	RootCmd.AddCommand(diagCmd)
	addMixerFlags(diagCmd)
}

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Perform basic mixer configuration diagnosis, report in human-readable form.",
	Long: `Perform basic mixer configuration diagnosis, report in human-readable form.
Runs a set of checks against the mixer configuration given by flags, and
prints the results.
Exit code will be equal to sum of failed checks, or 127 in case of critical problem.
`,
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		exitCode := runAllDiagnosers(gatherTarget())
		os.Exit(exitCode)
	},
}
