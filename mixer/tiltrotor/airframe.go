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

package tiltrotor

import (
	"fmt"
	"math"
	"os"

	version "github.com/hashicorp/go-version"
	"gopkg.in/yaml.v2"
)

// Airframe file format versions we can load.
const supportedVersions = ">= 1.0, < 2.0"

// Airframe holds every craft-specific number of the tiltrotor allocation:
// geometry, rotor and aerodynamic coefficients, demand limits and output
// calibrations. Values load from a YAML file so a new craft is a data
// change, not a code change.
type Airframe struct {
	Version string `yaml:"version"`

	// Rotor geometry relative to the center of gravity, meters.
	HubHeight  float64 `yaml:"hub_height"`  // rotor hubs above the CG plane
	YawArm     float64 `yaml:"yaw_arm"`     // lateral arm of the yaw couple
	LateralArm float64 `yaml:"lateral_arm"` // CG to nacelle centerline
	FrontArm   float64 `yaml:"front_arm"`   // CG to front rotor axis
	RearArm    float64 `yaml:"rear_arm"`    // CG to rear rotor axis

	// Rotor coefficients; their ratio converts thrust to reaction torque.
	ThrustCoefficient float64 `yaml:"thrust_coefficient"`
	TorqueCoefficient float64 `yaml:"torque_coefficient"`

	// Maximum differential tilt the solver may add per side, radians.
	TiltCorrectionMax float64 `yaml:"tilt_correction_max"`

	// Control surface effectiveness derivatives and wing geometry.
	RollDerivative  float64 `yaml:"roll_derivative"`
	PitchDerivative float64 `yaml:"pitch_derivative"`
	YawDerivative   float64 `yaml:"yaw_derivative"`
	WingArea        float64 `yaml:"wing_area"`  // m^2
	WingSpan        float64 `yaml:"wing_span"`  // m
	WingChord       float64 `yaml:"wing_chord"` // mean chord, m
	AirDensity      float64 `yaml:"air_density"`

	// Control surface deflection limits, radians.
	DeflectionMin float64 `yaml:"deflection_min"`
	DeflectionMax float64 `yaml:"deflection_max"`

	// Demand denormalization limits: a demand of 1.0 maps to these.
	ThrustMax   float64 `yaml:"thrust_max"`   // N
	TiltMax     float64 `yaml:"tilt_max"`     // rad
	MomentMax   float64 `yaml:"moment_max"`   // N*m
	AirspeedMax float64 `yaml:"airspeed_max"` // m/s

	// Surfaces ramp in over [start, start+range] m/s of airspeed.
	SurfaceRampStart float64 `yaml:"surface_ramp_start"`
	SurfaceRampRange float64 `yaml:"surface_ramp_range"`

	// Differential tilt ramps in over [start, start+range] N of thrust.
	TiltRampStart float64 `yaml:"tilt_ramp_start"`
	TiltRampRange float64 `yaml:"tilt_ramp_range"`

	// Rotor calibration: thrust in newtons to normalized command,
	// cmd = offset + sqrt(bias + gain*thrust). The inverse of the static
	// quadratic thrust curve of the rotor/ESC pair.
	CommandOffset float64 `yaml:"command_offset"`
	CommandBias   float64 `yaml:"command_bias"`
	CommandGain   float64 `yaml:"command_gain"`

	// Tilt servo linearization, radians to normalized command.
	TiltServoGain   float64 `yaml:"tilt_servo_gain"`
	TiltServoOffset float64 `yaml:"tilt_servo_offset"`
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// DefaultAirframe returns the parameters of the reference craft.
func DefaultAirframe() *Airframe {
	return &Airframe{
		Version: "1.0",

		HubHeight:  0.015,
		YawArm:     0.29,
		LateralArm: 0.1575,
		FrontArm:   0.105,
		RearArm:    0.105,

		ThrustCoefficient: 1.11919e-5,
		TorqueCoefficient: 1.99017e-7,

		TiltCorrectionMax: radians(10.0),

		RollDerivative:  0.058649,
		PitchDerivative: 0.55604,
		YawDerivative:   0.055604,
		WingArea:        0.4266,
		WingSpan:        2.0,
		WingChord:       0.2,
		AirDensity:      1.2,

		DeflectionMin: radians(-35.0),
		DeflectionMax: radians(35.0),

		ThrustMax:   48.0,
		TiltMax:     radians(90.0),
		MomentMax:   2.0,
		AirspeedMax: 40.0,

		SurfaceRampStart: 4.0,
		SurfaceRampRange: 6.0,

		TiltRampStart: 2.0,
		TiltRampRange: 4.0,

		CommandOffset: -1.146746,
		CommandBias:   0.0821782,
		CommandGain:   0.355259,

		TiltServoGain:   0.9602,
		TiltServoOffset: 0.7106,
	}
}

// ParseAirframe decodes an airframe description over the default
// parameter set. Omitted fields keep their defaults, unknown fields are
// rejected. The caller still has to run CheckVersion and Validate.
func ParseAirframe(data []byte) (*Airframe, error) {
	a := DefaultAirframe()
	// The file must declare which format version it speaks.
	a.Version = ""
	if err := yaml.UnmarshalStrict(data, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ReadAirframe loads an airframe description from a YAML file and
// checks the file format version and the parameter limits.
func ReadAirframe(path string) (*Airframe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := ParseAirframe(data)
	if err != nil {
		return nil, fmt.Errorf("parsing airframe file %q: %w", path, err)
	}
	if err := a.CheckVersion(); err != nil {
		return nil, fmt.Errorf("airframe file %q: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("airframe file %q: %w", path, err)
	}
	return a, nil
}

// CheckVersion verifies the file format version against the supported range.
func (a *Airframe) CheckVersion() error {
	if a.Version == "" {
		return fmt.Errorf("no version")
	}
	v, err := version.NewVersion(a.Version)
	if err != nil {
		return fmt.Errorf("bad version %q: %w", a.Version, err)
	}
	constraints, err := version.NewConstraint(supportedVersions)
	if err != nil {
		return err
	}
	if !constraints.Check(v) {
		return fmt.Errorf("version %s outside supported range %q", a.Version, supportedVersions)
	}
	return nil
}

// Validate rejects parameter sets the allocation cannot work with.
func (a *Airframe) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"yaw_arm", a.YawArm},
		{"lateral_arm", a.LateralArm},
		{"front_arm", a.FrontArm},
		{"rear_arm", a.RearArm},
		{"thrust_coefficient", a.ThrustCoefficient},
		{"torque_coefficient", a.TorqueCoefficient},
		{"tilt_correction_max", a.TiltCorrectionMax},
		{"roll_derivative", a.RollDerivative},
		{"pitch_derivative", a.PitchDerivative},
		{"yaw_derivative", a.YawDerivative},
		{"wing_area", a.WingArea},
		{"wing_span", a.WingSpan},
		{"wing_chord", a.WingChord},
		{"air_density", a.AirDensity},
		{"thrust_max", a.ThrustMax},
		{"tilt_max", a.TiltMax},
		{"moment_max", a.MomentMax},
		{"airspeed_max", a.AirspeedMax},
		{"surface_ramp_range", a.SurfaceRampRange},
		{"tilt_ramp_range", a.TiltRampRange},
		{"command_gain", a.CommandGain},
		{"tilt_servo_gain", a.TiltServoGain},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", p.name, p.value)
		}
	}
	if a.DeflectionMin >= a.DeflectionMax {
		return fmt.Errorf("deflection_min %v not below deflection_max %v", a.DeflectionMin, a.DeflectionMax)
	}
	if a.CommandBias < 0 {
		return fmt.Errorf("command_bias must not be negative, got %v", a.CommandBias)
	}
	return nil
}

// RotorCommand maps rotor thrust in newtons to a normalized command through
// the calibration curve. Thrusts below the curve floor clamp to its minimum.
func (a *Airframe) RotorCommand(thrust float64) float64 {
	return a.CommandOffset + math.Sqrt(math.Max(0, a.CommandBias+a.CommandGain*thrust))
}

// TiltServoLeft maps the left nacelle tilt angle to its servo command.
func (a *Airframe) TiltServoLeft(chi float64) float64 {
	return -a.TiltServoGain*chi + a.TiltServoOffset
}

// TiltServoRight maps the right nacelle tilt angle to its servo command.
func (a *Airframe) TiltServoRight(chi float64) float64 {
	return a.TiltServoGain*chi - a.TiltServoOffset
}

// SurfaceCommand normalizes an aileron deflection into a [-1, 1] servo
// command within the deflection limits.
func (a *Airframe) SurfaceCommand(delta float64) float64 {
	return -(2*delta - (a.DeflectionMax + a.DeflectionMin)) / (a.DeflectionMax - a.DeflectionMin)
}
