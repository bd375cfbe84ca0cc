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
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
	"github.com/facebook/flight/mixer"
	log "github.com/sirupsen/logrus"
)

// ProfileHelp is a help message used by flags in main
const ProfileHelp = `Demand profiles are govaluate expressions over the parameter t (seconds),
one per control, for example:
  roll: "0.3 * sin(2 * t)"
  thrust: "min(1, 0.1 * t)"
supported controls:
  roll, pitch, yaw, thrust (all mixers)
  tilt, airspeed (tiltrotor)
supported functions:
  sin(x), cos(x) - radians
  abs(x) - absolute value
  min(a, b), max(a, b)
  step(x) - 0 for x < 0, 1 otherwise; step(t - 2) flips at t = 2s`

var controlIndices = map[string]uint8{
	"roll":     mixer.ControlRoll,
	"pitch":    mixer.ControlPitch,
	"yaw":      mixer.ControlYaw,
	"thrust":   mixer.ControlThrust,
	"tilt":     mixer.ControlTilt,
	"airspeed": mixer.ControlAirspeed,
}

func oneArg(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: wrong number of arguments: want 1, got %d", name, len(args))
		}
		return f(args[0].(float64)), nil
	}
}

func twoArgs(name string, f func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: wrong number of arguments: want 2, got %d", name, len(args))
		}
		return f(args[0].(float64), args[1].(float64)), nil
	}
}

// all the functions we support in profile expressions
var profileFunctions = map[string]govaluate.ExpressionFunction{
	"sin": oneArg("sin", math.Sin),
	"cos": oneArg("cos", math.Cos),
	"abs": oneArg("abs", math.Abs),
	"min": twoArgs("min", math.Min),
	"max": twoArgs("max", math.Max),
	"step": oneArg("step", func(x float64) float64 {
		if x < 0 {
			return 0
		}
		return 1
	}),
}

// Profile evaluates one demand expression per control at the current
// simulation time. It implements mixer.ControlSource for group 0; other
// groups read zero. Not safe for concurrent use: the runner owns it.
type Profile struct {
	exprs map[uint8]*govaluate.EvaluableExpression
	now   map[string]interface{}
}

// ParseProfile compiles a control-name-to-expression map.
func ParseProfile(defs map[string]string) (*Profile, error) {
	p := &Profile{
		exprs: map[uint8]*govaluate.EvaluableExpression{},
		now:   map[string]interface{}{"t": 0.0},
	}
	for name, exprStr := range defs {
		index, ok := controlIndices[name]
		if !ok {
			return nil, fmt.Errorf("unknown control %q", name)
		}
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(exprStr, profileFunctions)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for _, v := range expr.Vars() {
			if v != "t" {
				return nil, fmt.Errorf("%s: unsupported variable %q", name, v)
			}
		}
		p.exprs[index] = expr
	}
	return p, nil
}

// SetTime moves the profile to simulation time t, in seconds.
func (p *Profile) SetTime(t float64) {
	p.now["t"] = t
}

// Get evaluates the control's expression at the current time. Controls
// without an expression read zero.
func (p *Profile) Get(group, index uint8) float64 {
	if group != 0 {
		return 0
	}
	expr, ok := p.exprs[index]
	if !ok {
		return 0
	}
	result, err := expr.Evaluate(p.now)
	if err != nil {
		log.Errorf("evaluating control %d: %v", index, err)
		return 0
	}
	v, ok := result.(float64)
	if !ok {
		log.Errorf("control %d: expression is not numeric", index)
		return 0
	}
	return v
}
