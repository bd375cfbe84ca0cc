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
	"fmt"
	"sort"
)

// Built-in geometries, keyed by the short names used in mixer files.
// Scales are normalized: roll/pitch from the rotor position projected on the
// body axes, yaw from the spin direction.
var geometries = map[string]Geometry{
	"4x": {
		{RollScale: -0.707107, PitchScale: 0.707107, YawScale: 1.0, ThrustScale: 1.0},
		{RollScale: 0.707107, PitchScale: -0.707107, YawScale: 1.0, ThrustScale: 1.0},
		{RollScale: 0.707107, PitchScale: 0.707107, YawScale: -1.0, ThrustScale: 1.0},
		{RollScale: -0.707107, PitchScale: -0.707107, YawScale: -1.0, ThrustScale: 1.0},
	},
	"4+": {
		{RollScale: -1.0, PitchScale: 0.0, YawScale: 1.0, ThrustScale: 1.0},
		{RollScale: 1.0, PitchScale: 0.0, YawScale: 1.0, ThrustScale: 1.0},
		{RollScale: 0.0, PitchScale: 1.0, YawScale: -1.0, ThrustScale: 1.0},
		{RollScale: 0.0, PitchScale: -1.0, YawScale: -1.0, ThrustScale: 1.0},
	},
	"6x": {
		{RollScale: -1.0, PitchScale: 0.0, YawScale: -1.0, ThrustScale: 1.0},
		{RollScale: 1.0, PitchScale: 0.0, YawScale: 1.0, ThrustScale: 1.0},
		{RollScale: 0.5, PitchScale: 0.866025, YawScale: -1.0, ThrustScale: 1.0},
		{RollScale: -0.5, PitchScale: -0.866025, YawScale: 1.0, ThrustScale: 1.0},
		{RollScale: -0.5, PitchScale: 0.866025, YawScale: 1.0, ThrustScale: 1.0},
		{RollScale: 0.5, PitchScale: -0.866025, YawScale: -1.0, ThrustScale: 1.0},
	},
	"8x": {
		{RollScale: -0.382683, PitchScale: 0.923880, YawScale: -1.0, ThrustScale: 1.0},
		{RollScale: 0.382683, PitchScale: -0.923880, YawScale: -1.0, ThrustScale: 1.0},
		{RollScale: -0.923880, PitchScale: 0.382683, YawScale: 1.0, ThrustScale: 1.0},
		{RollScale: -0.382683, PitchScale: -0.923880, YawScale: 1.0, ThrustScale: 1.0},
		{RollScale: 0.382683, PitchScale: 0.923880, YawScale: 1.0, ThrustScale: 1.0},
		{RollScale: 0.923880, PitchScale: -0.382683, YawScale: -1.0, ThrustScale: 1.0},
		{RollScale: 0.923880, PitchScale: 0.382683, YawScale: -1.0, ThrustScale: 1.0},
		{RollScale: -0.923880, PitchScale: -0.382683, YawScale: 1.0, ThrustScale: 1.0},
	},
}

// Geometries returns the keys of all built-in geometries, sorted.
func Geometries() []string {
	keys := make([]string, 0, len(geometries))
	for k := range geometries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GeometryByKey returns a copy of the built-in geometry with the given key.
func GeometryByKey(key string) (Geometry, error) {
	g, ok := geometries[key]
	if !ok {
		return nil, fmt.Errorf("unknown rotor geometry %q", key)
	}
	out := make(Geometry, len(g))
	copy(out, g)
	return out, nil
}
