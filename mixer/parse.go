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
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrParse is returned for any malformed mixer descriptor. Callers get one
// uniform failure; the specific reason goes to the debug log.
var ErrParse = errors.New("multirotor mixer parse failed")

// FromText parses one textual mixer descriptor of the form
//
//	R: <geometry key> <roll scale> <pitch scale> <yaw scale> <idle speed>
//
// terminated by a newline. The four values are integers scaled by 10000,
// so "5000" means 0.5. On success it returns the mixer and the number of
// bytes consumed including the newline, so callers can keep parsing
// multi-record buffers. On failure the cursor does not advance.
func FromText(controls ControlSource, buf string) (*MultirotorMixer, int, error) {
	// The record must be newline-terminated within the buffer, otherwise
	// it may have been truncated mid-line.
	end := strings.IndexByte(buf, '\n')
	if end < 0 {
		log.Debugf("mixer descriptor has no line ending, record is incomplete")
		return nil, 0, ErrParse
	}
	line := buf[:end]

	var key string
	var s [4]int
	n, err := fmt.Sscanf(line, "R: %7s %d %d %d %d", &key, &s[0], &s[1], &s[2], &s[3])
	if n != 5 {
		log.Debugf("multirotor parse failed on %q: %v", line, err)
		return nil, 0, ErrParse
	}

	geometry, err := GeometryByKey(key)
	if err != nil {
		log.Debugf("mixer descriptor: %v", err)
		return nil, 0, ErrParse
	}

	m, err := NewMultirotorMixer(controls, geometry, Tuning{
		RollScale:  float64(s[0]) / 10000.0,
		PitchScale: float64(s[1]) / 10000.0,
		YawScale:   float64(s[2]) / 10000.0,
		IdleSpeed:  float64(s[3]) / 10000.0,
	})
	if err != nil {
		log.Debugf("mixer descriptor %q: %v", line, err)
		return nil, 0, ErrParse
	}

	log.Debugf("adding multirotor mixer '%s'", key)
	return m, end + 1, nil
}
