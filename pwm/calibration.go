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

// Package pwm converts normalized mixer outputs into servo pulse widths.
// Calibration data comes from an INI file with a [defaults] section and
// optional per-channel [channel.N] overrides.
package pwm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
	log "github.com/sirupsen/logrus"
)

// Hardware limits for sane servo pulses, microseconds.
const (
	PulseFloor   = 800
	PulseCeiling = 2200
)

// Channel is the calibration of one output channel.
type Channel struct {
	Min      uint16 // µs
	Max      uint16 // µs
	Trim     int16  // µs, offset applied to the center position
	Reversed bool
}

// DefaultChannel is the calibration used where a channel has no override.
var DefaultChannel = Channel{Min: 1000, Max: 2000}

// Calibration maps mixer outputs to pulse widths for a set of channels.
type Calibration struct {
	Defaults Channel
	Channels map[int]Channel
}

// NewCalibration returns a calibration where every channel uses
// DefaultChannel.
func NewCalibration() *Calibration {
	return &Calibration{
		Defaults: DefaultChannel,
		Channels: map[int]Channel{},
	}
}

// Channel returns the effective calibration of one channel.
func (c *Calibration) Channel(ch int) Channel {
	if override, ok := c.Channels[ch]; ok {
		return override
	}
	return c.Defaults
}

// Pulse maps a bipolar mixer output in [-1, 1] onto the channel's pulse
// range: center plus trim, offset by half the span, clamped to [Min, Max].
func (c *Calibration) Pulse(ch int, out float64) uint16 {
	cal := c.Channel(ch)
	if out < -1 {
		out = -1
	} else if out > 1 {
		out = 1
	}
	if cal.Reversed {
		out = -out
	}

	center := (float64(cal.Min)+float64(cal.Max))/2 + float64(cal.Trim)
	half := float64(cal.Max-cal.Min) / 2
	pulse := center + out*half

	if pulse < float64(cal.Min) {
		return cal.Min
	}
	if pulse > float64(cal.Max) {
		return cal.Max
	}
	return uint16(pulse)
}

// FromUnipolar rescales a motor-style output in [0, 1] to the bipolar
// range Pulse expects.
func FromUnipolar(v float64) float64 {
	return 2*v - 1
}

// Validate checks one channel against the hardware pulse limits.
func (ch Channel) Validate() error {
	if ch.Min >= ch.Max {
		return fmt.Errorf("min pulse %d must be below max pulse %d", ch.Min, ch.Max)
	}
	if ch.Min < PulseFloor {
		return fmt.Errorf("min pulse %d below %d", ch.Min, PulseFloor)
	}
	if ch.Max > PulseCeiling {
		return fmt.Errorf("max pulse %d above %d", ch.Max, PulseCeiling)
	}
	return nil
}

// Validate checks the defaults and every per-channel override.
func (c *Calibration) Validate() error {
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for ch, cal := range c.Channels {
		if ch < 0 {
			return fmt.Errorf("channel %d: negative channel number", ch)
		}
		if err := cal.Validate(); err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
	}
	return nil
}

func readChannel(s *ini.Section, base Channel) (Channel, error) {
	ch := base
	if k, err := s.GetKey("min"); err == nil {
		v, err := k.Uint()
		if err != nil || v > PulseCeiling {
			return ch, fmt.Errorf("bad min pulse %q", k.Value())
		}
		ch.Min = uint16(v)
	}
	if k, err := s.GetKey("max"); err == nil {
		v, err := k.Uint()
		if err != nil || v > PulseCeiling {
			return ch, fmt.Errorf("bad max pulse %q", k.Value())
		}
		ch.Max = uint16(v)
	}
	if k, err := s.GetKey("trim"); err == nil {
		v, err := k.Int()
		if err != nil || v < -500 || v > 500 {
			return ch, fmt.Errorf("bad trim %q", k.Value())
		}
		ch.Trim = int16(v)
	}
	if k, err := s.GetKey("reversed"); err == nil {
		v, err := k.Bool()
		if err != nil {
			return ch, fmt.Errorf("reversed: %w", err)
		}
		ch.Reversed = v
	}
	return ch, nil
}

// ReadCalibration loads a calibration file. Source can be anything
// ini.Load accepts: a path, a byte slice or a reader.
func ReadCalibration(source interface{}) (*Calibration, error) {
	f, err := ini.Load(source)
	if err != nil {
		return nil, fmt.Errorf("loading calibration: %w", err)
	}

	c := NewCalibration()
	// Defaults first: channel overrides inherit from them no matter where
	// the sections sit in the file.
	if s, err := f.GetSection("defaults"); err == nil {
		c.Defaults, err = readChannel(s, DefaultChannel)
		if err != nil {
			return nil, fmt.Errorf("defaults: %w", err)
		}
	}
	for _, s := range f.Sections() {
		name := s.Name()
		switch {
		case name == ini.DefaultSection || name == "defaults":
			// The empty top section always exists; defaults were
			// handled above.
		case strings.HasPrefix(name, "channel."):
			n, err := strconv.Atoi(strings.TrimPrefix(name, "channel."))
			if err != nil {
				return nil, fmt.Errorf("bad channel section %q", name)
			}
			ch, err := readChannel(s, c.Defaults)
			if err != nil {
				return nil, fmt.Errorf("channel %d: %w", n, err)
			}
			c.Channels[n] = ch
			log.Debugf("channel %d calibration: %+v", n, ch)
		default:
			return nil, fmt.Errorf("unknown section %q", name)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
