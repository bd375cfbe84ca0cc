// Package sim drives a mixer in an offline fixed-rate loop: demand profiles
// in, actuator outputs and saturation statistics out. It exists to study
// mixing behaviour on a desk, not to fly anything.
package sim

import (
	"fmt"
	"os"
	"time"

	"github.com/facebook/flight/mixer"
	"github.com/facebook/flight/mixer/tiltrotor"
	yaml "gopkg.in/yaml.v2"
)

// Mixer type names accepted in configs.
const (
	MixerMultirotor = "multirotor"
	MixerTiltrotor  = "tiltrotor"
)

// MixerConfig selects and tunes the mixer under simulation.
type MixerConfig struct {
	Type string `yaml:"type"`
	// Multirotor: built-in geometry key, or a mixer file with R: records.
	Geometry string `yaml:"geometry,omitempty"`
	File     string `yaml:"file,omitempty"`
	Airmode  string `yaml:"airmode,omitempty"`
	// Tuning applied with a geometry key; zero scales mean 1.0.
	RollScale    float64 `yaml:"roll_scale,omitempty"`
	PitchScale   float64 `yaml:"pitch_scale,omitempty"`
	YawScale     float64 `yaml:"yaw_scale,omitempty"`
	IdleSpeed    float64 `yaml:"idle_speed,omitempty"`
	ThrustFactor float64 `yaml:"thrust_factor,omitempty"`
	// Tiltrotor: airframe file; built-in defaults when empty.
	Airframe string `yaml:"airframe,omitempty"`
}

// Config specifies one simulation run.
type Config struct {
	Mixer MixerConfig `yaml:"mixer"`

	Rate     float64 `yaml:"rate"`      // cycles per second
	Duration float64 `yaml:"duration"`  // seconds, 0 runs until cancelled
	SlewRate float64 `yaml:"slew_rate"` // output fraction per second, 0 disables

	// Demand expressions per control, evaluated with parameter t.
	Profile map[string]string `yaml:"profile"`

	MonitoringPort int    `yaml:"monitoring_port"` // 0 disables the HTTP server
	CSV            string `yaml:"csv,omitempty"`   // per-cycle output log
}

// DefaultConfig returns a runnable configuration: a stock quad X hovering
// at half throttle for five seconds.
func DefaultConfig() *Config {
	return &Config{
		Mixer:    MixerConfig{Type: MixerMultirotor, Geometry: "4x"},
		Rate:     250,
		Duration: 5,
		Profile:  map[string]string{"thrust": "0.5"},
	}
}

// ReadConfig reads a config from a YAML file on top of the defaults.
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalStrict(cData, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the parts of the config the runner depends on. Profile
// expressions and mixer files are checked when they are parsed.
func (c *Config) Validate() error {
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %v", c.Rate)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", c.Duration)
	}
	if c.SlewRate < 0 {
		return fmt.Errorf("slew_rate must not be negative, got %v", c.SlewRate)
	}
	if c.MonitoringPort < 0 || c.MonitoringPort > 65535 {
		return fmt.Errorf("bad monitoring_port %d", c.MonitoringPort)
	}
	switch c.Mixer.Type {
	case MixerMultirotor:
		if c.Mixer.Geometry == "" && c.Mixer.File == "" {
			return fmt.Errorf("multirotor mixer needs a geometry or a file")
		}
		if c.Mixer.Geometry != "" && c.Mixer.File != "" {
			return fmt.Errorf("geometry and file are mutually exclusive")
		}
	case MixerTiltrotor:
		if c.Mixer.Geometry != "" || c.Mixer.File != "" {
			return fmt.Errorf("tiltrotor mixer takes an airframe, not a geometry or file")
		}
	default:
		return fmt.Errorf("unknown mixer type %q", c.Mixer.Type)
	}
	return nil
}

// Interval returns the cycle interval corresponding to Rate.
func (c *Config) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.Rate)
}

// Tuning assembles the multirotor tuning from the config, defaulting the
// axis scales to 1.
func (m *MixerConfig) Tuning() (mixer.Tuning, error) {
	airmode, err := mixer.ParseAirmode(m.Airmode)
	if err != nil {
		return mixer.Tuning{}, err
	}
	t := mixer.Tuning{
		RollScale:    m.RollScale,
		PitchScale:   m.PitchScale,
		YawScale:     m.YawScale,
		IdleSpeed:    m.IdleSpeed,
		ThrustFactor: m.ThrustFactor,
		Airmode:      airmode,
	}
	if t.RollScale == 0 {
		t.RollScale = 1
	}
	if t.PitchScale == 0 {
		t.PitchScale = 1
	}
	if t.YawScale == 0 {
		t.YawScale = 1
	}
	return t, nil
}

// BuildMixer constructs the configured mixer around the given control
// source.
func (c *Config) BuildMixer(controls mixer.ControlSource) (mixer.Mixer, error) {
	switch c.Mixer.Type {
	case MixerMultirotor:
		if c.Mixer.File != "" {
			buf, err := os.ReadFile(c.Mixer.File)
			if err != nil {
				return nil, err
			}
			m, _, err := mixer.FromText(controls, string(buf))
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %w", c.Mixer.File, err)
			}
			return m, nil
		}
		geometry, err := mixer.GeometryByKey(c.Mixer.Geometry)
		if err != nil {
			return nil, err
		}
		tuning, err := c.Mixer.Tuning()
		if err != nil {
			return nil, err
		}
		return mixer.NewMultirotorMixer(controls, geometry, tuning)
	case MixerTiltrotor:
		airframe := tiltrotor.DefaultAirframe()
		if c.Mixer.Airframe != "" {
			var err error
			airframe, err = tiltrotor.ReadAirframe(c.Mixer.Airframe)
			if err != nil {
				return nil, err
			}
		}
		return tiltrotor.New(controls, airframe)
	}
	return nil, fmt.Errorf("unknown mixer type %q", c.Mixer.Type)
}
