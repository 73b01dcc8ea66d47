package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/relclock/internal/kepler"
)

const (
	DefaultExperiment      = "offset"
	DefaultA               = 29600000.0
	DefaultIncDeg          = 56.0
	DefaultDurationHours   = 24.0
	DefaultSamples         = 5000
	DefaultIterations      = kepler.DefaultIterations
	DefaultBroadcastPoints = 500
	DefaultDays            = 7.0
	DefaultDayPoints       = 8
	DefaultDailyOffset     = 38.0e-6
	DefaultOrbits          = 500
	DefaultSamplesPerOrbit = 4000
	DefaultIncPoints       = 181
	DefaultStepper         = "rk4"
	DefaultSteps           = 2000
	DefaultOutputDir       = ".relclock"

	// EnvPrefix is prepended to upper-cased keys, e.g. RELCLOCK_ORBIT_E.
	EnvPrefix = "relclock"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Experiment      string           `yaml:"experiment" mapstructure:"experiment"`
	LogLevel        string           `yaml:"log_level" mapstructure:"log_level"`
	Orbit           OrbitConfig      `yaml:"orbit" mapstructure:"orbit"`
	Sampling        SamplingConfig   `yaml:"sampling" mapstructure:"sampling"`
	Propagator      PropagatorConfig `yaml:"propagator" mapstructure:"propagator"`
	GNSS            GNSSConfig       `yaml:"gnss" mapstructure:"gnss"`
	Gravitomagnetic GMConfig         `yaml:"gravitomagnetic" mapstructure:"gravitomagnetic"`
	Verify          VerifyConfig     `yaml:"verify" mapstructure:"verify"`
	Batch           BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Output          OutputConfig     `yaml:"output" mapstructure:"output"`
}

// OrbitConfig holds elements in meters and degrees. A zero Mu means Earth.
type OrbitConfig struct {
	A               float64 `yaml:"a" mapstructure:"a"`
	E               float64 `yaml:"e" mapstructure:"e"`
	IncDeg          float64 `yaml:"inc_deg" mapstructure:"inc_deg"`
	RAANDeg         float64 `yaml:"raan_deg" mapstructure:"raan_deg"`
	ArgPeriapsisDeg float64 `yaml:"arg_periapsis_deg" mapstructure:"arg_periapsis_deg"`
	MeanAnomalyDeg  float64 `yaml:"mean_anomaly_deg" mapstructure:"mean_anomaly_deg"`
	Mu              float64 `yaml:"mu" mapstructure:"mu"`
}

type SamplingConfig struct {
	DurationHours float64 `yaml:"duration_hours" mapstructure:"duration_hours"`
	Samples       int     `yaml:"samples" mapstructure:"samples"`
}

type PropagatorConfig struct {
	Iterations int     `yaml:"iterations" mapstructure:"iterations"`
	Tolerance  float64 `yaml:"tolerance" mapstructure:"tolerance"`
	Workers    int     `yaml:"workers" mapstructure:"workers"`
}

type GNSSConfig struct {
	BroadcastPoints int     `yaml:"broadcast_points" mapstructure:"broadcast_points"`
	Days            float64 `yaml:"days" mapstructure:"days"`
	DayPoints       int     `yaml:"day_points" mapstructure:"day_points"`
	DailyOffset     float64 `yaml:"daily_offset" mapstructure:"daily_offset"`
}

type GMConfig struct {
	Orbits          int `yaml:"orbits" mapstructure:"orbits"`
	SamplesPerOrbit int `yaml:"samples_per_orbit" mapstructure:"samples_per_orbit"`
	IncPoints       int `yaml:"inc_points" mapstructure:"inc_points"`
}

type VerifyConfig struct {
	Stepper string  `yaml:"stepper" mapstructure:"stepper"`
	Steps   int     `yaml:"steps" mapstructure:"steps"`
	Orbits  float64 `yaml:"orbits" mapstructure:"orbits"`
}

// BatchConfig bounds concurrent experiment runs in a sweep. Zero means
// GOMAXPROCS. Propagator.Workers is the separate per-call split.
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// SweepWorkers returns the effective sweep concurrency.
func (b BatchConfig) SweepWorkers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return runtime.GOMAXPROCS(0)
}

type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Experiment: DefaultExperiment,
		LogLevel:   "info",
		Orbit: OrbitConfig{
			A:      DefaultA,
			IncDeg: DefaultIncDeg,
		},
		Sampling: SamplingConfig{
			DurationHours: DefaultDurationHours,
			Samples:       DefaultSamples,
		},
		Propagator: PropagatorConfig{
			Iterations: DefaultIterations,
		},
		GNSS: GNSSConfig{
			BroadcastPoints: DefaultBroadcastPoints,
			Days:            DefaultDays,
			DayPoints:       DefaultDayPoints,
			DailyOffset:     DefaultDailyOffset,
		},
		Gravitomagnetic: GMConfig{
			Orbits:          DefaultOrbits,
			SamplesPerOrbit: DefaultSamplesPerOrbit,
			IncPoints:       DefaultIncPoints,
		},
		Verify: VerifyConfig{
			Stepper: DefaultStepper,
			Steps:   DefaultSteps,
			Orbits:  1,
		},
		Output: OutputConfig{
			Dir: DefaultOutputDir,
		},
	}
}

// Load layers defaults, the YAML file at path (optional when empty) and
// RELCLOCK_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	return LoadOver(DefaultConfig(), path)
}

// LoadOver is Load with base in place of the defaults, so a preset can sit
// beneath the file and environment layers.
func LoadOver(defaults *Config, path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	base, err := yaml.Marshal(defaults)
	if err != nil {
		return nil, err
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Override returns a copy of c with dotted keys (e.g. "orbit.e") replaced.
// Unknown keys are rejected.
func (c *Config) Override(set map[string]any) (*Config, error) {
	if len(set) == 0 {
		out := *c
		return &out, nil
	}

	v := viper.New()
	v.SetConfigType("yaml")
	base, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, err
	}

	for key, val := range set {
		if !v.IsSet(key) {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, key)
		}
		v.Set(key, val)
	}

	out := &Config{}
	if err := v.Unmarshal(out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return out, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Elements converts the orbit section to radians.
func (c *Config) Elements() kepler.Elements {
	return kepler.Elements{
		A:            c.Orbit.A,
		E:            c.Orbit.E,
		Inc:          kepler.Deg2Rad(c.Orbit.IncDeg),
		RAAN:         kepler.Deg2Rad(c.Orbit.RAANDeg),
		ArgPeriapsis: kepler.Deg2Rad(c.Orbit.ArgPeriapsisDeg),
		MeanAnomaly:  kepler.Deg2Rad(c.Orbit.MeanAnomalyDeg),
		Mu:           c.Orbit.Mu,
	}
}

// DurationSeconds returns the sampling span in seconds.
func (c *Config) DurationSeconds() float64 {
	return c.Sampling.DurationHours * 3600
}

// PropagatorOptions maps the propagator section onto kepler options.
func (c *Config) PropagatorOptions() []kepler.Option {
	opts := []kepler.Option{
		kepler.WithIterations(c.Propagator.Iterations),
		kepler.WithTolerance(c.Propagator.Tolerance),
	}
	if c.Propagator.Workers > 0 {
		opts = append(opts, kepler.WithWorkers(c.Propagator.Workers))
	}
	return opts
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Elements().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Sampling.DurationHours <= 0 {
		errs = append(errs, fmt.Errorf("sampling.duration_hours must be positive, got %g", c.Sampling.DurationHours))
	}
	if c.Sampling.Samples < 2 {
		errs = append(errs, fmt.Errorf("sampling.samples must be at least 2, got %d", c.Sampling.Samples))
	}
	if c.Propagator.Iterations < 1 {
		errs = append(errs, fmt.Errorf("propagator.iterations must be at least 1, got %d", c.Propagator.Iterations))
	}
	if c.Propagator.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("propagator.tolerance must not be negative, got %g", c.Propagator.Tolerance))
	}
	if c.GNSS.BroadcastPoints < 2 || c.GNSS.DayPoints < 1 {
		errs = append(errs, fmt.Errorf("gnss point counts must be positive"))
	}
	if c.Gravitomagnetic.Orbits < 1 || c.Gravitomagnetic.SamplesPerOrbit < 1 {
		errs = append(errs, fmt.Errorf("gravitomagnetic orbits and samples_per_orbit must be positive"))
	}
	if c.Verify.Steps < 1 || c.Verify.Orbits <= 0 {
		errs = append(errs, fmt.Errorf("verify steps and orbits must be positive"))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
