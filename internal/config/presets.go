package config

import "sort"

func preset(mod func(c *Config)) *Config {
	c := DefaultConfig()
	mod(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"galileo": {
		"circular": preset(func(c *Config) {
			c.Experiment = "offset"
			c.Orbit = OrbitConfig{A: 29600e3, IncDeg: 56}
			c.Sampling = SamplingConfig{DurationHours: 24, Samples: 5000}
		}),
		"eccentric": preset(func(c *Config) {
			c.Experiment = "residual"
			c.Orbit = OrbitConfig{A: 29600e3, E: 0.16, IncDeg: 56}
			c.Sampling = SamplingConfig{DurationHours: 12, Samples: 4000}
		}),
	},
	"gps": {
		"nominal": preset(func(c *Config) {
			c.Experiment = "broadcast"
			c.Orbit = OrbitConfig{A: 26560e3, E: 0.01, IncDeg: 55}
			c.Sampling = SamplingConfig{DurationHours: 12, Samples: 4000}
		}),
		"range": preset(func(c *Config) {
			c.Experiment = "range-error"
			c.Orbit = OrbitConfig{A: 26560e3, E: 0.01, IncDeg: 55}
		}),
	},
	"gm": {
		"galileo": preset(func(c *Config) {
			c.Experiment = "gm-divergence"
			c.Orbit = OrbitConfig{A: 29600e3, IncDeg: 56}
			c.Gravitomagnetic = GMConfig{Orbits: 500, SamplesPerOrbit: 4000, IncPoints: 181}
		}),
		"inclination": preset(func(c *Config) {
			c.Experiment = "gm-analytic"
		}),
	},
	"verify": {
		"rk4": preset(func(c *Config) {
			c.Experiment = "verify"
			c.Orbit = OrbitConfig{A: 26560e3, E: 0.01, IncDeg: 55}
			c.Verify = VerifyConfig{Stepper: "rk4", Steps: 2000, Orbits: 1}
		}),
		"leapfrog": preset(func(c *Config) {
			c.Experiment = "verify"
			c.Orbit = OrbitConfig{A: 26560e3, E: 0.01, IncDeg: 55}
			c.Verify = VerifyConfig{Stepper: "leapfrog", Steps: 2000, Orbits: 1}
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(group, name string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
