package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/relclock/internal/config"
	"github.com/san-kum/relclock/internal/experiment"
	"github.com/san-kum/relclock/internal/kepler"
	"github.com/san-kum/relclock/internal/observability"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps or sweeps")

// Scenario is a scripted batch of experiment runs and parameter sweeps.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Steps       []Step  `yaml:"steps"`
	Sweeps      []Sweep `yaml:"sweeps"`
}

// Step runs one experiment from a preset (or the defaults) with dotted-key
// overrides applied on top.
type Step struct {
	Experiment string         `yaml:"experiment"`
	Preset     string         `yaml:"preset"`
	Set        map[string]any `yaml:"set"`
}

// Sweep varies one dotted config key over a linear range and records a
// summary quantity of the experiment at each value.
type Sweep struct {
	Experiment string         `yaml:"experiment"`
	Preset     string         `yaml:"preset"`
	Set        map[string]any `yaml:"set"`
	Param      string         `yaml:"param"`
	Min        float64        `yaml:"min"`
	Max        float64        `yaml:"max"`
	Points     int            `yaml:"points"`
	Quantity   string         `yaml:"quantity"`
}

// StepResult pairs a finished step with its configuration.
type StepResult struct {
	Step   Step
	Config *config.Config
	Series *experiment.Series
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 && len(scenario.Sweeps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyScenario, path)
	}
	return &scenario, nil
}

// Resolve builds the configuration for a preset name ("group/name", empty for
// defaults) with overrides applied.
func Resolve(preset string, set map[string]any) (*config.Config, error) {
	base := config.DefaultConfig()
	if preset != "" {
		group, name, _ := strings.Cut(preset, "/")
		base = config.GetPreset(group, name)
		if base == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
	}
	return base.Override(set)
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, sc *Scenario, reg *experiment.Registry, collector *observability.Collector) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		cfg, err := Resolve(step.Preset, step.Set)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		name := step.Experiment
		if name == "" {
			name = cfg.Experiment
		}
		cfg.Experiment = name

		series, err := reg.Run(ctx, name, cfg, collector)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, StepResult{Step: step, Config: cfg, Series: series})
	}

	return results, nil
}

// SweepPoint is one evaluated parameter value.
type SweepPoint struct {
	Value   float64
	Summary map[string]float64
}

// RunSweep evaluates the sweep with at most workers runs in flight (GOMAXPROCS
// when workers is not positive). Points are returned in parameter order.
func RunSweep(ctx context.Context, sw Sweep, reg *experiment.Registry, collector *observability.Collector, workers int) ([]SweepPoint, error) {
	if sw.Points < 1 || sw.Param == "" {
		return nil, fmt.Errorf("sweep %s: param and points are required", sw.Experiment)
	}
	values := kepler.Linspace(sw.Min, sw.Max, sw.Points)
	points := make([]SweepPoint, len(values))

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	for i, val := range values {
		g.Go(func() error {
			set := make(map[string]any, len(sw.Set)+1)
			for k, v := range sw.Set {
				set[k] = v
			}
			set[sw.Param] = val

			cfg, err := Resolve(sw.Preset, set)
			if err != nil {
				return err
			}
			if sw.Experiment != "" {
				cfg.Experiment = sw.Experiment
			}
			series, err := reg.Run(gctx, cfg.Experiment, cfg, collector)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sw.Param, val, err)
			}

			mu.Lock()
			points[i] = SweepPoint{Value: val, Summary: series.Summary}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// SweepSeries turns sweep points into a series of the chosen quantity, with
// the minimizing and maximizing parameter values in the summary.
func SweepSeries(sw Sweep, points []SweepPoint) (*experiment.Series, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("sweep %s: no points", sw.Param)
	}
	x := make([]float64, len(points))
	y := make([]float64, len(points))
	best, worst := 0, 0
	for i, p := range points {
		v, ok := p.Summary[sw.Quantity]
		if !ok {
			return nil, fmt.Errorf("sweep %s: experiment has no summary quantity %q", sw.Param, sw.Quantity)
		}
		x[i], y[i] = p.Value, v
		if v < y[best] {
			best = i
		}
		if v > y[worst] {
			worst = i
		}
	}

	return &experiment.Series{
		Experiment: "sweep",
		Title:      fmt.Sprintf("%s sweep: %s vs %s", sw.Experiment, sw.Quantity, sw.Param),
		X:          experiment.Column{Name: sw.Param, Values: x},
		Y:          []experiment.Column{{Name: sw.Quantity, Values: y}},
		Summary: map[string]float64{
			"argmin": x[best],
			"min":    y[best],
			"argmax": x[worst],
			"max":    y[worst],
			"points": float64(len(points)),
		},
	}, nil
}
