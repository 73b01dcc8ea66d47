package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/relclock/internal/config"
	"github.com/san-kum/relclock/internal/kepler"
	"github.com/san-kum/relclock/internal/observability"
	"github.com/san-kum/relclock/internal/relativity"
)

// Column is a named, unit-tagged vector of values.
type Column struct {
	Name   string    `json:"name"`
	Unit   string    `json:"unit"`
	Values []float64 `json:"values"`
}

// Label renders "name [unit]".
func (c Column) Label() string {
	if c.Unit == "" {
		return c.Name
	}
	return fmt.Sprintf("%s [%s]", c.Name, c.Unit)
}

// Series is the result of one experiment: an abscissa, one or more ordinate
// columns of the same length, and scalar summary values.
type Series struct {
	Experiment string             `json:"experiment"`
	Title      string             `json:"title"`
	X          Column             `json:"x"`
	Y          []Column           `json:"y"`
	Summary    map[string]float64 `json:"summary"`
}

func (s *Series) Len() int { return len(s.X.Values) }

// Column returns the ordinate column with the given name.
func (s *Series) Column(name string) (Column, bool) {
	for _, c := range s.Y {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks that every column matches the abscissa length.
func (s *Series) Validate() error {
	for _, c := range s.Y {
		if len(c.Values) != s.Len() {
			return fmt.Errorf("%w: column %s has %d values, x has %d", ErrMalformedSeries, c.Name, len(c.Values), s.Len())
		}
	}
	return nil
}

// Runner computes a series from a configuration using the given propagator.
type Runner func(ctx context.Context, cfg *config.Config, p relativity.Propagator) (*Series, error)

// Observed counts propagation calls and samples on a collector.
type Observed struct {
	inner     relativity.Propagator
	collector *observability.Collector
}

func NewObserved(inner relativity.Propagator, c *observability.Collector) *Observed {
	return &Observed{inner: inner, collector: c}
}

func (o *Observed) Propagate(el kepler.Elements, times []float64) (*kepler.Trajectory, error) {
	tr, err := o.inner.Propagate(el, times)
	if err == nil {
		o.collector.ObservePropagation(len(times))
	}
	return tr, err
}

// Run validates cfg, builds the configured propagator and executes the named
// experiment, recording its outcome on collector (which may be nil).
func (r *Registry) Run(ctx context.Context, name string, cfg *config.Config, collector *observability.Collector) (*Series, error) {
	entry, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := NewObserved(kepler.New(cfg.PropagatorOptions()...), collector)

	start := time.Now()
	s, err := entry.Run(ctx, cfg, p)
	collector.ObserveRun(name, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", name, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	s.Experiment = name
	collector.SetSummary(name, s.Summary)
	return s, nil
}
