package experiment

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownExperiment = errors.New("unknown experiment")
	ErrMalformedSeries   = errors.New("malformed series")
)

// Entry describes a registered experiment.
type Entry struct {
	Name        string
	Description string
	Run         Runner
}

type Registry struct {
	entries map[string]Entry
}

// NewRegistry returns a registry holding every built-in experiment.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Entry)}

	r.Register("offset", "accumulated satellite clock offset against a ground clock", RunOffset)
	r.Register("residual", "periodic eccentricity residual after removing the secular drift", RunResidual)
	r.Register("broadcast", "GNSS broadcast relativistic correction over one orbit", RunBroadcast)
	r.Register("range-error", "pseudorange error from an uncorrected 38 µs/day clock drift", RunRangeError)
	r.Register("gm-analytic", "gravitomagnetic per-orbit estimate versus inclination", RunGMAnalytic)
	r.Register("gm-divergence", "prograde minus retrograde proper-time divergence", RunGMDivergence)
	r.Register("propagate", "closed-form orbit propagation with conservation checks", RunPropagate)
	r.Register("verify", "numerical two-body integration against the closed-form orbit", RunVerify)

	return r
}

// Register adds or replaces an experiment.
func (r *Registry) Register(name, description string, run Runner) {
	r.entries[name] = Entry{Name: name, Description: description, Run: run}
}

func (r *Registry) Get(name string) (Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownExperiment, name)
	}
	return e, nil
}

// List returns the registered experiments sorted by name.
func (r *Registry) List() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Names() []string {
	entries := r.List()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
