package kepler

import (
	"math"
	"runtime"
)

// defaultMinChunk keeps small sample sets on the calling goroutine.
const defaultMinChunk = 4096

// Trajectory holds propagated states, index-aligned with Times.
type Trajectory struct {
	Times    []float64
	Position []Vec3
	Velocity []Vec3
	Radius   []float64
	Speed    []float64
}

// Sample is a single propagated state.
type Sample struct {
	T        float64
	Position Vec3
	Velocity Vec3
	Radius   float64
	Speed    float64
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) At(i int) Sample {
	return Sample{
		T:        tr.Times[i],
		Position: tr.Position[i],
		Velocity: tr.Velocity[i],
		Radius:   tr.Radius[i],
		Speed:    tr.Speed[i],
	}
}

// Propagator evaluates Keplerian motion at arbitrary time samples.
type Propagator struct {
	iterations int
	tolerance  float64
	workers    int
	minChunk   int
}

type Option func(*Propagator)

// WithIterations sets the Newton iteration count. Values below 1 are ignored.
func WithIterations(n int) Option {
	return func(p *Propagator) {
		if n > 0 {
			p.iterations = n
		}
	}
}

// WithTolerance stops the Newton loop early once |dE| < tol. Zero disables it.
func WithTolerance(tol float64) Option {
	return func(p *Propagator) {
		if tol >= 0 {
			p.tolerance = tol
		}
	}
}

// WithWorkers bounds the goroutines used for large sample sets. One means
// propagate on the calling goroutine.
func WithWorkers(n int) Option {
	return func(p *Propagator) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMinChunk sets the smallest sample range handed to a worker.
func WithMinChunk(n int) Option {
	return func(p *Propagator) {
		if n > 0 {
			p.minChunk = n
		}
	}
}

func New(opts ...Option) *Propagator {
	p := &Propagator{
		iterations: DefaultIterations,
		workers:    runtime.GOMAXPROCS(0),
		minChunk:   defaultMinChunk,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultPropagator = New()

// Propagate runs the default propagator (20 fixed Newton iterations).
func Propagate(el Elements, times []float64) (*Trajectory, error) {
	return defaultPropagator.Propagate(el, times)
}

func (p *Propagator) Iterations() int { return p.iterations }
func (p *Propagator) Tolerance() float64 { return p.tolerance }

// Propagate validates el and returns the state at every time offset (seconds
// from epoch). It returns a *DomainError for elements outside the bound domain.
func (p *Propagator) Propagate(el Elements, times []float64) (*Trajectory, error) {
	if err := el.Validate(); err != nil {
		return nil, err
	}
	return p.PropagateUnchecked(el, times), nil
}

// PropagateUnchecked skips validation. Degenerate elements yield NaN or Inf
// values rather than an error.
func (p *Propagator) PropagateUnchecked(el Elements, times []float64) *Trajectory {
	n := len(times)
	tr := &Trajectory{
		Times:    append([]float64(nil), times...),
		Position: make([]Vec3, n),
		Velocity: make([]Vec3, n),
		Radius:   make([]float64, n),
		Speed:    make([]float64, n),
	}
	if n == 0 {
		return tr
	}

	mu := el.GravParam()
	a, e := el.A, el.E
	meanMotion := math.Sqrt(mu / (a * a * a))
	q := newFrame(Rotation(el.Inc, el.RAAN, el.ArgPeriapsis))

	parallelFor(n, p.minChunk, p.workers, func(start, end int) {
		for i := start; i < end; i++ {
			m := el.MeanAnomaly + meanMotion*tr.Times[i]
			E := SolveKepler(m, e, p.iterations, p.tolerance)
			rPQW, vPQW, radius := Perifocal(a, e, mu, E)

			v := q.apply(vPQW)
			tr.Position[i] = q.apply(rPQW)
			tr.Velocity[i] = v
			tr.Radius[i] = radius
			tr.Speed[i] = v.Norm()
		}
	})

	return tr
}

// StateAt propagates a single time offset.
func (p *Propagator) StateAt(el Elements, t float64) (Sample, error) {
	tr, err := p.Propagate(el, []float64{t})
	if err != nil {
		return Sample{}, err
	}
	return tr.At(0), nil
}

// Linspace returns n evenly spaced values over [start, stop], endpoint included.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
