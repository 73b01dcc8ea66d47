package metrics

import (
	"math"

	"github.com/san-kum/relclock/internal/kepler"
)

// VisViva tracks the largest relative residual of v^2 against mu(2/r - 1/a).
type VisViva struct {
	name     string
	mu       float64
	a        float64
	maxResid float64
	samples  int
}

func NewVisViva(el kepler.Elements) *VisViva {
	return &VisViva{
		name: "vis_viva_residual",
		mu:   el.GravParam(),
		a:    el.A,
	}
}

func (v *VisViva) Name() string { return v.name }

func (v *VisViva) Observe(s kepler.Sample) {
	want := v.mu * (2/s.Radius - 1/v.a)
	if want == 0 {
		return
	}
	resid := math.Abs(s.Speed*s.Speed-want) / math.Abs(want)
	v.maxResid = math.Max(v.maxResid, resid)
	v.samples++
}

func (v *VisViva) Value() float64 {
	return v.maxResid
}

func (v *VisViva) Reset() {
	v.maxResid = 0
	v.samples = 0
}

// AngularMomentum tracks the largest relative drift of |r x v| from the first
// observed sample.
type AngularMomentum struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewAngularMomentum() *AngularMomentum {
	return &AngularMomentum{name: "angular_momentum_drift"}
}

func (a *AngularMomentum) Name() string { return a.name }

func (a *AngularMomentum) Observe(s kepler.Sample) {
	h := s.Position.Cross(s.Velocity).Norm()
	if a.samples == 0 {
		a.initial = h
	}
	a.samples++

	if a.initial != 0 {
		drift := math.Abs(h-a.initial) / a.initial
		a.maxDrift = math.Max(a.maxDrift, drift)
	}
}

func (a *AngularMomentum) Value() float64 {
	return a.maxDrift
}

func (a *AngularMomentum) Reset() {
	a.initial = 0
	a.maxDrift = 0
	a.samples = 0
}
