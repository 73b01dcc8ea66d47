package metrics

import (
	"math"

	"github.com/san-kum/relclock/internal/kepler"
)

// RadiusBounds reports the fraction of samples whose radius lies within
// [a(1-e), a(1+e)], widened by a relative slack.
type RadiusBounds struct {
	name       string
	lo, hi     float64
	violations int
	samples    int
}

func NewRadiusBounds(el kepler.Elements, slack float64) *RadiusBounds {
	return &RadiusBounds{
		name: "radius_in_bounds",
		lo:   el.Periapsis() * (1 - slack),
		hi:   el.Apoapsis() * (1 + slack),
	}
}

func (r *RadiusBounds) Name() string {
	return r.name
}

func (r *RadiusBounds) Observe(s kepler.Sample) {
	r.samples++
	if math.IsNaN(s.Radius) || s.Radius < r.lo || s.Radius > r.hi {
		r.violations++
	}
}

func (r *RadiusBounds) Value() float64 {
	if r.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(r.violations)/float64(r.samples)
}

func (r *RadiusBounds) Reset() {
	r.violations = 0
	r.samples = 0
}
