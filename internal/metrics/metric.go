package metrics

import "github.com/san-kum/relclock/internal/kepler"

// Metric accumulates a scalar over propagated samples.
type Metric interface {
	Name() string
	Observe(s kepler.Sample)
	Value() float64
	Reset()
}

// Standard returns the invariant monitors for an orbit with elements el.
func Standard(el kepler.Elements) []Metric {
	return []Metric{
		NewVisViva(el),
		NewAngularMomentum(),
		NewRadiusBounds(el, 1e-6),
	}
}

// Evaluate resets each metric, feeds it every sample of tr and collects the
// values by name.
func Evaluate(tr *kepler.Trajectory, ms ...Metric) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}
	for i := 0; i < tr.Len(); i++ {
		s := tr.At(i)
		for _, m := range ms {
			m.Observe(s)
		}
	}

	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
