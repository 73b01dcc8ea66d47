package twobody

import "math"

// Kepler is point-mass gravity about a fixed central body.
type Kepler struct {
	Mu float64
}

func (k *Kepler) StateDim() int { return 6 }

func (k *Kepler) Derive(x State, t float64) State {
	r2 := x[0]*x[0] + x[1]*x[1] + x[2]*x[2]
	r := math.Sqrt(r2)
	f := -k.Mu / (r2 * r)
	return State{x[3], x[4], x[5], f * x[0], f * x[1], f * x[2]}
}

// Energy returns the specific orbital energy v^2/2 - mu/r.
func (k *Kepler) Energy(x State) float64 {
	v2 := x[3]*x[3] + x[4]*x[4] + x[5]*x[5]
	r := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2])
	return v2/2 - k.Mu/r
}
