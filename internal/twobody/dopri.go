package twobody

import "math"

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// fifth-order weights equal the last row of dpA (FSAL)
	dpB5 = [7]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}
	dpB4 = [7]float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40}
)

// DormandPrince is the embedded RK5(4) pair. Step takes the fifth-order
// solution at a fixed dt; StepAdaptive also proposes the next step size.
type DormandPrince struct {
	safety   float64
	minScale float64
	maxScale float64

	k       [7]State
	scratch State
	// LastError is the scaled error estimate of the most recent step.
	LastError float64
}

func NewDormandPrince() *DormandPrince {
	return &DormandPrince{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (d *DormandPrince) ensureScratch(n int) {
	if len(d.scratch) != n {
		for i := range d.k {
			d.k[i] = make(State, n)
		}
		d.scratch = make(State, n)
	}
}

func (d *DormandPrince) Step(sys System, x State, t, dt float64) State {
	out, _ := d.StepAdaptive(sys, x, t, dt, 1e-12)
	return out
}

// StepAdaptive advances x by dt and returns the suggested next step for the
// relative tolerance tol. A rejected step (LastError > 1) still returns the
// fifth-order solution; callers retry with the smaller step if they care.
func (d *DormandPrince) StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64) {
	n := len(x)
	d.ensureScratch(n)

	copy(d.k[0], sys.Derive(x, t))
	for s := 1; s < 7; s++ {
		for i := range n {
			acc := 0.0
			for j := 0; j < s; j++ {
				acc += dpA[s][j] * d.k[j][i]
			}
			d.scratch[i] = x[i] + dt*acc
		}
		copy(d.k[s], sys.Derive(d.scratch, t+dpC[s]*dt))
	}

	// stage 6 was evaluated at the fifth-order solution
	out := d.scratch.Clone()

	errMax := 0.0
	for i := range n {
		est := 0.0
		for s := range d.k {
			est += (dpB5[s] - dpB4[s]) * d.k[s][i]
		}
		scale := math.Abs(x[i]) + math.Abs(dt*d.k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*est)/scale)
	}
	d.LastError = errMax / tol

	var factor float64
	switch {
	case d.LastError > 1:
		factor = math.Max(d.minScale, d.safety*math.Pow(d.LastError, -0.25))
	case d.LastError > 0:
		factor = math.Min(d.maxScale, d.safety*math.Pow(d.LastError, -0.2))
	default:
		factor = d.maxScale
	}
	return out, dt * factor
}
