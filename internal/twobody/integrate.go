package twobody

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/relclock/internal/kepler"
)

var steppers = map[string]func() Stepper{
	"rk4":      func() Stepper { return NewRK4() },
	"verlet":   func() Stepper { return NewVerlet() },
	"leapfrog": func() Stepper { return NewLeapfrog() },
	"dopri5":   func() Stepper { return NewDormandPrince() },
}

// NewStepper returns a fresh stepper by name.
func NewStepper(name string) (Stepper, error) {
	factory, ok := steppers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStepper, name)
	}
	return factory(), nil
}

func ListSteppers() []string {
	names := make([]string, 0, len(steppers))
	for name := range steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cancelCheckEvery is how many steps run between context checks.
const cancelCheckEvery = 1024

// Integrate advances x0 by steps fixed steps of dt. observe, when non-nil, is
// called after every step with the step index and the new state.
func Integrate(ctx context.Context, sys System, st Stepper, x0 State, dt float64, steps int, observe func(i int, x State)) (State, error) {
	x := x0.Clone()
	for i := range steps {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		x = st.Step(sys, x, float64(i)*dt, dt)
		if !x.IsValid() {
			return nil, fmt.Errorf("%w at step %d", ErrDiverged, i)
		}
		if observe != nil {
			observe(i, x)
		}
	}
	return x, nil
}

// Comparison summarizes numerical integration against the closed-form orbit.
type Comparison struct {
	Stepper          string
	Steps            int
	Dt               float64
	MaxPositionError float64 // m
	MaxVelocityError float64 // m/s
	EnergyDrift      float64 // max |E - E0| / |E0|
	PositionError    []float64
}

// Compare integrates el numerically over duration with the named stepper and
// measures its deviation from kepler propagation at every step.
func Compare(ctx context.Context, el kepler.Elements, duration float64, steps int, stepper string) (*Comparison, error) {
	if steps <= 0 || duration <= 0 {
		return nil, fmt.Errorf("%w: steps=%d duration=%g", ErrInvalidStep, steps, duration)
	}
	st, err := NewStepper(stepper)
	if err != nil {
		return nil, err
	}

	times := kepler.Linspace(0, duration, steps+1)
	ref, err := kepler.Propagate(el, times)
	if err != nil {
		return nil, err
	}

	sys := &Kepler{Mu: el.GravParam()}
	x0 := NewState(ref.Position[0], ref.Velocity[0])
	e0 := sys.Energy(x0)

	cmp := &Comparison{
		Stepper:       stepper,
		Steps:         steps,
		Dt:            times[1] - times[0],
		PositionError: make([]float64, steps),
	}
	_, err = Integrate(ctx, sys, st, x0, cmp.Dt, steps, func(i int, x State) {
		dp := x.Position().Sub(ref.Position[i+1]).Norm()
		dv := x.Velocity().Sub(ref.Velocity[i+1]).Norm()
		cmp.PositionError[i] = dp
		cmp.MaxPositionError = math.Max(cmp.MaxPositionError, dp)
		cmp.MaxVelocityError = math.Max(cmp.MaxVelocityError, dv)
		cmp.EnergyDrift = math.Max(cmp.EnergyDrift, math.Abs((sys.Energy(x)-e0)/e0))
	})
	if err != nil {
		return nil, err
	}
	return cmp, nil
}
