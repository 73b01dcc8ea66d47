package twobody

import (
	"errors"
	"math"

	"github.com/san-kum/relclock/internal/kepler"
)

var (
	ErrUnknownStepper = errors.New("twobody: unknown stepper")
	ErrInvalidStep    = errors.New("twobody: step count and duration must be positive")
	ErrDiverged       = errors.New("twobody: state became non-finite")
)

// State is [x y z vx vy vz] in meters and meters per second.
type State []float64

func NewState(r, v kepler.Vec3) State {
	return State{r[0], r[1], r[2], v[0], v[1], v[2]}
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Position() kepler.Vec3 { return kepler.Vec3{s[0], s[1], s[2]} }
func (s State) Velocity() kepler.Vec3 { return kepler.Vec3{s[3], s[4], s[5]} }

// System is a first-order ODE dx/dt = f(x, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Hamiltonian systems expose a conserved energy for drift monitoring.
type Hamiltonian interface {
	Energy(x State) float64
}

// Stepper advances a state by one fixed step.
type Stepper interface {
	Step(sys System, x State, t, dt float64) State
}
