package kepler

import (
	"fmt"
	"math"
)

const (
	circularEps   = 1e-11
	equatorialEps = 1e-11
)

// ElementsFromState converts an inertial position (m) and velocity (m/s) into
// classical elements. Circular orbits get ω = 0 and carry the argument of
// latitude in the mean anomaly; equatorial orbits get RAAN = 0 and carry the
// longitude of periapsis in ω.
func ElementsFromState(r, v Vec3, mu float64) (Elements, error) {
	if mu <= 0 {
		return Elements{}, &DomainError{Field: "mu", Value: mu, Reason: "gravitational parameter must be positive"}
	}
	rn := r.Norm()
	vn := v.Norm()
	h := r.Cross(v)
	hn := h.Norm()
	if rn == 0 || hn == 0 || !r.IsFinite() || !v.IsFinite() {
		return Elements{}, fmt.Errorf("%w: |r|=%g |h|=%g", ErrDegenerateState, rn, hn)
	}

	energy := vn*vn/2 - mu/rn
	if energy >= 0 {
		return Elements{}, fmt.Errorf("%w: specific energy %g is not bound", ErrDegenerateState, energy)
	}
	a := -mu / (2 * energy)

	rv := r.Dot(v)
	ev := r.Scale(vn*vn - mu/rn).Sub(v.Scale(rv)).Scale(1 / mu)
	e := ev.Norm()

	inc := math.Atan2(math.Hypot(h[0], h[1]), h[2])
	node := Vec3{-h[1], h[0], 0}
	nn := node.Norm()

	circular := e < circularEps
	equatorial := nn/hn < equatorialEps

	var raan, argp, nu float64
	switch {
	case circular && equatorial:
		nu = math.Atan2(r[1], r[0])
		if h[2] < 0 {
			nu = -nu
		}
	case circular:
		raan = math.Atan2(node[1], node[0])
		nu = angleBetween(node, r)
		if r[2] < 0 {
			nu = twoPi - nu
		}
	case equatorial:
		argp = math.Atan2(ev[1], ev[0])
		if h[2] < 0 {
			argp = -argp
		}
		nu = angleBetween(ev, r)
		if rv < 0 {
			nu = twoPi - nu
		}
	default:
		raan = math.Atan2(node[1], node[0])
		argp = angleBetween(node, ev)
		if ev[2] < 0 {
			argp = twoPi - argp
		}
		nu = angleBetween(ev, r)
		if rv < 0 {
			nu = twoPi - nu
		}
	}

	E := EccentricAnomaly(NormalizeAngle(nu), e)
	m := E - e*math.Sin(E)

	return Elements{
		A:            a,
		E:            e,
		Inc:          inc,
		RAAN:         NormalizeAngle(raan),
		ArgPeriapsis: NormalizeAngle(argp),
		MeanAnomaly:  NormalizeAngle(m),
		Mu:           mu,
	}, nil
}

// angleBetween returns the unsigned angle in [0, π], accurate near 0 and π.
func angleBetween(a, b Vec3) float64 {
	return math.Atan2(a.Cross(b).Norm(), a.Dot(b))
}
