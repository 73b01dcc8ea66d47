package kepler

import "math"

// DefaultIterations is the fixed Newton iteration count for Kepler's equation.
const DefaultIterations = 20

// SolveKepler returns the eccentric anomaly E satisfying E - e*sin(E) = m.
//
// Newton-Raphson starts from E0 = m and runs for iterations steps. When tol is
// positive the loop also stops once a correction is smaller than tol.
func SolveKepler(m, e float64, iterations int, tol float64) float64 {
	E := m
	for k := 0; k < iterations; k++ {
		f := E - e*math.Sin(E) - m
		fp := 1 - e*math.Cos(E)
		d := f / fp
		E -= d
		if tol > 0 && math.Abs(d) < tol {
			break
		}
	}
	return E
}

// TrueAnomaly converts eccentric anomaly to true anomaly using the half-angle
// form, which is quadrant-correct and continuous in E.
func TrueAnomaly(E, e float64) float64 {
	sinH, cosH := math.Sincos(E / 2)
	return 2 * math.Atan2(math.Sqrt(1+e)*sinH, math.Sqrt(1-e)*cosH)
}

// EccentricAnomaly converts true anomaly back to eccentric anomaly.
func EccentricAnomaly(nu, e float64) float64 {
	sinH, cosH := math.Sincos(nu / 2)
	return 2 * math.Atan2(math.Sqrt(1-e)*sinH, math.Sqrt(1+e)*cosH)
}

// Perifocal returns the orbital-plane position and velocity (z = 0) and the
// radius for eccentric anomaly E.
func Perifocal(a, e, mu, E float64) (r, v Vec3, radius float64) {
	sinE, cosE := math.Sincos(E)
	nu := TrueAnomaly(E, e)
	radius = a * (1 - e*cosE)

	sinNu, cosNu := math.Sincos(nu)
	x := radius * cosNu
	y := radius * sinNu

	h := math.Sqrt(mu * a)
	rdot := (h / radius) * e * sinE
	nudot := (h / (radius * radius)) * math.Sqrt(1-e*e)

	r = Vec3{x, y, 0}
	v = Vec3{rdot*cosNu - y*nudot, rdot*sinNu + x*nudot, 0}
	return r, v, radius
}
