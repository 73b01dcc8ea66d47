package kepler

import (
	"math"
)

const (
	// GMEarth is Earth's gravitational parameter in m^3/s^2.
	GMEarth = 3.986004418e14

	twoPi = 2 * math.Pi
)

// Elements are classical orbital elements at epoch. Angles are in radians,
// lengths in meters. A zero Mu means GMEarth.
type Elements struct {
	A            float64 `json:"a"`
	E            float64 `json:"e"`
	Inc          float64 `json:"inc"`
	RAAN         float64 `json:"raan"`
	ArgPeriapsis float64 `json:"arg_periapsis"`
	MeanAnomaly  float64 `json:"mean_anomaly"`
	Mu           float64 `json:"mu"`
}

// GravParam returns Mu, defaulting to GMEarth when unset.
func (el Elements) GravParam() float64 {
	if el.Mu == 0 {
		return GMEarth
	}
	return el.Mu
}

// Validate checks the bound-orbit preconditions a > 0, 0 <= e < 1, mu > 0 and
// that every element is finite.
func (el Elements) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"a", el.A}, {"e", el.E}, {"inc", el.Inc}, {"raan", el.RAAN},
		{"arg_periapsis", el.ArgPeriapsis}, {"mean_anomaly", el.MeanAnomaly}, {"mu", el.Mu},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &DomainError{Field: f.name, Value: f.value, Reason: "must be finite"}
		}
	}
	if el.A <= 0 {
		return &DomainError{Field: "a", Value: el.A, Reason: "semi-major axis must be positive"}
	}
	if el.E < 0 || el.E >= 1 {
		return &DomainError{Field: "e", Value: el.E, Reason: "eccentricity must be in [0, 1)"}
	}
	if el.Mu < 0 {
		return &DomainError{Field: "mu", Value: el.Mu, Reason: "gravitational parameter must be positive"}
	}
	return nil
}

// MeanMotion returns n = sqrt(mu/a^3) in rad/s.
func (el Elements) MeanMotion() float64 {
	return math.Sqrt(el.GravParam() / (el.A * el.A * el.A))
}

// Period returns the orbital period T = 2π sqrt(a^3/mu) in seconds.
func (el Elements) Period() float64 {
	return twoPi * math.Sqrt(el.A*el.A*el.A/el.GravParam())
}

func (el Elements) Periapsis() float64 { return el.A * (1 - el.E) }
func (el Elements) Apoapsis() float64  { return el.A * (1 + el.E) }

// SemiLatusRectum returns p = a(1 - e^2).
func (el Elements) SemiLatusRectum() float64 {
	return el.A * (1 - el.E*el.E)
}

// AngularMomentum returns the specific angular momentum magnitude sqrt(mu p).
func (el Elements) AngularMomentum() float64 {
	return math.Sqrt(el.GravParam() * el.SemiLatusRectum())
}

// Energy returns the specific orbital energy -mu/(2a).
func (el Elements) Energy() float64 {
	return -el.GravParam() / (2 * el.A)
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 { return deg * math.Pi / 180 }

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeAngle wraps an angle into [0, 2π).
func NormalizeAngle(x float64) float64 {
	w := math.Mod(x, twoPi)
	if w < 0 {
		w += twoPi
	}
	return w
}
