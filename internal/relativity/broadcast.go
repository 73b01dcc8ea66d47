package relativity

import (
	"math"

	"github.com/san-kum/relclock/internal/kepler"
)

// BroadcastF is the GNSS relativistic constant F = -2 sqrt(mu)/c^2 in s/m^(1/2).
var BroadcastF = -2 * math.Sqrt(GMEarth) / c2

// BroadcastCorrection returns the eccentricity clock correction F e sqrt(a) sin(E)
// in seconds, with a in meters and E the eccentric anomaly in radians.
func BroadcastCorrection(a, e, eccAnomaly float64) float64 {
	return BroadcastF * e * math.Sqrt(a) * math.Sin(eccAnomaly)
}

// BroadcastSeries samples the correction over n eccentric anomalies in [0, 2π].
func BroadcastSeries(a, e float64, n int) (anomaly, correction []float64) {
	anomaly = kepler.Linspace(0, 2*math.Pi, n)
	correction = make([]float64, n)
	for i, E := range anomaly {
		correction[i] = BroadcastCorrection(a, e, E)
	}
	return anomaly, correction
}

// PeriodicCorrection is the state-vector form -2 r·v / c^2 of the same term.
func PeriodicCorrection(r, v kepler.Vec3) float64 {
	return -2 * r.Dot(v) / c2
}

// RangeErrorGrowth returns the pseudorange error in meters after each number of
// days if a clock gaining dailyOffset seconds per day is left uncorrected.
func RangeErrorGrowth(days []float64, dailyOffset float64) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = C * d * dailyOffset
	}
	return out
}
