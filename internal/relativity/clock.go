package relativity

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/relclock/internal/kepler"
)

// Propagator is the subset of *kepler.Propagator the evaluators need.
type Propagator interface {
	Propagate(el kepler.Elements, times []float64) (*kepler.Trajectory, error)
}

// Ground is the reference clock the satellite is compared against.
type Ground struct {
	Radius float64 // m
	Speed  float64 // m/s, co-rotating surface speed
	Mu     float64 // m^3/s^2
}

// EarthGround is a clock on the equator of a rotating Earth.
func EarthGround() Ground {
	return Ground{Radius: REarth, Speed: OmegaEarth * REarth, Mu: GMEarth}
}

// Potential returns the Newtonian potential -mu/R at the ground clock.
func (g Ground) Potential() float64 {
	return -g.Mu / g.Radius
}

// FractionalRate returns the satellite clock rate relative to the ground clock:
//
//	(U_sat - U_ground)/c^2 - (v^2 - v_ground^2)/(2c^2)
//
// Positive values mean the satellite clock runs fast.
func FractionalRate(radius, speed float64, g Ground) float64 {
	uSat := -g.Mu / radius
	return (uSat-g.Potential())/c2 - (speed*speed-g.Speed*g.Speed)/(2*c2)
}

// Accumulate integrates rates with a rectangle rule: cumsum(rates) * dt.
func Accumulate(rates []float64, dt float64) []float64 {
	out := make([]float64, len(rates))
	floats.CumSum(out, rates)
	floats.Scale(dt, out)
	return out
}

// OffsetSeries is the accumulated satellite-minus-ground clock offset.
type OffsetSeries struct {
	Times  []float64 // s from epoch
	Rate   []float64 // fractional rate, dimensionless
	Offset []float64 // s
	Period float64   // orbital period, s
}

// ClockOffset propagates el over [0, duration] with the given number of samples
// and accumulates the fractional clock rate against an equatorial ground clock.
func ClockOffset(ctx context.Context, p Propagator, el kepler.Elements, duration float64, samples int) (*OffsetSeries, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidDuration, duration)
	}
	if samples < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNoSamples, samples)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	times := kepler.Linspace(0, duration, samples)
	tr, err := p.Propagate(el, times)
	if err != nil {
		return nil, fmt.Errorf("propagate: %w", err)
	}

	ground := EarthGround()
	ground.Mu = el.GravParam()

	rates := make([]float64, samples)
	for i := range rates {
		rates[i] = FractionalRate(tr.Radius[i], tr.Speed[i], ground)
	}

	return &OffsetSeries{
		Times:  tr.Times,
		Rate:   rates,
		Offset: Accumulate(rates, times[1]-times[0]),
		Period: el.Period(),
	}, nil
}

// Detrend removes the least-squares line from y and returns the residual.
func Detrend(t, y []float64) (residual []float64, slope, intercept float64, err error) {
	if len(t) != len(y) {
		return nil, 0, 0, fmt.Errorf("%w: %d times, %d values", ErrLengthMismatch, len(t), len(y))
	}
	if len(t) < 2 {
		return nil, 0, 0, ErrNoSamples
	}

	intercept, slope = stat.LinearRegression(t, y, nil, false)
	residual = make([]float64, len(y))
	for i := range y {
		residual[i] = y[i] - (intercept + slope*t[i])
	}
	return residual, slope, intercept, nil
}
