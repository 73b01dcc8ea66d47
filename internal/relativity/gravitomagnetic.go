package relativity

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/relclock/internal/kepler"
)

// properTimeChunk bounds the samples propagated between cancellation checks.
const properTimeChunk = 1 << 16

// AnalyticDeltaTauPerOrbit estimates the prograde minus retrograde proper-time
// difference per orbit, 4πJ/(Mc^2) cos(i), in seconds.
func AnalyticDeltaTauPerOrbit(inc float64) float64 {
	return 4 * math.Pi * JEarth / (MEarth * c2) * math.Cos(inc)
}

// LenseThirringFrequency returns the frame-dragging precession magnitude
// 2GJ/(c^2 r^3) in rad/s at radius r.
func LenseThirringFrequency(r float64) float64 {
	return 2 * G * JEarth / (c2 * r * r * r)
}

// ProperTime is an integrated satellite proper-time history.
type ProperTime struct {
	Times []float64
	// Deviation is tau minus the accumulated coordinate time, in seconds.
	Deviation []float64
	Step      float64
	Period    float64
	Prograde  bool
}

// Tau returns the accumulated proper time at sample i, cumsum(rate)[i] * dt.
func (pt *ProperTime) Tau(i int) float64 {
	return float64(i+1)*pt.Step + pt.Deviation[i]
}

func (pt *ProperTime) Len() int { return len(pt.Times) }

// IntegrateProperTime integrates
//
//	dtau/dt = 1 + U/c^2 - v^2/(2c^2) + s*eps_LT,  eps_LT = Ω_LT cos(i) / 2π
//
// over orbits periods with samplesPerOrbit samples each. s is +1 for prograde
// and -1 for retrograde motion.
func IntegrateProperTime(ctx context.Context, p Propagator, el kepler.Elements, prograde bool, orbits, samplesPerOrbit int) (*ProperTime, error) {
	n := orbits * samplesPerOrbit
	if orbits <= 0 || n < 2 {
		return nil, fmt.Errorf("%w: %d orbits x %d samples", ErrNoSamples, orbits, samplesPerOrbit)
	}

	period := el.Period()
	times := kepler.Linspace(0, float64(orbits)*period, n)
	dt := times[1] - times[0]

	sign := 1.0
	if !prograde {
		sign = -1
	}
	mu := el.GravParam()
	cosi := math.Cos(el.Inc)

	dev := make([]float64, n)
	var sum float64
	for start := 0; start < n; start += properTimeChunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+properTimeChunk, n)

		tr, err := p.Propagate(el, times[start:end])
		if err != nil {
			return nil, fmt.Errorf("propagate: %w", err)
		}
		for k := 0; k < tr.Len(); k++ {
			r, v := tr.Radius[k], tr.Speed[k]
			eps := LenseThirringFrequency(r) * cosi / (2 * math.Pi)
			sum += -mu/r/c2 - v*v/(2*c2) + sign*eps
			dev[start+k] = sum * dt
		}
	}

	return &ProperTime{
		Times:     times,
		Deviation: dev,
		Step:      dt,
		Period:    period,
		Prograde:  prograde,
	}, nil
}

// Divergence is tau_prograde - tau_retrograde sampled once per completed orbit.
type Divergence struct {
	Orbits   []float64
	DeltaTau []float64 // s
}

// CumulativeDivergence integrates prograde and retrograde proper time
// concurrently and samples their difference every len/orbits samples.
func CumulativeDivergence(ctx context.Context, p Propagator, el kepler.Elements, orbits, samplesPerOrbit int) (*Divergence, error) {
	var pro, retro *ProperTime

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pro, err = IntegrateProperTime(gctx, p, el, true, orbits, samplesPerOrbit)
		return err
	})
	g.Go(func() error {
		var err error
		retro, err = IntegrateProperTime(gctx, p, el, false, orbits, samplesPerOrbit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := min(pro.Len(), retro.Len())
	perOrbit := float64(pro.Len()) / float64(orbits)
	stride := int(perOrbit)
	if stride < 1 {
		return nil, fmt.Errorf("%w: fewer samples than orbits", ErrNoSamples)
	}

	d := &Divergence{}
	for idx := 0; idx < n; idx += stride {
		d.Orbits = append(d.Orbits, float64(idx)/perOrbit)
		d.DeltaTau = append(d.DeltaTau, pro.Deviation[idx]-retro.Deviation[idx])
	}
	return d, nil
}
