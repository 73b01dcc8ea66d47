package experiment

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/relclock/internal/analysis"
	"github.com/san-kum/relclock/internal/config"
	"github.com/san-kum/relclock/internal/kepler"
	"github.com/san-kum/relclock/internal/metrics"
	"github.com/san-kum/relclock/internal/relativity"
	"github.com/san-kum/relclock/internal/twobody"
)

const (
	secondsPerDay = 86400.0
	toHours       = 1.0 / 3600
	toMicro       = 1e6
	toNano        = 1e9
)

func scaled(v []float64, f float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	floats.Scale(f, out)
	return out
}

func peakToPeak(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Max(v) - floats.Min(v)
}

// RunOffset accumulates the clock offset over the sampling window.
func RunOffset(ctx context.Context, cfg *config.Config, p relativity.Propagator) (*Series, error) {
	el := cfg.Elements()
	off, err := relativity.ClockOffset(ctx, p, el, cfg.DurationSeconds(), cfg.Sampling.Samples)
	if err != nil {
		return nil, err
	}

	meanRate := floats.Sum(off.Rate) / float64(len(off.Rate))
	return &Series{
		Title: "Satellite clock offset",
		X:     Column{Name: "time", Unit: "h", Values: scaled(off.Times, toHours)},
		Y: []Column{
			{Name: "offset", Unit: "µs", Values: scaled(off.Offset, toMicro)},
		},
		Summary: map[string]float64{
			"mean_rate":         meanRate,
			"offset_per_day_us": meanRate * secondsPerDay * toMicro,
			"final_offset_us":   off.Offset[len(off.Offset)-1] * toMicro,
			"period_h":          off.Period * toHours,
		},
	}, nil
}

// RunResidual removes the least-squares drift from the offset and keeps the
// periodic eccentricity term.
func RunResidual(ctx context.Context, cfg *config.Config, p relativity.Propagator) (*Series, error) {
	el := cfg.Elements()
	off, err := relativity.ClockOffset(ctx, p, el, cfg.DurationSeconds(), cfg.Sampling.Samples)
	if err != nil {
		return nil, err
	}
	residual, slope, intercept, err := relativity.Detrend(off.Times, off.Offset)
	if err != nil {
		return nil, err
	}

	expected := 2 * math.Sqrt(el.GravParam()*el.A) * el.E / (relativity.C * relativity.C)
	summary := map[string]float64{
		"slope":                 slope,
		"intercept_ns":          intercept * toNano,
		"peak_to_peak_ns":       peakToPeak(residual) * toNano,
		"expected_amplitude_ns": expected * toNano,
		"period_h":              off.Period * toHours,
	}
	// a single cycle in the window only reflects the window length
	if cfg.DurationSeconds() >= 2*off.Period {
		if p, err := analysis.DominantPeriod(off.Times, residual); err == nil {
			summary["dominant_period_h"] = p * toHours
		}
	}

	return &Series{
		Title: "Detrended clock offset residual",
		X:     Column{Name: "time", Unit: "h", Values: scaled(off.Times, toHours)},
		Y: []Column{
			{Name: "residual", Unit: "ns", Values: scaled(residual, toNano)},
		},
		Summary: summary,
	}, nil
}

// RunBroadcast samples F e sqrt(a) sin(E) over one revolution.
func RunBroadcast(_ context.Context, cfg *config.Config, _ relativity.Propagator) (*Series, error) {
	el := cfg.Elements()
	anomaly, corr := relativity.BroadcastSeries(el.A, el.E, cfg.GNSS.BroadcastPoints)
	return &Series{
		Title: "Broadcast relativistic clock correction",
		X:     Column{Name: "eccentric_anomaly", Unit: "deg", Values: scaled(anomaly, 180/math.Pi)},
		Y: []Column{
			{Name: "correction", Unit: "ns", Values: scaled(corr, toNano)},
		},
		Summary: map[string]float64{
			"f_constant":   relativity.BroadcastF,
			"amplitude_ns": math.Abs(relativity.BroadcastF*el.E*math.Sqrt(el.A)) * toNano,
		},
	}, nil
}

// RunRangeError shows the pseudorange error growth of an uncorrected clock.
func RunRangeError(_ context.Context, cfg *config.Config, _ relativity.Propagator) (*Series, error) {
	days := kepler.Linspace(0, cfg.GNSS.Days, cfg.GNSS.DayPoints)
	if cfg.GNSS.DayPoints == 1 {
		days = []float64{cfg.GNSS.Days}
	}
	errs := relativity.RangeErrorGrowth(days, cfg.GNSS.DailyOffset)
	perDay := relativity.RangeErrorGrowth([]float64{1}, cfg.GNSS.DailyOffset)[0]

	return &Series{
		Title: "Pseudorange error without relativistic correction",
		X:     Column{Name: "days", Unit: "d", Values: days},
		Y: []Column{
			{Name: "range_error", Unit: "km", Values: scaled(errs, 1e-3)},
		},
		Summary: map[string]float64{
			"per_day_km": perDay * 1e-3,
			"final_km":   errs[len(errs)-1] * 1e-3,
		},
	}, nil
}

// RunGMAnalytic sweeps the per-orbit gravitomagnetic estimate over inclination.
func RunGMAnalytic(_ context.Context, cfg *config.Config, _ relativity.Propagator) (*Series, error) {
	incs := kepler.Linspace(0, 90, cfg.Gravitomagnetic.IncPoints)
	dtau := make([]float64, len(incs))
	for i, inc := range incs {
		dtau[i] = relativity.AnalyticDeltaTauPerOrbit(kepler.Deg2Rad(inc)) * toMicro
	}

	el := cfg.Elements()
	return &Series{
		Title: "Gravitomagnetic proper-time difference per orbit",
		X:     Column{Name: "inclination", Unit: "deg", Values: incs},
		Y: []Column{
			{Name: "delta_tau", Unit: "µs", Values: dtau},
		},
		Summary: map[string]float64{
			"equatorial_us":     relativity.AnalyticDeltaTauPerOrbit(0) * toMicro,
			"configured_us":     relativity.AnalyticDeltaTauPerOrbit(el.Inc) * toMicro,
			"lt_frequency_rads": relativity.LenseThirringFrequency(el.A),
		},
	}, nil
}

// RunGMDivergence integrates prograde and retrograde proper time and samples
// their difference once per orbit.
func RunGMDivergence(ctx context.Context, cfg *config.Config, p relativity.Propagator) (*Series, error) {
	el := cfg.Elements()
	gm := cfg.Gravitomagnetic
	d, err := relativity.CumulativeDivergence(ctx, p, el, gm.Orbits, gm.SamplesPerOrbit)
	if err != nil {
		return nil, err
	}

	last := len(d.DeltaTau) - 1
	summary := map[string]float64{
		"final_us":              d.DeltaTau[last] * toMicro,
		"analytic_per_orbit_us": relativity.AnalyticDeltaTauPerOrbit(el.Inc) * toMicro,
	}
	if d.Orbits[last] > 0 {
		summary["measured_per_orbit_us"] = d.DeltaTau[last] / d.Orbits[last] * toMicro
	}

	return &Series{
		Title: "Cumulative prograde minus retrograde proper time",
		X:     Column{Name: "orbits", Unit: "", Values: d.Orbits},
		Y: []Column{
			{Name: "delta_tau", Unit: "µs", Values: scaled(d.DeltaTau, toMicro)},
		},
		Summary: summary,
	}, nil
}

// RunPropagate samples the closed-form orbit and checks its invariants.
func RunPropagate(ctx context.Context, cfg *config.Config, p relativity.Propagator) (*Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el := cfg.Elements()
	times := kepler.Linspace(0, cfg.DurationSeconds(), cfg.Sampling.Samples)
	tr, err := p.Propagate(el, times)
	if err != nil {
		return nil, err
	}

	periodic := make([]float64, tr.Len())
	for i := range periodic {
		periodic[i] = relativity.PeriodicCorrection(tr.Position[i], tr.Velocity[i]) * toNano
	}

	summary := metrics.Evaluate(tr, metrics.Standard(el)...)
	summary["period_h"] = el.Period() * toHours
	summary["min_radius_km"] = floats.Min(tr.Radius) * 1e-3
	summary["max_radius_km"] = floats.Max(tr.Radius) * 1e-3
	summary["mean_speed_kms"] = floats.Sum(tr.Speed) / float64(tr.Len()) * 1e-3

	return &Series{
		Title: "Kepler propagation",
		X:     Column{Name: "time", Unit: "h", Values: scaled(tr.Times, toHours)},
		Y: []Column{
			{Name: "radius", Unit: "km", Values: scaled(tr.Radius, 1e-3)},
			{Name: "speed", Unit: "km/s", Values: scaled(tr.Speed, 1e-3)},
			{Name: "periodic_correction", Unit: "ns", Values: periodic},
		},
		Summary: summary,
	}, nil
}

// RunVerify integrates the two-body problem numerically and reports the
// position error against the closed-form orbit.
func RunVerify(ctx context.Context, cfg *config.Config, _ relativity.Propagator) (*Series, error) {
	el := cfg.Elements()
	duration := cfg.Verify.Orbits * el.Period()
	cmp, err := twobody.Compare(ctx, el, duration, cfg.Verify.Steps, cfg.Verify.Stepper)
	if err != nil {
		return nil, err
	}

	t := make([]float64, cmp.Steps)
	for i := range t {
		t[i] = float64(i+1) * cmp.Dt * toHours
	}
	return &Series{
		Title: "Numerical integration error (" + cmp.Stepper + ")",
		X:     Column{Name: "time", Unit: "h", Values: t},
		Y: []Column{
			{Name: "position_error", Unit: "m", Values: cmp.PositionError},
		},
		Summary: map[string]float64{
			"max_position_error_m":  cmp.MaxPositionError,
			"max_velocity_error_ms": cmp.MaxVelocityError,
			"energy_drift":          cmp.EnergyDrift,
			"step_s":                cmp.Dt,
		},
	}, nil
}
