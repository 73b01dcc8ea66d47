package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/relclock/internal/config"
	"github.com/san-kum/relclock/internal/observability"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Sampling.Samples = 1000
	cfg.Gravitomagnetic.Orbits = 4
	cfg.Gravitomagnetic.SamplesPerOrbit = 200
	cfg.Gravitomagnetic.IncPoints = 91
	cfg.Verify.Steps = 2000
	return cfg
}

func runNamed(t *testing.T, name string, cfg *config.Config) *Series {
	t.Helper()
	s, err := NewRegistry().Run(context.Background(), name, cfg, nil)
	if err != nil {
		t.Fatalf("run %s: %v", name, err)
	}
	if s.Experiment != name {
		t.Errorf("series experiment = %q, want %q", s.Experiment, name)
	}
	return s
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	want := []string{"broadcast", "gm-analytic", "gm-divergence", "offset", "propagate", "range-error", "residual", "verify"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	for _, e := range r.List() {
		if e.Description == "" || e.Run == nil {
			t.Errorf("entry %s incomplete", e.Name)
		}
	}
}

func TestUnknownExperiment(t *testing.T) {
	_, err := NewRegistry().Run(context.Background(), "warp-drive", smallConfig(), nil)
	if !errors.Is(err, ErrUnknownExperiment) {
		t.Fatalf("expected ErrUnknownExperiment, got %v", err)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := smallConfig()
	cfg.Orbit.E = 1.2
	_, err := NewRegistry().Run(context.Background(), "offset", cfg, nil)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRegistry().Run(ctx, "offset", smallConfig(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOffsetGalileo(t *testing.T) {
	s := runNamed(t, "offset", smallConfig())

	perDay := s.Summary["offset_per_day_us"]
	if perDay < 40 || perDay > 42 {
		t.Errorf("offset per day = %.3f µs, want about 40.8", perDay)
	}
	off, ok := s.Column("offset")
	if !ok {
		t.Fatal("missing offset column")
	}
	if math.Abs(off.Values[len(off.Values)-1]-s.Summary["final_offset_us"]) > 1e-9 {
		t.Error("final offset summary disagrees with the series")
	}
	if math.Abs(s.X.Values[len(s.X.Values)-1]-24) > 1e-9 {
		t.Errorf("last time = %v h, want 24", s.X.Values[len(s.X.Values)-1])
	}
}

func TestResidualAmplitude(t *testing.T) {
	cfg := config.GetPreset("galileo", "eccentric")
	cfg.Sampling.Samples = 2000
	s := runNamed(t, "residual", cfg)

	expected := s.Summary["expected_amplitude_ns"]
	p2p := s.Summary["peak_to_peak_ns"]
	if p2p < 0.5*expected || p2p > 4*expected {
		t.Errorf("peak-to-peak %.2f ns outside [%.2f, %.2f]", p2p, 0.5*expected, 4*expected)
	}
	if s.Summary["slope"] <= 0 {
		t.Errorf("secular slope = %g, want positive", s.Summary["slope"])
	}
}

func TestResidualDominantPeriod(t *testing.T) {
	cfg := config.GetPreset("galileo", "eccentric")
	cfg.Sampling.DurationHours = 72
	cfg.Sampling.Samples = 3000
	s := runNamed(t, "residual", cfg)

	period := s.Summary["period_h"]
	got, ok := s.Summary["dominant_period_h"]
	if !ok {
		t.Fatal("dominant period missing")
	}
	if math.Abs(got-period) > 0.05*period {
		t.Errorf("dominant period %.2f h, orbital period %.2f h", got, period)
	}
}

func TestResidualShortWindowOmitsDominantPeriod(t *testing.T) {
	// preset window is 12 h, shorter than the 14.08 h orbit
	s := runNamed(t, "residual", config.GetPreset("galileo", "eccentric"))

	if got, ok := s.Summary["dominant_period_h"]; ok {
		t.Errorf("dominant period %.3f h reported for a window shorter than one orbit (%.3f h)", got, s.Summary["period_h"])
	}
	if s.Summary["period_h"] < 14 || s.Summary["period_h"] > 14.2 {
		t.Errorf("period_h = %g", s.Summary["period_h"])
	}
}

func TestBroadcastAndRangeError(t *testing.T) {
	cfg := config.GetPreset("gps", "nominal")

	b := runNamed(t, "broadcast", cfg)
	if b.Len() != cfg.GNSS.BroadcastPoints {
		t.Errorf("broadcast len = %d", b.Len())
	}
	corr, _ := b.Column("correction")
	peak := 0.0
	for _, v := range corr.Values {
		peak = math.Max(peak, math.Abs(v))
	}
	if math.Abs(peak-b.Summary["amplitude_ns"]) > 1e-3*b.Summary["amplitude_ns"] {
		t.Errorf("peak %.4f ns, amplitude %.4f ns", peak, b.Summary["amplitude_ns"])
	}

	r := runNamed(t, "range-error", cfg)
	if math.Abs(r.Summary["per_day_km"]-11.392) > 0.01 {
		t.Errorf("range error per day = %.4f km", r.Summary["per_day_km"])
	}
	if math.Abs(r.Summary["final_km"]-7*r.Summary["per_day_km"]) > 1e-9 {
		t.Errorf("final range error = %.4f km", r.Summary["final_km"])
	}
}

func TestGMAnalytic(t *testing.T) {
	s := runNamed(t, "gm-analytic", smallConfig())

	eq := s.Summary["equatorial_us"]
	if eq < 0.13 || eq > 0.145 {
		t.Errorf("equatorial estimate = %.4f µs", eq)
	}
	want := eq * math.Cos(56*math.Pi/180)
	if math.Abs(s.Summary["configured_us"]-want) > 1e-12 {
		t.Errorf("configured = %g, want %g", s.Summary["configured_us"], want)
	}
	dtau, _ := s.Column("delta_tau")
	if math.Abs(dtau.Values[len(dtau.Values)-1]) > 1e-12 {
		t.Errorf("polar estimate should vanish, got %g", dtau.Values[len(dtau.Values)-1])
	}
}

func TestGMDivergence(t *testing.T) {
	s := runNamed(t, "gm-divergence", smallConfig())

	if s.Len() != 4 {
		t.Fatalf("expected one sample per orbit, got %d", s.Len())
	}
	if s.X.Values[0] != 0 {
		t.Errorf("first orbit = %v", s.X.Values[0])
	}
	if s.Summary["final_us"] <= 0 {
		t.Errorf("prograde clock should gain on retrograde, got %g µs", s.Summary["final_us"])
	}
}

func TestPropagateInvariants(t *testing.T) {
	cfg := smallConfig()
	cfg.Orbit.E = 0.1
	s := runNamed(t, "propagate", cfg)

	if len(s.Y) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(s.Y))
	}
	if s.Summary["vis_viva_residual"] > 1e-9 {
		t.Errorf("vis-viva residual = %g", s.Summary["vis_viva_residual"])
	}
	if s.Summary["radius_in_bounds"] != 1 {
		t.Errorf("radius in bounds = %g", s.Summary["radius_in_bounds"])
	}
	if s.Summary["min_radius_km"] < 29600*0.9-1 || s.Summary["max_radius_km"] > 29600*1.1+1 {
		t.Errorf("radius range [%g, %g] km", s.Summary["min_radius_km"], s.Summary["max_radius_km"])
	}
}

func TestVerifyRK4(t *testing.T) {
	s := runNamed(t, "verify", config.GetPreset("verify", "rk4"))
	if s.Len() != 2000 {
		t.Errorf("len = %d", s.Len())
	}
	if s.Summary["max_position_error_m"] > 10 {
		t.Errorf("rk4 position error = %g m", s.Summary["max_position_error_m"])
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := observability.NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}

	cfg := smallConfig()
	if _, err := NewRegistry().Run(context.Background(), "offset", cfg, c); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(c.SamplesPropagated); got != float64(cfg.Sampling.Samples) {
		t.Errorf("samples propagated = %v", got)
	}
	if got := testutil.ToFloat64(c.ExperimentRuns.WithLabelValues("offset", "ok")); got != 1 {
		t.Errorf("ok runs = %v", got)
	}
	if got := testutil.ToFloat64(c.Summary.WithLabelValues("offset", "offset_per_day_us")); got < 40 {
		t.Errorf("summary gauge = %v", got)
	}
}

func TestSeriesValidate(t *testing.T) {
	s := &Series{
		X: Column{Name: "t", Values: []float64{0, 1}},
		Y: []Column{{Name: "y", Values: []float64{1}}},
	}
	if err := s.Validate(); !errors.Is(err, ErrMalformedSeries) {
		t.Fatalf("expected ErrMalformedSeries, got %v", err)
	}
	if got := (Column{Name: "offset", Unit: "µs"}).Label(); got != "offset [µs]" {
		t.Errorf("label = %q", got)
	}
}
