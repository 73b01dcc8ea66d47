package kepler

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

const galileoA = 29600000.0

func TestGalileoCircularAtEpoch(t *testing.T) {
	el := Elements{A: galileoA, Inc: Deg2Rad(56)}
	tr, err := Propagate(el, []float64{0})
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}

	if tr.Radius[0] != galileoA {
		t.Errorf("radius = %.6f, want %.1f", tr.Radius[0], galileoA)
	}
	want := math.Sqrt(GMEarth / galileoA)
	if !scalar.EqualWithinRel(tr.Speed[0], want, 1e-12) {
		t.Errorf("speed = %.6f, want %.6f", tr.Speed[0], want)
	}
	if math.Abs(tr.Speed[0]-3669.64) > 0.01 {
		t.Errorf("speed = %.4f, want ~3669.64", tr.Speed[0])
	}
}

func TestSolveKepler(t *testing.T) {
	for _, e := range []float64{0, 0.01, 0.16, 0.5, 0.8} {
		for _, m := range Linspace(-math.Pi, 3*math.Pi, 37) {
			E := SolveKepler(m, e, DefaultIterations, 0)
			if res := E - e*math.Sin(E) - m; math.Abs(res) > 1e-12 {
				t.Errorf("e=%.2f M=%.3f: residual %g", e, m, res)
			}
		}
	}
}

func TestSolveKepler_ToleranceMatchesFixed(t *testing.T) {
	for _, m := range Linspace(0, 2*math.Pi, 50) {
		fixed := SolveKepler(m, 0.16, DefaultIterations, 0)
		early := SolveKepler(m, 0.16, DefaultIterations, 1e-15)
		if math.Abs(fixed-early) > 1e-13 {
			t.Errorf("M=%.3f: fixed %.16f vs tolerance %.16f", m, fixed, early)
		}
	}
}

func TestTrueAnomalyRoundTrip(t *testing.T) {
	for _, e := range []float64{0, 0.3, 0.7} {
		for _, E := range Linspace(-math.Pi+0.01, math.Pi-0.01, 25) {
			nu := TrueAnomaly(E, e)
			if got := EccentricAnomaly(nu, e); math.Abs(got-E) > 1e-12 {
				t.Errorf("e=%.1f E=%.3f: round trip gave %.12f", e, E, got)
			}
		}
	}
}

func TestRotation(t *testing.T) {
	inc, raan, argp := 0.9, 1.2, 0.7

	var want, tmp mat.Dense
	tmp.Mul(Rx(inc), Rz(argp))
	want.Mul(Rz(raan), &tmp)

	q := Rotation(inc, raan, argp)
	if !mat.EqualApprox(q, &want, 1e-15) {
		t.Fatalf("rotation mismatch:\n%v\n%v", mat.Formatted(q), mat.Formatted(&want))
	}

	var qtq mat.Dense
	qtq.Mul(q.T(), q)
	eye := mat.NewDiagDense(3, []float64{1, 1, 1})
	if !mat.EqualApprox(&qtq, eye, 1e-14) {
		t.Errorf("rotation is not orthonormal:\n%v", mat.Formatted(&qtq))
	}

	f := newFrame(q)
	v := Vec3{1, -2, 0.5}
	fast, slow := f.apply(v), Rotate(q, v)
	for i := range fast {
		if math.Abs(fast[i]-slow[i]) > 1e-15 {
			t.Errorf("frame.apply differs from Rotate at %d: %g vs %g", i, fast[i], slow[i])
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		el    Elements
		field string
	}{
		{"zero a", Elements{A: 0}, "a"},
		{"negative a", Elements{A: -1}, "a"},
		{"negative e", Elements{A: galileoA, E: -0.1}, "e"},
		{"parabolic", Elements{A: galileoA, E: 1}, "e"},
		{"negative mu", Elements{A: galileoA, Mu: -1}, "mu"},
		{"nan inc", Elements{A: galileoA, Inc: math.NaN()}, "inc"},
		{"inf anomaly", Elements{A: galileoA, MeanAnomaly: math.Inf(1)}, "mean_anomaly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Propagate(tt.el, []float64{0})
			if !errors.Is(err, ErrDomain) {
				t.Fatalf("expected ErrDomain, got %v", err)
			}
			var de *DomainError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DomainError, got %T", err)
			}
			if de.Field != tt.field {
				t.Errorf("field = %q, want %q", de.Field, tt.field)
			}
		})
	}
}

func TestPropagateUnchecked_Degenerate(t *testing.T) {
	p := New()
	tr := p.PropagateUnchecked(Elements{A: -1}, []float64{0, 10, 20})
	if tr.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", tr.Len())
	}
	for i, r := range tr.Radius {
		if !math.IsNaN(r) {
			t.Errorf("sample %d: expected NaN radius, got %g", i, r)
		}
	}

	tr = p.PropagateUnchecked(Elements{A: galileoA, E: 1}, []float64{0, 100})
	if tr.Len() != 2 {
		t.Fatalf("expected 2 samples, got %d", tr.Len())
	}
}

func TestPropagate_Empty(t *testing.T) {
	tr, err := Propagate(Elements{A: galileoA}, nil)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}
	if tr.Len() != 0 || len(tr.Position) != 0 {
		t.Errorf("expected empty trajectory, got %d samples", tr.Len())
	}
}

func TestPropagate_DoesNotAliasTimes(t *testing.T) {
	times := []float64{0, 60, 120}
	tr, err := Propagate(Elements{A: galileoA}, times)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}
	times[1] = 1e9
	if tr.Times[1] != 60 {
		t.Errorf("trajectory times alias the input slice")
	}
}

func TestPropagate_ParallelMatchesSerial(t *testing.T) {
	el := Elements{A: galileoA, E: 0.16, Inc: Deg2Rad(56), RAAN: 0.3, ArgPeriapsis: 1.1}
	times := Linspace(0, 86400, 10007)

	serial, err := New(WithWorkers(1)).Propagate(el, times)
	if err != nil {
		t.Fatalf("serial propagate failed: %v", err)
	}
	par, err := New(WithWorkers(8), WithMinChunk(100)).Propagate(el, times)
	if err != nil {
		t.Fatalf("parallel propagate failed: %v", err)
	}

	for i := range times {
		if serial.Position[i] != par.Position[i] || serial.Velocity[i] != par.Velocity[i] ||
			serial.Radius[i] != par.Radius[i] || serial.Speed[i] != par.Speed[i] {
			t.Fatalf("sample %d differs between serial and parallel runs", i)
		}
	}
}

func TestElementsFromState_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		el   Elements
	}{
		{"inclined eccentric", Elements{A: galileoA, E: 0.16, Inc: 0.9, RAAN: 1.2, ArgPeriapsis: 0.7, MeanAnomaly: 2.0}},
		{"gps-like", Elements{A: 26560e3, E: 0.01, Inc: Deg2Rad(55), RAAN: 4.0, ArgPeriapsis: 5.5, MeanAnomaly: 0.3}},
		{"equatorial eccentric", Elements{A: 7000e3, E: 0.2, ArgPeriapsis: 1.0, MeanAnomaly: 1.5}},
		{"circular inclined", Elements{A: galileoA, Inc: Deg2Rad(56), RAAN: 0.4, MeanAnomaly: 2.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New().StateAt(tt.el, 0)
			if err != nil {
				t.Fatalf("state failed: %v", err)
			}
			got, err := ElementsFromState(s.Position, s.Velocity, GMEarth)
			if err != nil {
				t.Fatalf("conversion failed: %v", err)
			}

			if !scalar.EqualWithinRel(got.A, tt.el.A, 1e-9) {
				t.Errorf("a = %.3f, want %.3f", got.A, tt.el.A)
			}
			if math.Abs(got.E-tt.el.E) > 1e-9 {
				t.Errorf("e = %.12f, want %.12f", got.E, tt.el.E)
			}
			if math.Abs(got.Inc-tt.el.Inc) > 1e-9 {
				t.Errorf("inc = %.12f, want %.12f", got.Inc, tt.el.Inc)
			}

			back, err := New().StateAt(got, 0)
			if err != nil {
				t.Fatalf("re-propagation failed: %v", err)
			}
			if d := back.Position.Sub(s.Position).Norm(); d > 1e-3 {
				t.Errorf("position round trip error %.6f m", d)
			}
			if d := back.Velocity.Sub(s.Velocity).Norm(); d > 1e-6 {
				t.Errorf("velocity round trip error %.9f m/s", d)
			}
		})
	}
}

func TestElementsFromState_Degenerate(t *testing.T) {
	if _, err := ElementsFromState(Vec3{}, Vec3{1, 0, 0}, GMEarth); !errors.Is(err, ErrDegenerateState) {
		t.Errorf("zero radius: expected ErrDegenerateState, got %v", err)
	}
	if _, err := ElementsFromState(Vec3{7e6, 0, 0}, Vec3{1e3, 0, 0}, GMEarth); !errors.Is(err, ErrDegenerateState) {
		t.Errorf("radial velocity: expected ErrDegenerateState, got %v", err)
	}
	if _, err := ElementsFromState(Vec3{7e6, 0, 0}, Vec3{0, 2e4, 0}, GMEarth); !errors.Is(err, ErrDegenerateState) {
		t.Errorf("escape velocity: expected ErrDegenerateState, got %v", err)
	}
	if _, err := ElementsFromState(Vec3{7e6, 0, 0}, Vec3{0, 7e3, 0}, 0); !errors.Is(err, ErrDomain) {
		t.Errorf("zero mu: expected ErrDomain, got %v", err)
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 7, 8)
	for i, v := range got {
		if v != float64(i) {
			t.Errorf("Linspace(0,7,8)[%d] = %g", i, v)
		}
	}
	if len(Linspace(0, 1, 0)) != 0 {
		t.Error("expected empty slice for n=0")
	}
	if one := Linspace(3, 9, 1); len(one) != 1 || one[0] != 3 {
		t.Errorf("Linspace(3,9,1) = %v", one)
	}
	if last := Linspace(0, 86400, 5000); last[len(last)-1] != 86400 {
		t.Errorf("endpoint not included: %g", last[len(last)-1])
	}
}

func TestElementDerivedQuantities(t *testing.T) {
	el := Elements{A: galileoA, E: 0.16}
	if got := el.MeanMotion() * el.Period(); math.Abs(got-2*math.Pi) > 1e-12 {
		t.Errorf("n*T = %.15f, want 2π", got)
	}
	if el.Periapsis() >= el.A || el.Apoapsis() <= el.A {
		t.Errorf("periapsis %.1f / apoapsis %.1f not around a", el.Periapsis(), el.Apoapsis())
	}
	if NormalizeAngle(-0.5) < 0 || NormalizeAngle(7) >= 2*math.Pi {
		t.Error("NormalizeAngle out of [0, 2π)")
	}
}
