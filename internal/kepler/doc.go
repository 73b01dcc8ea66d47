// Package kepler propagates classical orbital elements to inertial state vectors.
//
// The package is the numeric core shared by every clock experiment in relclock:
//
//   - [Elements]: classical orbital elements (a, e, i, RAAN, argument of periapsis, M0)
//   - [Propagator]: closed-form two-body propagation over arbitrary time samples
//   - [Trajectory]: index-aligned position, velocity, radius and speed
//   - [SolveKepler]: Newton-Raphson solution of E - e*sin(E) = M
//   - [Rotation]: the 3-1-3 perifocal to inertial rotation Rz(RAAN)·Rx(i)·Rz(ω)
//
// # Example
//
//	el := kepler.Elements{A: 29.6e6, Inc: kepler.Deg2Rad(56)}
//	times := kepler.Linspace(0, 86400, 5000)
//	traj, err := kepler.Propagate(el, times)
//
// # Numerics
//
// By default the Kepler equation is solved with exactly 20 Newton iterations from
// E0 = M and no convergence test, which is well past double-precision convergence
// for e < 0.9. [WithTolerance] enables an early exit without changing results for
// typical inputs.
//
// # Thread Safety
//
// A [Propagator] holds only immutable options and may be shared between
// goroutines. Propagation has no side effects.
package kepler
