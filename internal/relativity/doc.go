// Package relativity evaluates relativistic clock corrections for satellites
// propagated by package kepler.
//
// Three families of evaluators are provided:
//
//   - Redshift and time dilation: [FractionalRate], [Accumulate], [ClockOffset]
//     and [Detrend] integrate the satellite-minus-ground clock rate over an orbit.
//   - GNSS broadcast terms: [BroadcastCorrection] and [RangeErrorGrowth] give the
//     eccentricity correction and the navigation error that accrues if
//     relativity is ignored.
//   - Gravitomagnetic clock effect: [AnalyticDeltaTauPerOrbit] and
//     [CumulativeDivergence] estimate the prograde/retrograde proper-time split.
//
// The gravitomagnetic proper-time integration is a toy model: the Lense-Thirring
// term is an order-of-magnitude construction that captures the sign change
// between prograde and retrograde orbits. It is not a flight-dynamics model.
//
// # Precision
//
// Proper-time rates sit within 1e-9 of unity while the Lense-Thirring term is
// near 1e-17, below the spacing of float64 values around 1. Integrators in this
// package therefore accumulate the deviation of the rate from unity and add the
// coordinate time back only when reporting tau.
package relativity
