package relativity

import "errors"

var (
	// ErrNoSamples indicates a series too short to define a time step.
	ErrNoSamples = errors.New("relativity: at least two samples required")

	// ErrInvalidDuration indicates a non-positive integration span.
	ErrInvalidDuration = errors.New("relativity: duration must be positive")

	// ErrLengthMismatch indicates paired series of different lengths.
	ErrLengthMismatch = errors.New("relativity: series length mismatch")
)
