package kepler

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain indicates orbital elements outside the bound two-body domain.
	ErrDomain = errors.New("kepler: elements outside valid domain")

	// ErrDegenerateState indicates a state vector with no defined orbit (zero
	// radius or zero angular momentum) or an unbound trajectory.
	ErrDegenerateState = errors.New("kepler: degenerate state vector")
)

// DomainError reports which element violated a precondition.
type DomainError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("kepler: %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *DomainError) Unwrap() error {
	return ErrDomain
}
