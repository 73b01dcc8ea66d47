// Package ephem derives classical orbital elements from two-line element sets.
//
// The TLE is propagated to its own epoch with SGP4 (go-satellite) and the TEME
// state vector is converted to osculating Keplerian elements. These are suitable
// as initial conditions for the clock experiments, not as a replacement for SGP4.
package ephem

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/san-kum/relclock/internal/kepler"
)

var (
	ErrInvalidTLE        = errors.New("ephem: invalid TLE")
	ErrPropagationFailed = errors.New("ephem: sgp4 propagation failed")
)

const tleLineLen = 69

// TLE is a two-line element set with an optional name line.
type TLE struct {
	Name  string
	Line1 string
	Line2 string
}

// ParseTLE accepts two or three non-empty lines (name, line 1, line 2).
func ParseTLE(text string) (TLE, error) {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimRight(l, " \t"); strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}

	var t TLE
	switch len(lines) {
	case 2:
		t = TLE{Line1: lines[0], Line2: lines[1]}
	case 3:
		t = TLE{Name: strings.TrimSpace(lines[0]), Line1: lines[1], Line2: lines[2]}
	default:
		return TLE{}, fmt.Errorf("%w: expected 2 or 3 lines, got %d", ErrInvalidTLE, len(lines))
	}
	return t, t.Validate()
}

// Validate checks line shape before the lines reach go-satellite, which exits
// the process on malformed input.
func (t TLE) Validate() error {
	l1, l2 := strings.TrimSpace(t.Line1), strings.TrimSpace(t.Line2)
	if len(l1) != tleLineLen {
		return fmt.Errorf("%w: line1 length %d, expected %d", ErrInvalidTLE, len(l1), tleLineLen)
	}
	if len(l2) != tleLineLen {
		return fmt.Errorf("%w: line2 length %d, expected %d", ErrInvalidTLE, len(l2), tleLineLen)
	}
	if l1[0] != '1' {
		return fmt.Errorf("%w: line1 must start with '1', got '%c'", ErrInvalidTLE, l1[0])
	}
	if l2[0] != '2' {
		return fmt.Errorf("%w: line2 must start with '2', got '%c'", ErrInvalidTLE, l2[0])
	}
	if a, b := strings.TrimSpace(l1[2:7]), strings.TrimSpace(l2[2:7]); a != b {
		return fmt.Errorf("%w: catalog numbers differ (%s vs %s)", ErrInvalidTLE, a, b)
	}
	if _, err := t.Epoch(); err != nil {
		return err
	}
	return nil
}

// Epoch decodes the epoch field of line 1. Two-digit years 57-99 are 19xx.
func (t TLE) Epoch() (time.Time, error) {
	l1 := strings.TrimSpace(t.Line1)
	if len(l1) < 32 {
		return time.Time{}, fmt.Errorf("%w: line1 too short for epoch", ErrInvalidTLE)
	}

	yy, err := strconv.Atoi(strings.TrimSpace(l1[18:20]))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: epoch year: %v", ErrInvalidTLE, err)
	}
	doy, err := strconv.ParseFloat(strings.TrimSpace(l1[20:32]), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: epoch day: %v", ErrInvalidTLE, err)
	}
	if doy < 1 || doy >= 367 {
		return time.Time{}, fmt.Errorf("%w: epoch day %g out of range", ErrInvalidTLE, doy)
	}

	year := 2000 + yy
	if yy >= 57 {
		year = 1900 + yy
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	offset := time.Duration((doy - 1) * float64(24*time.Hour))
	return start.Add(offset), nil
}

// Gravity selects the SGP4 constant set.
type Gravity string

const (
	WGS72 Gravity = "wgs72"
	WGS84 Gravity = "wgs84"
)

func (g Gravity) constants() (satellite.Gravity, error) {
	switch strings.ToLower(string(g)) {
	case "", string(WGS84):
		return satellite.GravityWGS84, nil
	case string(WGS72):
		return satellite.GravityWGS72, nil
	default:
		return satellite.GravityWGS84, fmt.Errorf("ephem: unknown gravity model %q", g)
	}
}

// State is the osculating orbit of a TLE at its epoch.
type State struct {
	Name     string
	Epoch    time.Time // rounded to the second
	Position kepler.Vec3
	Velocity kepler.Vec3
	Elements kepler.Elements
}

// ElementsFromTLE propagates the TLE to its epoch with SGP4 and converts the
// TEME state (km, km/s) to Keplerian elements in meters.
func ElementsFromTLE(t TLE, g Gravity) (*State, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	grav, err := g.constants()
	if err != nil {
		return nil, err
	}

	sat := satellite.TLEToSat(strings.TrimSpace(t.Line1), strings.TrimSpace(t.Line2), grav)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: init code=%d %s", ErrPropagationFailed, sat.Error, sat.ErrorStr)
	}

	epoch, err := t.Epoch()
	if err != nil {
		return nil, err
	}
	epoch = epoch.Round(time.Second)

	pos, vel := satellite.Propagate(sat,
		epoch.Year(), int(epoch.Month()), epoch.Day(),
		epoch.Hour(), epoch.Minute(), epoch.Second())

	r := kepler.Vec3{pos.X * 1000, pos.Y * 1000, pos.Z * 1000}
	v := kepler.Vec3{vel.X * 1000, vel.Y * 1000, vel.Z * 1000}
	if !r.IsFinite() || !v.IsFinite() || r.Norm() == 0 {
		return nil, fmt.Errorf("%w: non-finite state at epoch", ErrPropagationFailed)
	}
	if km := r.Norm() / 1000; km < 6200 || km > 500000 {
		return nil, fmt.Errorf("%w: unreasonable radius %.1f km", ErrPropagationFailed, km)
	}

	el, err := kepler.ElementsFromState(r, v, kepler.GMEarth)
	if err != nil {
		return nil, fmt.Errorf("convert state: %w", err)
	}

	return &State{
		Name:     t.Name,
		Epoch:    epoch,
		Position: r,
		Velocity: v,
		Elements: el,
	}, nil
}

// MeanMotionRevPerDay returns the mean motion field of line 2.
func (t TLE) MeanMotionRevPerDay() (float64, error) {
	l2 := strings.TrimSpace(t.Line2)
	if len(l2) < 63 {
		return 0, fmt.Errorf("%w: line2 too short for mean motion", ErrInvalidTLE)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(l2[52:63]), 64)
	if err != nil || n <= 0 || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: mean motion %q", ErrInvalidTLE, l2[52:63])
	}
	return n, nil
}
