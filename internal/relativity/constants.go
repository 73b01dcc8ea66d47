package relativity

import "github.com/san-kum/relclock/internal/kepler"

const (
	// C is the speed of light in m/s.
	C = 299792458.0

	GMEarth = kepler.GMEarth

	// REarth is the WGS84 equatorial radius in m.
	REarth = 6378137.0

	// OmegaEarth is Earth's rotation rate in rad/s.
	OmegaEarth = 7.2921150e-5

	// G is the Newtonian constant of gravitation in m^3 kg^-1 s^-2.
	G = 6.67430e-11

	// MEarth is Earth's mass in kg.
	MEarth = 5.9722e24

	// MomentOfInertiaFactor is Earth's dimensionless I/(M R^2).
	MomentOfInertiaFactor = 0.3307

	// IEarth is Earth's moment of inertia in kg m^2.
	IEarth = MomentOfInertiaFactor * MEarth * REarth * REarth

	// JEarth is Earth's spin angular momentum in kg m^2/s.
	JEarth = IEarth * OmegaEarth

	// DailyOffset is the net relativistic GPS clock gain per day in seconds.
	DailyOffset = 38.0e-6

	c2 = C * C
)
