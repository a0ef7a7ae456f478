package model

import "time"

// OrbitalElements are the broadcast ephemeris parameters for one satellite,
// as transmitted in the GPS/BeiDou navigation message. They are parsed once
// from a navigation file and read-only afterwards.
type OrbitalElements struct {
	// Toe is the ephemeris reference time, seconds into the GPS week.
	Toe float64

	M0           float64 // mean anomaly at reference time (rad)
	Eccentricity float64
	RootA        float64 // square root of the semi-major axis (m^1/2)

	I0   float64 // inclination at reference time (rad)
	Idot float64 // inclination rate (rad/s)

	Omega0   float64 // right ascension of ascending node at week epoch (rad)
	OmegaDot float64 // rate of right ascension (rad/s)
	Omega    float64 // argument of perigee (rad)

	DeltaN float64 // mean motion correction (rad/s)

	// Second-harmonic perturbation coefficients.
	Cuc float64 // argument-of-latitude cosine (rad)
	Cus float64 // argument-of-latitude sine (rad)
	Crc float64 // orbital radius cosine (m)
	Crs float64 // orbital radius sine (m)
	Cic float64 // inclination cosine (rad)
	Cis float64 // inclination sine (rad)
}

// ValidityWindow bounds the interval over which a set of broadcast elements
// may be used. Propagation outside the window is an error, never an
// extrapolation. Both bounds are inclusive.
type ValidityWindow struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies inside the window, bounds included.
func (w ValidityWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}
