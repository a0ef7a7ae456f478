package core

import (
	"fmt"
	"math"
	"time"

	"github.com/shandianxiao218/fly-cline/model"
)

// Physical constants for broadcast-ephemeris propagation.
const (
	// muEarth is the WGS84 Earth gravitational constant (m^3/s^2).
	muEarth = 3.986004418e14
	// earthRotationRate is the WGS84 Earth rotation rate (rad/s).
	earthRotationRate = 7.2921151467e-5
)

// Kepler-equation solver settings.
const (
	keplerTolerance  = 1e-12
	keplerIterations = 100
)

// PropagateOrbit computes a satellite's ECEF position at time t from its
// broadcast orbital elements.
//
// The algorithm is the standard GPS interface-specification procedure:
// mean anomaly from the corrected mean motion, eccentric anomaly via
// Newton-Raphson on Kepler's equation, true anomaly and argument of
// latitude, second-harmonic perturbation corrections, then rotation of the
// in-plane coordinates by the Earth-rotation-corrected right ascension.
//
// Satellite clock bias is not applied; positions are geometric only.
//
// Fails with ErrOutOfValidity when t lies outside the validity window
// (bounds inclusive), ErrEphemerisData when the elements are incomplete,
// and ErrNonConvergence when the Kepler solve hits its iteration cap.
func PropagateOrbit(elem model.OrbitalElements, validity model.ValidityWindow, t time.Time) (Vec3, error) {
	if err := checkElements(elem); err != nil {
		return Vec3{}, err
	}
	if !validity.Contains(t) {
		return Vec3{}, fmt.Errorf("%w: %s not in [%s, %s]",
			ErrOutOfValidity,
			t.UTC().Format(time.RFC3339),
			validity.From.UTC().Format(time.RFC3339),
			validity.To.UTC().Format(time.RFC3339))
	}

	tk := timeFromEphemeris(t, elem.Toe)

	// Corrected mean motion and mean anomaly, normalised into [0, 2pi).
	a := elem.RootA * elem.RootA
	n := math.Sqrt(muEarth/(a*a*a)) + elem.DeltaN
	mk := math.Mod(elem.M0+n*tk, 2*math.Pi)
	if mk < 0 {
		mk += 2 * math.Pi
	}

	ek, err := solveKepler(mk, elem.Eccentricity)
	if err != nil {
		return Vec3{}, err
	}
	sinE, cosE := math.Sin(ek), math.Cos(ek)

	// True anomaly and argument of latitude.
	e := elem.Eccentricity
	vk := math.Atan2(math.Sqrt(1-e*e)*sinE, cosE-e)
	phik := vk + elem.Omega

	// Second-harmonic perturbation corrections.
	sin2phi := math.Sin(2 * phik)
	cos2phi := math.Cos(2 * phik)

	uk := phik + elem.Cus*sin2phi + elem.Cuc*cos2phi
	rk := a*(1-e*cosE) + elem.Crs*sin2phi + elem.Crc*cos2phi
	ik := elem.I0 + elem.Idot*tk + elem.Cis*sin2phi + elem.Cic*cos2phi

	// In-plane coordinates.
	xp := rk * math.Cos(uk)
	yp := rk * math.Sin(uk)

	// Right ascension corrected for Earth rotation over the
	// transmission-to-reference interval.
	omegak := elem.Omega0 + (elem.OmegaDot-earthRotationRate)*tk - earthRotationRate*elem.Toe
	sinO, cosO := math.Sin(omegak), math.Cos(omegak)
	sinI, cosI := math.Sin(ik), math.Cos(ik)

	return Vec3{
		X: xp*cosO - yp*cosI*sinO,
		Y: xp*sinO + yp*cosI*cosO,
		Z: yp * sinI,
	}, nil
}

// solveKepler solves E - e*sin(E) = M for the eccentric anomaly E by
// Newton-Raphson with initial guess E0 = M. A convergence failure is
// surfaced as ErrNonConvergence rather than returning the truncated value.
func solveKepler(m, e float64) (float64, error) {
	ek := m
	for i := 0; i < keplerIterations; i++ {
		delta := (ek - e*math.Sin(ek) - m) / (1 - e*math.Cos(ek))
		ek -= delta
		if math.Abs(delta) < keplerTolerance {
			return ek, nil
		}
	}
	return 0, fmt.Errorf("%w: e=%g M=%g after %d iterations", ErrNonConvergence, e, m, keplerIterations)
}

// checkElements rejects element sets missing the parameters the propagation
// cannot proceed without.
func checkElements(elem model.OrbitalElements) error {
	if elem.RootA <= 0 {
		return fmt.Errorf("%w: rootA must be positive", ErrEphemerisData)
	}
	if elem.Eccentricity < 0 || elem.Eccentricity >= 1 {
		return fmt.Errorf("%w: eccentricity %g outside [0, 1)", ErrEphemerisData, elem.Eccentricity)
	}
	for _, f := range []float64{
		elem.Toe, elem.M0, elem.I0, elem.Idot,
		elem.Omega0, elem.OmegaDot, elem.Omega, elem.DeltaN,
		elem.Cuc, elem.Cus, elem.Crc, elem.Crs, elem.Cic, elem.Cis,
	} {
		if !isFinite(f) {
			return fmt.Errorf("%w: non-finite orbital parameter", ErrEphemerisData)
		}
	}
	return nil
}
