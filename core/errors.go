package core

import "errors"

// Sentinel errors forming the closed failure taxonomy of the visibility
// core. Callers branch with errors.Is rather than parsing message text;
// the transport layer maps these onto structured error responses.
var (
	// ErrMissingParameter marks a required input that is absent or
	// malformed (NaN/Inf position components, zero frequency, ...).
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrSatelliteNotFound marks a satellite ID with no ephemeris entry.
	ErrSatelliteNotFound = errors.New("satellite not found")

	// ErrEphemerisData marks an ephemeris entry that exists but lacks
	// required orbital parameters.
	ErrEphemerisData = errors.New("incomplete ephemeris data")

	// ErrOutOfValidity marks an evaluation time outside the ephemeris
	// validity window.
	ErrOutOfValidity = errors.New("time outside ephemeris validity window")

	// ErrNonConvergence marks a Kepler-equation iteration that failed to
	// converge within the iteration cap.
	ErrNonConvergence = errors.New("kepler iteration did not converge")
)
