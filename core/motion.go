package core

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/shandianxiao218/fly-cline/model"
)

// PositionSource yields a satellite's ECEF position at a given instant.
// Implementations are pure: identical inputs always produce identical
// outputs, so sources may be shared across goroutines.
type PositionSource interface {
	PositionECEF(t time.Time) (Vec3, error)
}

// BroadcastEphemerisSource propagates from broadcast orbital elements,
// enforcing the validity window on every call.
type BroadcastEphemerisSource struct {
	Elements model.OrbitalElements
	Validity model.ValidityWindow
}

// PositionECEF implements PositionSource via Kepler propagation.
func (s *BroadcastEphemerisSource) PositionECEF(t time.Time) (Vec3, error) {
	return PropagateOrbit(s.Elements, s.Validity, t)
}

// TLESource propagates with SGP4 from a two-line element set. It serves
// satellites that are tracked in the catalog but have no broadcast
// ephemeris loaded, trading broadcast-level accuracy for coverage.
type TLESource struct {
	sat satellite.Satellite
}

// NewTLESource parses the TLE lines once; the resulting source is
// read-only and safe for concurrent use.
func NewTLESource(line1, line2 string) (*TLESource, error) {
	if line1 == "" || line2 == "" {
		return nil, fmt.Errorf("%w: TLE lines", ErrMissingParameter)
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	return &TLESource{sat: sat}, nil
}

// PositionECEF propagates the TLE to t and rotates the ECI result into
// ECEF. go-satellite works in kilometres; positions here are metres.
func (s *TLESource) PositionECEF(t time.Time) (Vec3, error) {
	utc := t.UTC()
	year, month, day := utc.Date()
	hour, min, sec := utc.Clock()

	posECI, _ := satellite.Propagate(s.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	const kmToM = 1000.0
	pos := Vec3{X: posECEF.X * kmToM, Y: posECEF.Y * kmToM, Z: posECEF.Z * kmToM}
	if !pos.IsFinite() {
		return Vec3{}, fmt.Errorf("%w: SGP4 propagation produced non-finite position", ErrEphemerisData)
	}
	return pos, nil
}
