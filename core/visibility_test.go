package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shandianxiao218/fly-cline/model"
)

// fixedSource returns the same ECEF position for every epoch.
type fixedSource struct {
	pos Vec3
}

func (s *fixedSource) PositionECEF(time.Time) (Vec3, error) { return s.pos, nil }

// failingSource always fails with the wrapped error.
type failingSource struct {
	err error
}

func (s *failingSource) PositionECEF(time.Time) (Vec3, error) { return Vec3{}, s.err }

// mapProvider is a test EphemerisProvider backed by a plain map.
type mapProvider map[string]PositionSource

func (p mapProvider) PositionSource(id string) (PositionSource, error) {
	src, ok := p[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSatelliteNotFound, id)
	}
	return src, nil
}

var testAircraft = model.AircraftState{
	Position: model.GeodeticPosition{LonDeg: 0, LatDeg: 0, AltM: 10000},
}

func gpsQuery(id string) SatelliteQuery {
	return SatelliteQuery{ID: id, Radio: model.RadioParameters{
		TxPowerDBw:  14.3,
		FrequencyHz: 1575.42e6,
	}}
}

func TestEvaluate_VisibleSatelliteGetsSignalStrength(t *testing.T) {
	// Satellite directly overhead the aircraft at MEO altitude.
	provider := mapProvider{
		"G01": &fixedSource{pos: Vec3{X: WGS84EquatorialRadiusM + 20200e3, Y: 0, Z: 0}},
	}
	engine := NewEngine(provider)

	res, err := engine.Evaluate(time.Now(), testAircraft, gpsQuery("G01"))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Occluded {
		t.Fatalf("overhead satellite reported occluded")
	}
	if res.SignalStrengthDBm == nil {
		t.Fatalf("visible satellite has no signal strength")
	}
	if *res.SignalStrengthDBm > -100 || *res.SignalStrengthDBm < -160 {
		t.Errorf("signal strength %v dBm outside plausible range", *res.SignalStrengthDBm)
	}
}

func TestEvaluate_OccludedSatelliteHasNoSignal(t *testing.T) {
	// Satellite on the far side of the Earth from the aircraft.
	provider := mapProvider{
		"C05": &fixedSource{pos: Vec3{X: -(WGS84EquatorialRadiusM + 20200e3), Y: 0, Z: 0}},
	}
	engine := NewEngine(provider)

	res, err := engine.Evaluate(time.Now(), testAircraft, gpsQuery("C05"))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Occluded {
		t.Fatalf("far-side satellite not reported occluded")
	}
	if res.SignalStrengthDBm != nil {
		t.Errorf("occluded satellite carries signal strength %v", *res.SignalStrengthDBm)
	}
}

func TestEvaluate_UnknownSatellite(t *testing.T) {
	engine := NewEngine(mapProvider{})
	_, err := engine.Evaluate(time.Now(), testAircraft, gpsQuery("G99"))
	if !errors.Is(err, ErrSatelliteNotFound) {
		t.Fatalf("err = %v, want ErrSatelliteNotFound", err)
	}
}

func TestEvaluate_PropagationErrorSurfaces(t *testing.T) {
	provider := mapProvider{
		"G07": &failingSource{err: fmt.Errorf("%w: stale", ErrOutOfValidity)},
	}
	engine := NewEngine(provider)

	_, err := engine.Evaluate(time.Now(), testAircraft, gpsQuery("G07"))
	if !errors.Is(err, ErrOutOfValidity) {
		t.Fatalf("err = %v, want ErrOutOfValidity", err)
	}
}

func TestComputeVisibility_DeterministicOrder(t *testing.T) {
	overhead := Vec3{X: WGS84EquatorialRadiusM + 20200e3, Y: 0, Z: 0}
	farSide := Vec3{X: -(WGS84EquatorialRadiusM + 20200e3), Y: 0, Z: 0}
	provider := mapProvider{
		"G03": &fixedSource{pos: overhead},
		"C12": &fixedSource{pos: farSide},
		"G01": &fixedSource{pos: overhead},
	}
	engine := NewEngine(provider)
	engine.Workers = 2

	epoch := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	queries := []SatelliteQuery{gpsQuery("G03"), gpsQuery("C12"), gpsQuery("G01")}

	for trial := 0; trial < 5; trial++ {
		results, err := engine.ComputeVisibility(context.Background(), epoch, testAircraft, queries)
		if err != nil {
			t.Fatalf("ComputeVisibility: %v", err)
		}
		wantOrder := []string{"C12", "G01", "G03"}
		if len(results) != len(wantOrder) {
			t.Fatalf("got %d results, want %d", len(results), len(wantOrder))
		}
		for i, want := range wantOrder {
			if results[i].SatelliteID != want {
				t.Fatalf("results[%d] = %s, want %s", i, results[i].SatelliteID, want)
			}
			if !results[i].Time.Equal(epoch) {
				t.Errorf("results[%d].Time = %v, want %v", i, results[i].Time, epoch)
			}
		}
		if !results[0].Occluded || results[1].Occluded || results[2].Occluded {
			t.Errorf("occlusion pattern wrong: %+v", results)
		}
	}
}

func TestComputeVisibility_FailsOnFirstErrorInIDOrder(t *testing.T) {
	provider := mapProvider{
		"G02": &fixedSource{pos: Vec3{X: WGS84EquatorialRadiusM + 20200e3, Y: 0, Z: 0}},
		"G01": &failingSource{err: fmt.Errorf("%w: no parameters", ErrEphemerisData)},
	}
	engine := NewEngine(provider)

	_, err := engine.ComputeVisibility(context.Background(), time.Now(), testAircraft, []SatelliteQuery{gpsQuery("G02"), gpsQuery("G01")})
	if !errors.Is(err, ErrEphemerisData) {
		t.Fatalf("err = %v, want ErrEphemerisData", err)
	}
}

func TestComputeVisibility_EmptyBatch(t *testing.T) {
	engine := NewEngine(mapProvider{})
	results, err := engine.ComputeVisibility(context.Background(), time.Now(), testAircraft, nil)
	if err != nil {
		t.Fatalf("ComputeVisibility(nil): %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results for empty batch", len(results))
	}
}

func TestComputeVisibility_CancelledContext(t *testing.T) {
	provider := mapProvider{
		"G01": &fixedSource{pos: Vec3{X: WGS84EquatorialRadiusM + 20200e3, Y: 0, Z: 0}},
	}
	engine := NewEngine(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.ComputeVisibility(ctx, time.Now(), testAircraft, []SatelliteQuery{gpsQuery("G01")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
