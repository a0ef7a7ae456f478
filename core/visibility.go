package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shandianxiao218/fly-cline/model"
)

// EphemerisProvider resolves a satellite ID to its position source.
// Unknown IDs fail with ErrSatelliteNotFound.
type EphemerisProvider interface {
	PositionSource(satelliteID string) (PositionSource, error)
}

// SatelliteQuery names one satellite to evaluate, with the radio
// parameters used for its link budget.
type SatelliteQuery struct {
	ID    string
	Radio model.RadioParameters
}

// Engine evaluates satellite visibility for an airborne receiver. It holds
// no per-call state: every evaluation is a pure function of its inputs, so
// one Engine may serve any number of concurrent callers.
type Engine struct {
	// Ephemeris resolves satellite IDs to position sources.
	Ephemeris EphemerisProvider

	// EarthRadiusM is the occlusion sphere radius; zero selects the
	// WGS84 equatorial radius.
	EarthRadiusM float64

	// Workers bounds batch parallelism; zero or negative means one
	// goroutine per satellite.
	Workers int
}

// NewEngine constructs an engine over the given ephemeris provider with
// the default Earth radius.
func NewEngine(provider EphemerisProvider) *Engine {
	return &Engine{Ephemeris: provider, EarthRadiusM: WGS84EquatorialRadiusM}
}

func (e *Engine) earthRadius() float64 {
	if e.EarthRadiusM > 0 {
		return e.EarthRadiusM
	}
	return WGS84EquatorialRadiusM
}

// Evaluate computes the visibility of a single satellite from the aircraft
// at the given epoch: propagate the satellite, place the aircraft in ECEF,
// test Earth occlusion, and, when unoccluded, compute the received signal
// strength.
func (e *Engine) Evaluate(epoch time.Time, aircraft model.AircraftState, sat SatelliteQuery) (model.VisibilityResult, error) {
	if sat.ID == "" {
		return model.VisibilityResult{}, fmt.Errorf("%w: satellite ID", ErrMissingParameter)
	}

	source, err := e.Ephemeris.PositionSource(sat.ID)
	if err != nil {
		return model.VisibilityResult{}, fmt.Errorf("satellite %s: %w", sat.ID, err)
	}

	satPos, err := source.PositionECEF(epoch)
	if err != nil {
		return model.VisibilityResult{}, fmt.Errorf("satellite %s: %w", sat.ID, err)
	}

	observer, err := LLAToECEF(aircraft.Position)
	if err != nil {
		return model.VisibilityResult{}, err
	}

	result := model.VisibilityResult{
		SatelliteID: sat.ID,
		Time:        epoch,
		Occluded:    IsOccluded(observer, satPos, e.earthRadius()),
	}
	if !result.Occluded {
		strength := SignalStrengthDBm(observer, satPos,
			sat.Radio.TxPowerDBw, sat.Radio.FrequencyHz,
			sat.Radio.GainTxDBi, sat.Radio.GainRxDBi)
		result.SignalStrengthDBm = &strength
	}
	return result, nil
}

// ComputeVisibility evaluates a batch of satellites at one epoch. The
// satellites are evaluated concurrently; results come back ordered by
// satellite ID regardless of completion order, so output is deterministic.
//
// The batch fails as a whole on the first failing satellite (in ID order).
// Callers that prefer partial results evaluate satellites individually
// with Evaluate.
func (e *Engine) ComputeVisibility(ctx context.Context, epoch time.Time, aircraft model.AircraftState, sats []SatelliteQuery) ([]model.VisibilityResult, error) {
	if len(sats) == 0 {
		return nil, nil
	}

	ordered := make([]SatelliteQuery, len(sats))
	copy(ordered, sats)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	workers := e.Workers
	if workers <= 0 || workers > len(ordered) {
		workers = len(ordered)
	}

	results := make([]model.VisibilityResult, len(ordered))
	errs := make([]error, len(ordered))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = e.Evaluate(epoch, aircraft, ordered[i])
			}
		}()
	}

feed:
	for i := range ordered {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
