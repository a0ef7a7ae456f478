// Package trajectory supplies aircraft position and attitude over time,
// interpolated from recorded telemetry samples. It feeds the visibility
// engine's aircraft state input and is also used to generate test data.
package trajectory

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/shandianxiao218/fly-cline/core"
	"github.com/shandianxiao218/fly-cline/model"
)

// Track is an immutable, time-ordered sequence of aircraft state samples.
type Track struct {
	samples []model.AircraftState
}

// NewTrack builds a track from samples, sorting them by time. At least one
// sample is required.
func NewTrack(samples []model.AircraftState) (*Track, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: track samples", core.ErrMissingParameter)
	}
	sorted := make([]model.AircraftState, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	return &Track{samples: sorted}, nil
}

// LoadTrack reads a JSON array of aircraft state samples from r.
func LoadTrack(r io.Reader) (*Track, error) {
	var samples []model.AircraftState
	dec := json.NewDecoder(r)
	if err := dec.Decode(&samples); err != nil {
		return nil, fmt.Errorf("LoadTrack: decode failed: %w", err)
	}
	return NewTrack(samples)
}

// Span returns the first and last sample times.
func (t *Track) Span() (time.Time, time.Time) {
	return t.samples[0].Time, t.samples[len(t.samples)-1].Time
}

// Len returns the number of samples.
func (t *Track) Len() int { return len(t.samples) }

// StateAt returns the aircraft state at the given instant, linearly
// interpolated between the two bracketing samples. Yaw and roll wrap
// through the shorter angular arc. Instants outside the recorded span
// fail with ErrOutOfValidity; a trajectory is never extrapolated.
func (t *Track) StateAt(at time.Time) (model.AircraftState, error) {
	first, last := t.Span()
	if at.Before(first) || at.After(last) {
		return model.AircraftState{}, fmt.Errorf("%w: %s not in track span [%s, %s]",
			core.ErrOutOfValidity,
			at.UTC().Format(time.RFC3339),
			first.UTC().Format(time.RFC3339),
			last.UTC().Format(time.RFC3339))
	}

	idx := sort.Search(len(t.samples), func(i int) bool { return !t.samples[i].Time.Before(at) })
	if t.samples[idx].Time.Equal(at) {
		s := t.samples[idx]
		s.Time = at
		return s, nil
	}

	a, b := t.samples[idx-1], t.samples[idx]
	span := b.Time.Sub(a.Time).Seconds()
	f := at.Sub(a.Time).Seconds() / span

	return model.AircraftState{
		Time: at,
		Position: model.GeodeticPosition{
			LonDeg: lerpAngle(a.Position.LonDeg, b.Position.LonDeg, f),
			LatDeg: lerp(a.Position.LatDeg, b.Position.LatDeg, f),
			AltM:   lerp(a.Position.AltM, b.Position.AltM, f),
		},
		Attitude: model.AttitudeEuler{
			RollDeg:  lerpAngle(a.Attitude.RollDeg, b.Attitude.RollDeg, f),
			PitchDeg: lerp(a.Attitude.PitchDeg, b.Attitude.PitchDeg, f),
			YawDeg:   lerpAngle(a.Attitude.YawDeg, b.Attitude.YawDeg, f),
		},
	}, nil
}

func lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}

// lerpAngle interpolates along the shorter arc, so a heading crossing
// north (e.g. 350 to 10 degrees) does not sweep through 180.
func lerpAngle(a, b, f float64) float64 {
	diff := math.Mod(b-a, 360)
	if diff > 180 {
		diff -= 360
	} else if diff < -180 {
		diff += 360
	}
	v := a + diff*f
	if v > 180 {
		v -= 360
	} else if v < -180 {
		v += 360
	}
	return v
}
