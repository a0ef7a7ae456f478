package trajectory

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shandianxiao218/fly-cline/core"
	"github.com/shandianxiao218/fly-cline/model"
)

func sampleTrack(t *testing.T) *Track {
	t.Helper()
	base := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	track, err := NewTrack([]model.AircraftState{
		{
			Time:     base,
			Position: model.GeodeticPosition{LonDeg: 116.0, LatDeg: 39.0, AltM: 10000},
			Attitude: model.AttitudeEuler{YawDeg: 350},
		},
		{
			Time:     base.Add(60 * time.Second),
			Position: model.GeodeticPosition{LonDeg: 117.0, LatDeg: 40.0, AltM: 10600},
			Attitude: model.AttitudeEuler{YawDeg: 10},
		},
	})
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	return track
}

func TestStateAt_Midpoint(t *testing.T) {
	track := sampleTrack(t)
	base, _ := track.Span()

	s, err := track.StateAt(base.Add(30 * time.Second))
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}

	if math.Abs(s.Position.LonDeg-116.5) > 1e-9 {
		t.Errorf("LonDeg = %v, want 116.5", s.Position.LonDeg)
	}
	if math.Abs(s.Position.LatDeg-39.5) > 1e-9 {
		t.Errorf("LatDeg = %v, want 39.5", s.Position.LatDeg)
	}
	if math.Abs(s.Position.AltM-10300) > 1e-9 {
		t.Errorf("AltM = %v, want 10300", s.Position.AltM)
	}
	// 350 -> 10 crosses north; the midpoint heading is 0, not 180.
	if math.Abs(s.Attitude.YawDeg) > 1e-9 {
		t.Errorf("YawDeg = %v, want 0", s.Attitude.YawDeg)
	}
}

func TestStateAt_ExactSample(t *testing.T) {
	track := sampleTrack(t)
	_, last := track.Span()

	s, err := track.StateAt(last)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	if s.Position.LonDeg != 117.0 || s.Position.AltM != 10600 {
		t.Errorf("exact sample state = %+v", s)
	}
}

func TestStateAt_OutsideSpan(t *testing.T) {
	track := sampleTrack(t)
	first, last := track.Span()

	if _, err := track.StateAt(first.Add(-time.Second)); !errors.Is(err, core.ErrOutOfValidity) {
		t.Errorf("before span: err = %v, want ErrOutOfValidity", err)
	}
	if _, err := track.StateAt(last.Add(time.Second)); !errors.Is(err, core.ErrOutOfValidity) {
		t.Errorf("after span: err = %v, want ErrOutOfValidity", err)
	}
}

func TestNewTrack_SortsSamples(t *testing.T) {
	base := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	track, err := NewTrack([]model.AircraftState{
		{Time: base.Add(time.Minute)},
		{Time: base},
	})
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	first, last := track.Span()
	if !first.Equal(base) || !last.Equal(base.Add(time.Minute)) {
		t.Errorf("span = [%v, %v], want sorted order", first, last)
	}
}

func TestNewTrack_Empty(t *testing.T) {
	if _, err := NewTrack(nil); !errors.Is(err, core.ErrMissingParameter) {
		t.Fatalf("err = %v, want ErrMissingParameter", err)
	}
}

func TestLoadTrack(t *testing.T) {
	payload := `[
	  {"time": "2024-03-10T12:00:00Z", "position": {"lon_deg": 116, "lat_deg": 39, "alt_m": 10000}, "attitude": {"yaw_deg": 90}},
	  {"time": "2024-03-10T12:01:00Z", "position": {"lon_deg": 117, "lat_deg": 40, "alt_m": 10600}, "attitude": {"yaw_deg": 92}}
	]`
	track, err := LoadTrack(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if track.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", track.Len())
	}

	if _, err := LoadTrack(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
