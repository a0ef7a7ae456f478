package core

import (
	"math"
	"testing"
	"time"
)

func TestGPSWeekAndSOW_Epoch(t *testing.T) {
	week, sow := gpsWeekAndSOW(gpsEpoch)
	if week != 0 || sow != 0 {
		t.Fatalf("GPS epoch = week %d sow %v, want week 0 sow 0", week, sow)
	}
}

func TestGPSWeekAndSOW_OneWeekIn(t *testing.T) {
	week, sow := gpsWeekAndSOW(gpsEpoch.Add(7*24*time.Hour + 90*time.Second))
	if week != 1 {
		t.Errorf("week = %d, want 1", week)
	}
	if math.Abs(sow-90) > 1e-9 {
		t.Errorf("sow = %v, want 90", sow)
	}
}

func TestGPSWeekAndSOW_KnownDate(t *testing.T) {
	// 2020-01-01T00:00:00Z is a Wednesday in GPS week 2086, 3 days into
	// the week (no leap seconds applied, per the documented limitation).
	week, sow := gpsWeekAndSOW(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
	if week != 2086 {
		t.Errorf("week = %d, want 2086", week)
	}
	if math.Abs(sow-3*86400) > 1e-6 {
		t.Errorf("sow = %v, want %v", sow, 3*86400)
	}
}

func TestTimeFromEphemeris_NoRollover(t *testing.T) {
	// toe at mid-week, query 100 s later in the same week.
	base := gpsEpoch.Add(2086 * 7 * 24 * time.Hour)
	toe := 302400.0
	tk := timeFromEphemeris(base.Add(time.Duration(toe+100)*time.Second), toe)
	if math.Abs(tk-100) > 1e-9 {
		t.Errorf("tk = %v, want 100", tk)
	}
}

func TestTimeFromEphemeris_RolloverForward(t *testing.T) {
	// toe near the end of the week, query just after the week boundary:
	// the raw difference is close to -604800 and must be folded back.
	base := gpsEpoch.Add(2086 * 7 * 24 * time.Hour)
	toe := 604000.0
	query := base.Add(time.Duration(secondsPerWeek+200) * time.Second) // next week, sow=200
	tk := timeFromEphemeris(query, toe)
	if math.Abs(tk-1000) > 1e-9 {
		t.Errorf("tk across week boundary = %v, want 1000", tk)
	}
}

func TestTimeFromEphemeris_RolloverBackward(t *testing.T) {
	// toe just after the week boundary, query just before it.
	base := gpsEpoch.Add(2087 * 7 * 24 * time.Hour)
	toe := 300.0
	query := base.Add(-500 * time.Second) // previous week, sow=604300
	tk := timeFromEphemeris(query, toe)
	if math.Abs(tk-(-800)) > 1e-9 {
		t.Errorf("tk across week boundary = %v, want -800", tk)
	}
}
