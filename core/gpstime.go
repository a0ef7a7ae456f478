package core

import "time"

// GPS time constants.
const (
	secondsPerWeek = 604800.0
	halfWeek       = 302400.0
)

// gpsEpoch is 1980-01-06T00:00:00Z, the origin of GPS time.
var gpsEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// gpsTotalSeconds converts an absolute instant to total seconds since the
// GPS epoch using a fixed offset.
//
// Known limitation: no leap-second table is applied, so the result drifts
// from true GPS time by the accumulated UTC leap seconds (currently well
// under half a minute). Positions derived from it are geometric-only and
// carry that systematic time error.
func gpsTotalSeconds(t time.Time) float64 {
	return t.Sub(gpsEpoch).Seconds()
}

// gpsWeekAndSOW splits an absolute instant into GPS week number and
// seconds-of-week.
func gpsWeekAndSOW(t time.Time) (week int, sow float64) {
	total := gpsTotalSeconds(t)
	week = int(total / secondsPerWeek)
	sow = total - float64(week)*secondsPerWeek
	return week, sow
}

// timeFromEphemeris computes tk, the elapsed time between t and the
// ephemeris reference time toe, corrected for GPS week rollover so that tk
// stays within half a week of the reference epoch. This is the standard
// broadcast-ephemeris convention.
func timeFromEphemeris(t time.Time, toe float64) float64 {
	_, sow := gpsWeekAndSOW(t)
	tk := sow - toe
	if tk > halfWeek {
		tk -= secondsPerWeek
	} else if tk < -halfWeek {
		tk += secondsPerWeek
	}
	return tk
}
