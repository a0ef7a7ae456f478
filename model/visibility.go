package model

import "time"

// VisibilityResult is the outcome of one (satellite, epoch) evaluation.
// SignalStrengthDBm is nil when the satellite is occluded by the Earth;
// a pointer distinguishes "no signal computed" from an actual 0 dBm.
type VisibilityResult struct {
	SatelliteID       string    `json:"satellite_id"`
	Time              time.Time `json:"time"`
	Occluded          bool      `json:"occluded"`
	SignalStrengthDBm *float64  `json:"signal_strength_dbm,omitempty"`
}
