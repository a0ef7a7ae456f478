package model

import "time"

// GeodeticPosition is a longitude/latitude/altitude position on the WGS84
// ellipsoid. Angles in degrees, altitude in metres above the ellipsoid.
type GeodeticPosition struct {
	LonDeg float64 `json:"lon_deg"`
	LatDeg float64 `json:"lat_deg"`
	AltM   float64 `json:"alt_m"`
}

// AttitudeEuler is an aircraft attitude as Euler angles in degrees.
// The body rotation is applied in intrinsic yaw, pitch, roll order.
type AttitudeEuler struct {
	RollDeg  float64 `json:"roll_deg"`
	PitchDeg float64 `json:"pitch_deg"`
	YawDeg   float64 `json:"yaw_deg"`
}

// BodyOffset is a point in the aircraft body frame, metres, with the
// nose/right/down axis convention.
type BodyOffset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// AircraftState is the aircraft's position and attitude at one instant.
type AircraftState struct {
	Time     time.Time        `json:"time"`
	Position GeodeticPosition `json:"position"`
	Attitude AttitudeEuler    `json:"attitude"`
}
