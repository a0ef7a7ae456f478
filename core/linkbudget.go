package core

import "math"

// speedOfLight in vacuum, m/s.
const speedOfLight = 299792458.0

// SignalStrengthDBm estimates the received navigation-signal power in dBm
// at the observer for a transmitter at target, using the Friis free-space
// path-loss model. No atmospheric, rain or multipath terms are modelled.
//
// A non-positive distance or frequency yields negative infinity: a
// zero-length link is a physically meaningless geometry, not a usage error,
// so it is reported as a sentinel rather than a failure.
func SignalStrengthDBm(observer, target Vec3, txPowerDBw, frequencyHz, gainTxDBi, gainRxDBi float64) float64 {
	distance := observer.DistanceTo(target)
	if distance <= 0 || frequencyHz <= 0 {
		return math.Inf(-1)
	}

	fspl := 20*math.Log10(distance) +
		20*math.Log10(frequencyHz) +
		20*math.Log10(4*math.Pi/speedOfLight)

	receivedDBw := txPowerDBw + gainTxDBi + gainRxDBi - fspl
	return receivedDBw + 30
}
