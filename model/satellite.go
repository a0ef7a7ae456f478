package model

// Constellation identifies which navigation system a satellite belongs to.
type Constellation string

const (
	ConstellationGPS    Constellation = "GPS"
	ConstellationBeiDou Constellation = "BDS"
)

// RadioParameters describe the transmit side of a satellite's navigation
// signal, used by the link-budget estimate.
type RadioParameters struct {
	TxPowerDBw  float64 `json:"tx_power_dbw"`
	FrequencyHz float64 `json:"frequency_hz"`
	GainTxDBi   float64 `json:"gain_tx_dbi,omitempty"`
	GainRxDBi   float64 `json:"gain_rx_dbi,omitempty"`
}

// Satellite is one catalog entry: identity, constellation, radio parameters
// and an optional TLE for satellites tracked without broadcast ephemeris.
type Satellite struct {
	ID            string          `json:"id"`
	Name          string          `json:"name,omitempty"`
	Constellation Constellation   `json:"constellation"`
	Radio         RadioParameters `json:"radio"`

	// TLELine1/TLELine2 are optional; when set and no broadcast ephemeris
	// is available for this satellite, SGP4 propagation is used instead.
	TLELine1 string `json:"tle_line1,omitempty"`
	TLELine2 string `json:"tle_line2,omitempty"`
}
