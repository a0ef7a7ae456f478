package ephemeris

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shandianxiao218/fly-cline/core"
	"github.com/shandianxiao218/fly-cline/model"
)

// LoadCatalog reads the satellite catalog JSON from r: an array of
// model.Satellite records carrying radio parameters and optional TLE
// lines. Satellites with TLEs are registered on the store as fallback
// position sources.
//
// The catalog fails on structural errors only; a satellite with an
// unparsable TLE is reported, not silently dropped.
func LoadCatalog(store *Store, r io.Reader) ([]model.Satellite, error) {
	var sats []model.Satellite
	dec := json.NewDecoder(r)
	if err := dec.Decode(&sats); err != nil {
		return nil, fmt.Errorf("LoadCatalog: decode failed: %w", err)
	}

	for _, sat := range sats {
		if sat.ID == "" {
			return nil, fmt.Errorf("LoadCatalog: %w: satellite with empty id", core.ErrMissingParameter)
		}
		if sat.TLELine1 != "" || sat.TLELine2 != "" {
			if store == nil {
				continue
			}
			if err := store.PutTLE(sat.ID, sat.TLELine1, sat.TLELine2); err != nil {
				return nil, fmt.Errorf("LoadCatalog: %w", err)
			}
		}
	}
	return sats, nil
}

// Queries maps catalog satellites onto the engine's query form.
func Queries(sats []model.Satellite) []core.SatelliteQuery {
	out := make([]core.SatelliteQuery, 0, len(sats))
	for _, sat := range sats {
		out = append(out, core.SatelliteQuery{ID: sat.ID, Radio: sat.Radio})
	}
	return out
}
