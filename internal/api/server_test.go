package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandianxiao218/fly-cline/core"
	"github.com/shandianxiao218/fly-cline/ephemeris"
	"github.com/shandianxiao218/fly-cline/model"
)

var testEpoch = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func testServer(t *testing.T) *Server {
	t.Helper()

	store := ephemeris.NewStore()
	for i, id := range []string{"G01", "C06"} {
		elem := model.OrbitalElements{
			Toe:          secondsOfWeek(testEpoch),
			M0:           0.5 + float64(i),
			Eccentricity: 0.01,
			RootA:        5153.7,
			I0:           0.96,
			Omega0:       1.0 + float64(i),
			Omega:        -1.7,
		}
		err := store.Put(&ephemeris.Entry{
			SatelliteID: id,
			Elements:    elem,
			Validity:    model.ValidityWindow{From: testEpoch.Add(-2 * time.Hour), To: testEpoch.Add(2 * time.Hour)},
		})
		if err != nil {
			t.Fatalf("store.Put(%s): %v", id, err)
		}
	}

	catalog := []model.Satellite{
		{ID: "G01", Constellation: model.ConstellationGPS, Radio: model.RadioParameters{TxPowerDBw: 14.3, FrequencyHz: 1575.42e6}},
		{ID: "C06", Constellation: model.ConstellationBeiDou, Radio: model.RadioParameters{TxPowerDBw: 15.0, FrequencyHz: 1561.098e6}},
	}
	return NewServer(core.NewEngine(store), catalog, nil, nil)
}

// secondsOfWeek mirrors the GPS week split without exporting it from core.
func secondsOfWeek(t time.Time) float64 {
	gpsEpoch := time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)
	total := t.Sub(gpsEpoch).Seconds()
	week := int(total / 604800)
	return total - float64(week)*604800
}

func postVisibility(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visibility", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	return rr
}

func TestVisibilityEndpointFullCatalog(t *testing.T) {
	srv := testServer(t)

	body := `{
		"time": "2024-03-10T12:00:00Z",
		"aircraft": {
			"position": {"lon_deg": 116.4, "lat_deg": 39.9, "alt_m": 10000},
			"attitude": {"roll_deg": 0, "pitch_deg": 0, "yaw_deg": 90}
		}
	}`
	rr := postVisibility(t, srv, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp visibilityResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].SatelliteID != "C06" || resp.Results[1].SatelliteID != "G01" {
		t.Errorf("results not in ID order: %s, %s", resp.Results[0].SatelliteID, resp.Results[1].SatelliteID)
	}
	for _, res := range resp.Results {
		if !res.Occluded && res.SignalStrengthDBm == nil {
			t.Errorf("satellite %s unoccluded but no signal strength", res.SatelliteID)
		}
		if res.Occluded && res.SignalStrengthDBm != nil {
			t.Errorf("satellite %s occluded but has signal strength", res.SatelliteID)
		}
	}
}

func TestVisibilityEndpointSubset(t *testing.T) {
	srv := testServer(t)

	body := `{
		"time": "2024-03-10T12:00:00Z",
		"aircraft": {"position": {"lon_deg": 0, "lat_deg": 0, "alt_m": 11000}},
		"satellites": ["G01"]
	}`
	rr := postVisibility(t, srv, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp visibilityResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].SatelliteID != "G01" {
		t.Fatalf("got %+v, want single G01 result", resp.Results)
	}
}

func TestVisibilityEndpointMissingTime(t *testing.T) {
	srv := testServer(t)

	rr := postVisibility(t, srv, `{"aircraft": {"position": {"lon_deg": 0, "lat_deg": 0, "alt_m": 0}}}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "time") {
		t.Errorf("error body %q does not name the missing field", rr.Body.String())
	}
}

func TestVisibilityEndpointMissingAircraft(t *testing.T) {
	srv := testServer(t)

	rr := postVisibility(t, srv, `{"time": "2024-03-10T12:00:00Z"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestVisibilityEndpointUnknownSatellite(t *testing.T) {
	srv := testServer(t)

	body := `{
		"time": "2024-03-10T12:00:00Z",
		"aircraft": {"position": {"lon_deg": 0, "lat_deg": 0, "alt_m": 0}},
		"satellites": ["X99"]
	}`
	rr := postVisibility(t, srv, body)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestVisibilityEndpointOutOfValidity(t *testing.T) {
	srv := testServer(t)

	body := `{
		"time": "2024-03-11T12:00:00Z",
		"aircraft": {"position": {"lon_deg": 0, "lat_deg": 0, "alt_m": 0}}
	}`
	rr := postVisibility(t, srv, body)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", rr.Code, rr.Body.String())
	}
}

func TestVisibilityEndpointMalformedJSON(t *testing.T) {
	srv := testServer(t)

	rr := postVisibility(t, srv, `{"time": not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestSatellitesEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/satellites", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var sats []model.Satellite
	if err := json.Unmarshal(rr.Body.Bytes(), &sats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(sats) != 2 {
		t.Fatalf("got %d satellites, want 2", len(sats))
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{core.ErrMissingParameter, http.StatusBadRequest},
		{core.ErrSatelliteNotFound, http.StatusNotFound},
		{core.ErrEphemerisData, http.StatusUnprocessableEntity},
		{core.ErrOutOfValidity, http.StatusUnprocessableEntity},
		{core.ErrNonConvergence, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFromError(tc.err); got != tc.want {
			t.Errorf("statusFromError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
