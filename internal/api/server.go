package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shandianxiao218/fly-cline/core"
	"github.com/shandianxiao218/fly-cline/internal/logging"
	"github.com/shandianxiao218/fly-cline/internal/observability"
	"github.com/shandianxiao218/fly-cline/model"
)

// Server exposes the visibility engine over HTTP. Routes:
//
//	POST /api/v1/visibility   evaluate a batch of satellites at one epoch
//	GET  /api/v1/satellites   list the satellite catalog
//	GET  /api/v1/stream       WebSocket stream of per-tick frames
//	GET  /api/v1/health       liveness check
type Server struct {
	engine  *core.Engine
	catalog []model.Satellite
	log     logging.Logger
	metrics *observability.Collector
	hub     *StreamHub
}

// NewServer wires the engine and catalog into an HTTP server. A nil logger
// or collector disables the respective concern.
func NewServer(engine *core.Engine, catalog []model.Satellite, log logging.Logger, metrics *observability.Collector) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{
		engine:  engine,
		catalog: catalog,
		log:     log,
		metrics: metrics,
		hub:     NewStreamHub(log, metrics),
	}
}

// Hub returns the stream hub so the simulation loop can broadcast frames.
func (s *Server) Hub() *StreamHub { return s.hub }

// Router builds the mux with metrics middleware applied per route.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/api/v1/visibility", s.instrument("/api/v1/visibility", http.HandlerFunc(s.handleVisibility))).Methods(http.MethodPost)
	r.Handle("/api/v1/satellites", s.instrument("/api/v1/satellites", http.HandlerFunc(s.handleSatellites))).Methods(http.MethodGet)
	r.Handle("/api/v1/stream", http.HandlerFunc(s.hub.HandleStream)).Methods(http.MethodGet)
	r.Handle("/api/v1/health", s.instrument("/api/v1/health", http.HandlerFunc(s.handleHealth))).Methods(http.MethodGet)
	return r
}

func (s *Server) instrument(route string, h http.Handler) http.Handler {
	h = TracingMiddleware(route, h)
	if s.metrics == nil {
		return h
	}
	return s.metrics.Middleware(route, h)
}

// visibilityRequest is the POST body. Pointer fields distinguish absent
// from zero-valued inputs.
type visibilityRequest struct {
	Time     *time.Time             `json:"time"`
	Aircraft *aircraftRequest       `json:"aircraft"`
	Radio    *model.RadioParameters `json:"radio,omitempty"`

	// Satellites restricts evaluation to the named IDs; empty means the
	// full catalog.
	Satellites []string `json:"satellites,omitempty"`
}

type aircraftRequest struct {
	Position *model.GeodeticPosition `json:"position"`
	Attitude *model.AttitudeEuler    `json:"attitude"`
}

type visibilityResponse struct {
	Time    time.Time                `json:"time"`
	Results []model.VisibilityResult `json:"results"`
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.log)

	var req visibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", core.ErrMissingParameter, err))
		return
	}

	epoch, aircraft, sats, err := s.resolveRequest(req)
	if err != nil {
		log.Warn(ctx, "rejected visibility request", logging.String("error", err.Error()))
		writeError(w, err)
		return
	}

	start := time.Now()
	spanCtx, span := StartComputeSpan(ctx, epoch, len(sats))
	results, err := s.engine.ComputeVisibility(spanCtx, epoch, aircraft, sats)
	RecordSweepError(span, err)
	span.End()
	if err != nil {
		log.Warn(ctx, "visibility computation failed", logging.String("error", err.Error()))
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveCompute(time.Since(start))
	}

	log.Debug(ctx, "visibility computed",
		logging.Int("satellites", len(results)),
		logging.String("epoch", epoch.Format(time.RFC3339)),
	)
	writeJSON(w, http.StatusOK, visibilityResponse{Time: epoch, Results: results})
}

func (s *Server) resolveRequest(req visibilityRequest) (time.Time, model.AircraftState, []core.SatelliteQuery, error) {
	var zero time.Time
	if req.Time == nil {
		return zero, model.AircraftState{}, nil, fmt.Errorf("%w: time", core.ErrMissingParameter)
	}
	if req.Aircraft == nil || req.Aircraft.Position == nil {
		return zero, model.AircraftState{}, nil, fmt.Errorf("%w: aircraft position", core.ErrMissingParameter)
	}

	aircraft := model.AircraftState{
		Time:     *req.Time,
		Position: *req.Aircraft.Position,
	}
	if req.Aircraft.Attitude != nil {
		aircraft.Attitude = *req.Aircraft.Attitude
	}

	sats, err := s.selectSatellites(req.Satellites, req.Radio)
	if err != nil {
		return zero, model.AircraftState{}, nil, err
	}
	return *req.Time, aircraft, sats, nil
}

// selectSatellites resolves requested IDs against the catalog; an empty
// request means every catalog satellite. Radio parameters from the request
// override the catalog's when present.
func (s *Server) selectSatellites(ids []string, radio *model.RadioParameters) ([]core.SatelliteQuery, error) {
	byID := make(map[string]model.Satellite, len(s.catalog))
	for _, sat := range s.catalog {
		byID[sat.ID] = sat
	}

	if len(ids) == 0 {
		out := make([]core.SatelliteQuery, 0, len(s.catalog))
		for _, sat := range s.catalog {
			out = append(out, query(sat, radio))
		}
		return out, nil
	}

	out := make([]core.SatelliteQuery, 0, len(ids))
	for _, id := range ids {
		sat, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("satellite %s: %w", id, core.ErrSatelliteNotFound)
		}
		out = append(out, query(sat, radio))
	}
	return out, nil
}

func query(sat model.Satellite, radio *model.RadioParameters) core.SatelliteQuery {
	q := core.SatelliteQuery{ID: sat.ID, Radio: sat.Radio}
	if radio != nil {
		q.Radio = *radio
	}
	return q
}

func (s *Server) handleSatellites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
