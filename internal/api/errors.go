package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shandianxiao218/fly-cline/core"
)

// statusFromError maps engine errors onto HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, core.ErrMissingParameter):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSatelliteNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEphemerisData),
		errors.Is(err, core.ErrOutOfValidity):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFromError(err))
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
