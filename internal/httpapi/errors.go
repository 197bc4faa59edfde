package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"inferd/internal/cache"
	"inferd/internal/download"
	"inferd/internal/engine"
	"inferd/internal/registry"
	"inferd/internal/service"
	"inferd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case service.IsModelNotFound(err), registry.IsNotFound(err):
		return http.StatusNotFound
	case download.IsInvalidRepository(err):
		return http.StatusBadRequest
	case download.IsAlreadyAvailable(err), cache.IsNotReady(err), cache.IsBusy(err):
		return http.StatusConflict
	case cache.IsLoadFailure(err):
		if engine.IsUnavailable(errors.Unwrap(err)) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	case engine.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status code and writes the JSON error payload.
func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, errorStatus(err), err.Error())
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Detail: detail})
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("response encode failed")
	}
}
