package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/session"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// sessionErrorBody carries the session view alongside the error so the
// station UI can render the advisory without a second request.
type sessionErrorBody struct {
	errorBody
	Session *session.View `json:"session,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// classify maps the error taxonomy onto an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrValidation),
		errors.Is(err, service.ErrInvalidStationID):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, types.ErrNoCapacity):
		return http.StatusConflict, "no_capacity"
	case errors.Is(err, types.ErrNoInventory):
		return http.StatusConflict, "no_inventory"
	case errors.Is(err, types.ErrWriteConflict):
		return http.StatusConflict, "write_conflict"
	case errors.Is(err, session.ErrStationBusy):
		return http.StatusConflict, "station_busy"
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, types.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, types.ErrSensorAmbiguous):
		return http.StatusUnprocessableEntity, "sensor_ambiguous"
	case errors.Is(err, session.ErrRetriesExhausted):
		return http.StatusUnprocessableEntity, "retries_exhausted"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "unexpected server error"
	}
	writeError(w, status, code, msg)
}

func (s *Server) writeSessionResult(w http.ResponseWriter, r *http.Request, v session.View, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, v)
		return
	}
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("session_id", v.ID).Msg("session operation failed")
		msg = "unexpected server error"
	}
	body := sessionErrorBody{errorBody: errorBody{Error: code, Message: msg}}
	if v.ID != "" {
		body.Session = &v
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
