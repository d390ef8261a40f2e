package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type stationsResponse struct {
	Stations []types.Station `json:"stations"`
}

type activityResponse struct {
	Entries []types.ActivityLogEntry `json:"entries"`
}

type notificationsResponse struct {
	Notifications []types.Notification `json:"notifications"`
}

type imageResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleListStations(w http.ResponseWriter, r *http.Request) {
	list, err := s.stations.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []types.Station{}
	}
	writeJSON(w, http.StatusOK, stationsResponse{Stations: list})
}

func (s *Server) handleGetStation(w http.ResponseWriter, r *http.Request) {
	st, err := s.stations.Get(r.Context(), chi.URLParam(r, "stationID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := parseLimit(q.Get("limit"))
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "limit must be a positive integer")
		return
	}
	entries, err := s.activity.List(r.Context(), types.ActivityFilter{
		StationID: strings.TrimSpace(q.Get("station_id")),
		RackID:    strings.TrimSpace(q.Get("rack_id")),
		ActorID:   strings.TrimSpace(q.Get("actor_id")),
		Limit:     limit,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []types.ActivityLogEntry{}
	}
	writeJSON(w, http.StatusOK, activityResponse{Entries: entries})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "limit must be a positive integer")
		return
	}
	list, err := s.notifier.List(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []types.Notification{}
	}
	writeJSON(w, http.StatusOK, notificationsResponse{Notifications: list})
}

func parseLimit(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ── Images ───────────────────────────────────────────────────────────────────

// handleUploadImage accepts either a multipart form with an "image" field
// or the raw image bytes as the request body.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if s.images == nil {
		writeError(w, http.StatusNotFound, "not_found", "image uploads are disabled")
		return
	}
	limit := s.images.MaxBytes() + 1

	body := io.Reader(r.Body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, limit+(64<<10))
		f, _, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "multipart field \"image\" is required")
			return
		}
		defer f.Close()
		body = f
	}

	data, err := io.ReadAll(io.LimitReader(body, limit))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_body", "could not read image")
		return
	}
	url, err := s.images.Store(r.Context(), data)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, imageResponse{URL: url})
}

// ── Device endpoints ─────────────────────────────────────────────────────────

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	var (
		req types.TelemetryRequest
		pb  = isProtobuf(r)
	)
	if pb {
		var msg structpb.Struct
		if err := readProto(r, &msg); err != nil {
			writeError(w, http.StatusBadRequest, "bad_proto", "invalid protobuf body")
			return
		}
		var err error
		if req, err = telemetryRequestFromStruct(&msg); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	// The path names the station; a body station_id must agree with it.
	pathID := chi.URLParam(r, "stationID")
	if req.StationID != "" && strings.TrimSpace(req.StationID) != pathID {
		writeError(w, http.StatusBadRequest, "validation", "station_id does not match path")
		return
	}
	req.StationID = pathID

	resp, err := s.telemetry.Record(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if pb {
		msg, err := telemetryResponseToStruct(resp)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeProto(w, http.StatusOK, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDoorCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := s.telemetry.DoorCommand(r.Context(), chi.URLParam(r, "stationID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if wantsProtobuf(r) {
		msg, err := doorCommandToStruct(cmd)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeProto(w, http.StatusOK, msg)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}
