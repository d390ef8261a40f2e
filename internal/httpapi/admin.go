package httpapi

import (
	"net/http"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
)

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	u, err := s.users.Register(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if admin, ok := adminFrom(r.Context()); ok {
		s.logger.Info().Str("admin_id", admin.ID).Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleAddStation(w http.ResponseWriter, r *http.Request) {
	var req service.AddStationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	st, err := s.stations.Add(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if admin, ok := adminFrom(r.Context()); ok {
		s.logger.Info().Str("admin_id", admin.ID).Str("station_id", st.ID).Int("racks", len(st.Racks)).Msg("station added")
	}
	writeJSON(w, http.StatusCreated, st)
}
