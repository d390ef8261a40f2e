package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/session"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type scanRequest struct {
	Token string `json:"token"`
}

type rackRequest struct {
	RackID string `json:"rack_id,omitempty"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.sessions.Start(r.Context(), chi.URLParam(r, "stationID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// lookupSession writes a 404 and returns nil when the id is unknown.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil
	}
	return sess
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	v, err := sess.Scan(r.Context(), req.Token)
	s.writeSessionResult(w, r, v, err)
}

func (s *Server) handleSelectDeposit(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	var req rackRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	v, err := sess.SelectDeposit(r.Context(), req.RackID)
	s.writeSessionResult(w, r, v, err)
}

func (s *Server) handleSelectRetrieve(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	var req rackRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	v, err := sess.SelectRetrieve(r.Context(), req.RackID)
	s.writeSessionResult(w, r, v, err)
}

func (s *Server) handleSubmitDescriptor(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	var desc types.FoodDescriptor
	if err := decodeJSON(r, &desc); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	v, err := sess.SubmitDescriptor(r.Context(), desc)
	s.writeSessionResult(w, r, v, err)
}

func (s *Server) handleOpenForRetrieval(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	v, err := sess.OpenForRetrieval(r.Context())
	s.writeSessionResult(w, r, v, err)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	v, err := sess.Confirm(r.Context())
	s.writeSessionResult(w, r, v, err)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	v, err := sess.Cancel(r.Context())
	s.writeSessionResult(w, r, v, err)
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := decodeJSON(r, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
