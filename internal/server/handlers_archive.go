package server

import (
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

type retentionResponse struct {
	Policy  models.RetentionPolicy `json:"policy"`
	Deleted []string               `json:"deleted"`
}

// actingFor resolves the ?user= override, writing 403 when it is refused.
func actingFor(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := subject(r)
	if !ok {
		writeErrorMessage(w, http.StatusForbidden, "only admins may act for another user")
	}
	return id, ok
}

// settle archives a completed day before the archive is read or pruned.
func (s *Server) settle(w http.ResponseWriter, r *http.Request, userID string) bool {
	if _, err := s.days.CheckDateTransition(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := actingFor(w, r)
	if !ok {
		return
	}
	state, err := s.days.SaveSnapshot(r.Context(), id.UserID)
	respondState(w, r, state, err)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	id, ok := actingFor(w, r)
	if !ok || !s.settle(w, r, id.UserID) {
		return
	}
	dates, err := s.snapshots.ListDates(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := actingFor(w, r)
	if !ok || !s.settle(w, r, id.UserID) {
		return
	}
	snap, err := s.snapshots.Get(r.Context(), id.UserID, mux.Vars(r)["date"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := actingFor(w, r)
	if !ok || !s.settle(w, r, id.UserID) {
		return
	}
	if err := s.snapshots.DeleteOne(r.Context(), id.UserID, mux.Vars(r)["date"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetRetention(w http.ResponseWriter, r *http.Request) {
	policy, err := s.snapshots.Policy(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (s *Server) handleSetRetention(w http.ResponseWriter, r *http.Request) {
	var policy models.RetentionPolicy
	if err := s.decode(w, r, &policy); err != nil {
		writeError(w, r, err)
		return
	}
	if !s.settle(w, r, userID(r)) {
		return
	}
	deleted, err := s.snapshots.SetPolicy(r.Context(), userID(r), policy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, http.StatusOK, retentionResponse{Policy: policy, Deleted: deleted})
}

func (s *Server) listProfile(w http.ResponseWriter, r *http.Request) {
	fields, err := s.profiles.ListProfile(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if fields == nil {
		fields = []models.ProfileField{}
	}
	writeJSON(w, http.StatusOK, fields)
}

func (s *Server) handleListProfile(w http.ResponseWriter, r *http.Request) {
	s.listProfile(w, r)
}

func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	key := mux.Vars(r)["key"]
	if key == "" {
		writeError(w, r, apperrors.Validation("key", "must not be empty"))
		return
	}
	if err := s.profiles.SetProfileField(r.Context(), userID(r), models.ProfileField{Key: key, Value: req.Value}); err != nil {
		writeError(w, r, err)
		return
	}
	s.listProfile(w, r)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.DeleteProfileField(r.Context(), userID(r), mux.Vars(r)["key"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportDay(w http.ResponseWriter, r *http.Request) {
	id, ok := actingFor(w, r)
	if !ok {
		return
	}
	art, err := s.exports.ExportSingleDay(r.Context(), id, mux.Vars(r)["date"], r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	attachment(w, art.Filename, art.ContentType, art.Body)
}

func (s *Server) handleExportRange(w http.ResponseWriter, r *http.Request) {
	id, ok := actingFor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	art, err := s.exports.ExportRange(r.Context(), id, q.Get("start"), q.Get("end"), q.Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	attachment(w, art.Filename, art.ContentType, art.Body)
}
