package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/RubeHicksCube/Djournal/internal/daystate"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

type textRequest struct {
	Text string `json:"text"`
}

type entryRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

type fieldRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type valueRequest struct {
	Value string `json:"value"`
}

func userID(r *http.Request) string {
	id, _ := IdentityFrom(r.Context())
	return id.UserID
}

func respondState(w http.ResponseWriter, r *http.Request, state models.DayState, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	state, err := s.days.GetState(r.Context(), userID(r))
	respondState(w, r, state, err)
}

func (s *Server) handleUpdateSleep(w http.ResponseWriter, r *http.Request) {
	var req daystate.SleepUpdate
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.UpdateSleep(r.Context(), userID(r), req)
	respondState(w, r, state, err)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.AddEntry(r.Context(), userID(r), req.Text, req.Image)
	respondState(w, r, state, err)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	state, err := s.days.DeleteEntry(r.Context(), userID(r), mux.Vars(r)["id"])
	respondState(w, r, state, err)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.AddTask(r.Context(), userID(r), req.Text)
	respondState(w, r, state, err)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	state, err := s.days.ToggleTask(r.Context(), userID(r), mux.Vars(r)["id"])
	respondState(w, r, state, err)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	state, err := s.days.DeleteTask(r.Context(), userID(r), mux.Vars(r)["id"])
	respondState(w, r, state, err)
}

func (s *Server) handleAddField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.AddOneOffField(r.Context(), userID(r), req.Key, req.Value)
	respondState(w, r, state, err)
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.UpdateOneOffField(r.Context(), userID(r), mux.Vars(r)["id"], req.Value)
	respondState(w, r, state, err)
}

func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	state, err := s.days.DeleteOneOffField(r.Context(), userID(r), mux.Vars(r)["id"])
	respondState(w, r, state, err)
}

func (s *Server) handleSetTemplateValue(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.SetTemplateFieldValue(r.Context(), userID(r), mux.Vars(r)["key"], req.Value)
	respondState(w, r, state, err)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.days.ListTemplates(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if templates == nil {
		templates = []models.FieldTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.CreateTemplateField(r.Context(), userID(r), req.Key)
	respondState(w, r, state, err)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	state, err := s.days.DeleteTemplateField(r.Context(), userID(r), mux.Vars(r)["id"])
	respondState(w, r, state, err)
}
