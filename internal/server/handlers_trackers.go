package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

type timeSinceRequest struct {
	Name          string `json:"name"`
	ReferenceDate string `json:"referenceDate"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type manualTimeRequest struct {
	ElapsedMs int64 `json:"elapsedMs"`
}

type counterValueRequest struct {
	Value int `json:"value"`
}

func (s *Server) handleCreateTimeSince(w http.ResponseWriter, r *http.Request) {
	var req timeSinceRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.CreateTimeSinceTracker(r.Context(), userID(r), req.Name, req.ReferenceDate)
	respondState(w, r, state, err)
}

func (s *Server) handleDeleteTimeSince(w http.ResponseWriter, r *http.Request) {
	state, err := s.days.DeleteTimeSinceTracker(r.Context(), userID(r), mux.Vars(r)["id"])
	respondState(w, r, state, err)
}

func (s *Server) handleCreateDuration(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.CreateDurationTracker(r.Context(), userID(r), req.Name)
	respondState(w, r, state, err)
}

func (s *Server) handleDeleteDuration(w http.ResponseWriter, r *http.Request) {
	state, err := s.days.DeleteDurationTracker(r.Context(), userID(r), mux.Vars(r)["id"])
	respondState(w, r, state, err)
}

func (s *Server) handleTimerAction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ctx, user, id := r.Context(), userID(r), vars["id"]

	switch vars["action"] {
	case "start":
		state, err := s.days.StartTimer(ctx, user, id)
		respondState(w, r, state, err)
	case "stop":
		state, err := s.days.StopTimer(ctx, user, id)
		respondState(w, r, state, err)
	default:
		state, err := s.days.ResetTimer(ctx, user, id)
		respondState(w, r, state, err)
	}
}

func (s *Server) handleSetManualTime(w http.ResponseWriter, r *http.Request) {
	var req manualTimeRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.SetManualTime(r.Context(), userID(r), mux.Vars(r)["id"], req.ElapsedMs)
	respondState(w, r, state, err)
}

func (s *Server) handleCreateCounter(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.CreateCustomCounter(r.Context(), userID(r), req.Name)
	respondState(w, r, state, err)
}

func (s *Server) handleDeleteCounter(w http.ResponseWriter, r *http.Request) {
	state, err := s.days.DeleteCustomCounter(r.Context(), userID(r), mux.Vars(r)["id"])
	respondState(w, r, state, err)
}

func (s *Server) handleCounterStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if vars["action"] == "increment" {
		state, err := s.days.IncrementCounter(r.Context(), userID(r), vars["id"])
		respondState(w, r, state, err)
		return
	}
	state, err := s.days.DecrementCounter(r.Context(), userID(r), vars["id"])
	respondState(w, r, state, err)
}

func (s *Server) handleSetCounterValue(w http.ResponseWriter, r *http.Request) {
	var req counterValueRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.days.SetCounterValue(r.Context(), userID(r), mux.Vars(r)["id"], req.Value)
	respondState(w, r, state, err)
}
