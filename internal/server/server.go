// Package server exposes the journal over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/RubeHicksCube/Djournal/internal/daystate"
	"github.com/RubeHicksCube/Djournal/internal/export"
	"github.com/RubeHicksCube/Djournal/internal/logger"
	"github.com/RubeHicksCube/Djournal/internal/models"
	"github.com/RubeHicksCube/Djournal/internal/snapshots"
	"github.com/RubeHicksCube/Djournal/internal/storage"
)

// TokenValidator turns a bearer token into the caller's identity.
type TokenValidator interface {
	ValidateToken(token string) (models.Identity, error)
}

type Deps struct {
	Days         *daystate.Manager
	Snapshots    *snapshots.Store
	Exports      *export.Orchestrator
	Profiles     storage.ProfileStore
	Tokens       TokenValidator
	MaxBodyBytes int64
}

type Server struct {
	days         *daystate.Manager
	snapshots    *snapshots.Store
	exports      *export.Orchestrator
	profiles     storage.ProfileStore
	tokens       TokenValidator
	maxBodyBytes int64
	router       *mux.Router
}

func New(d Deps) *Server {
	s := &Server{
		days:         d.Days,
		snapshots:    d.Snapshots,
		exports:      d.Exports,
		profiles:     d.Profiles,
		tokens:       d.Tokens,
		maxBodyBytes: d.MaxBodyBytes,
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = 32 << 20
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(logRequests)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)

	day := api.PathPrefix("/day").Subrouter()
	day.HandleFunc("", s.handleGetDay).Methods(http.MethodGet)
	day.HandleFunc("/sleep", s.handleUpdateSleep).Methods(http.MethodPut)
	day.HandleFunc("/entries", s.handleAddEntry).Methods(http.MethodPost)
	day.HandleFunc("/entries/{id}", s.handleDeleteEntry).Methods(http.MethodDelete)
	day.HandleFunc("/tasks", s.handleAddTask).Methods(http.MethodPost)
	day.HandleFunc("/tasks/{id}", s.handleDeleteTask).Methods(http.MethodDelete)
	day.HandleFunc("/tasks/{id}/toggle", s.handleToggleTask).Methods(http.MethodPost)
	day.HandleFunc("/fields", s.handleAddField).Methods(http.MethodPost)
	day.HandleFunc("/fields/{id}", s.handleUpdateField).Methods(http.MethodPut)
	day.HandleFunc("/fields/{id}", s.handleDeleteField).Methods(http.MethodDelete)
	day.HandleFunc("/template-fields/{key}", s.handleSetTemplateValue).Methods(http.MethodPut)

	api.HandleFunc("/templates", s.handleListTemplates).Methods(http.MethodGet)
	api.HandleFunc("/templates", s.handleCreateTemplate).Methods(http.MethodPost)
	api.HandleFunc("/templates/{id}", s.handleDeleteTemplate).Methods(http.MethodDelete)

	tr := api.PathPrefix("/trackers").Subrouter()
	tr.HandleFunc("/time-since", s.handleCreateTimeSince).Methods(http.MethodPost)
	tr.HandleFunc("/time-since/{id}", s.handleDeleteTimeSince).Methods(http.MethodDelete)
	tr.HandleFunc("/duration", s.handleCreateDuration).Methods(http.MethodPost)
	tr.HandleFunc("/duration/{id}", s.handleDeleteDuration).Methods(http.MethodDelete)
	tr.HandleFunc("/duration/{id}/{action:start|stop|reset}", s.handleTimerAction).Methods(http.MethodPost)
	tr.HandleFunc("/duration/{id}/time", s.handleSetManualTime).Methods(http.MethodPut)

	api.HandleFunc("/counters", s.handleCreateCounter).Methods(http.MethodPost)
	api.HandleFunc("/counters/{id}", s.handleDeleteCounter).Methods(http.MethodDelete)
	api.HandleFunc("/counters/{id}/{action:increment|decrement}", s.handleCounterStep).Methods(http.MethodPost)
	api.HandleFunc("/counters/{id}/value", s.handleSetCounterValue).Methods(http.MethodPut)

	api.HandleFunc("/snapshots", s.handleSaveSnapshot).Methods(http.MethodPost)
	api.HandleFunc("/snapshots", s.handleListSnapshots).Methods(http.MethodGet)
	api.HandleFunc("/snapshots/{date}", s.handleGetSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/snapshots/{date}", s.handleDeleteSnapshot).Methods(http.MethodDelete)

	api.HandleFunc("/retention", s.handleGetRetention).Methods(http.MethodGet)
	api.HandleFunc("/retention", s.handleSetRetention).Methods(http.MethodPut)

	api.HandleFunc("/profile", s.handleListProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile/{key}", s.handleSetProfile).Methods(http.MethodPut)
	api.HandleFunc("/profile/{key}", s.handleDeleteProfile).Methods(http.MethodDelete)

	api.HandleFunc("/export", s.handleExportRange).Methods(http.MethodGet)
	api.HandleFunc("/export/{date}", s.handleExportDay).Methods(http.MethodGet)

	return router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
