package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/RubeHicksCube/Djournal/internal/logger"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

type ctxKey int

const identityKey ctxKey = iota

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored by the auth middleware.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "expected Authorization: Bearer <token>")
			return
		}

		id, err := s.tokens.ValidateToken(token)
		if err != nil {
			logger.Warn("Rejected token", "path", r.URL.Path, "error", err)
			writeErrorMessage(w, http.StatusUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// subject is the identity an archive or export request acts for. Admins may
// name another user with ?user=.
func subject(r *http.Request) (models.Identity, bool) {
	id, _ := IdentityFrom(r.Context())
	other := r.URL.Query().Get("user")
	if other == "" || other == id.UserID {
		return id, true
	}
	if !id.IsAdmin {
		return models.Identity{}, false
	}
	return models.Identity{UserID: other, DisplayName: other}, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
