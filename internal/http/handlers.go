package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cesizen/cesizen/internal/catalog"
	"github.com/cesizen/cesizen/internal/domain"
	"github.com/cesizen/cesizen/internal/logging"
	"github.com/cesizen/cesizen/internal/runner"
	"github.com/cesizen/cesizen/internal/storage"
)

// LogReader is the read side of the exercise log store.
type LogReader interface {
	GetLogsByUser(ctx context.Context, userID string) ([]domain.ExerciseLog, error)
	GetRecentLogs(ctx context.Context, userID string, since time.Time) ([]domain.ExerciseLog, error)
	GetLogStats(ctx context.Context, userID string) (*storage.LogStats, error)
}

type Server struct {
	manager *runner.SessionManager
	catalog *catalog.Loader
	logs    LogReader
	devUser string
	logger  zerolog.Logger
}

func NewServer(manager *runner.SessionManager, loader *catalog.Loader, logs LogReader, devUser string) *Server {
	return &Server{
		manager: manager,
		catalog: loader,
		logs:    logs,
		devUser: devUser,
		logger:  logging.Component("http"),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(UserMiddleware(s.devUser))

		r.Get("/exercises", s.listExercises)
		r.Get("/exercises/{id}", s.getExercise)
		r.Post("/exercises/reload", s.reloadExercises)

		r.Post("/sessions", s.startSession)
		r.Get("/sessions/{id}", s.getSession)
		r.Post("/sessions/{id}/pause", s.pauseSession)
		r.Post("/sessions/{id}/resume", s.resumeSession)
		r.Post("/sessions/{id}/stop", s.stopSession)
		r.Post("/sessions/{id}/acknowledge", s.acknowledgeSession)
		r.Get("/sessions/{id}/events", s.streamSessionEvents)
		r.Get("/sessions/{id}/ws", s.sessionSocket)

		r.Get("/me/session", s.currentSession)
		r.Get("/me/logs", s.myLogs)
		r.Get("/me/stats", s.myStats)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) listExercises(w http.ResponseWriter, r *http.Request) {
	if !s.catalogReady(w) {
		return
	}
	respondJSON(w, s.catalog.Exercises(), http.StatusOK)
}

func (s *Server) getExercise(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, exerciseNotFoundMessage, http.StatusNotFound)
		return
	}
	if !s.catalogReady(w) {
		return
	}

	e, err := s.catalog.Find(id)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, e, http.StatusOK)
}

func (s *Server) reloadExercises(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Reload(r.Context()); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, s.catalog.Exercises(), http.StatusOK)
}

// catalogReady writes a 503 unless the catalog has loaded.
func (s *Server) catalogReady(w http.ResponseWriter) bool {
	switch status := s.catalog.Status(); status.State {
	case catalog.StateReady:
		return true
	case catalog.StateFailed:
		respondError(w, status.Message, http.StatusServiceUnavailable)
	default:
		w.Header().Set("Retry-After", "1")
		respondError(w, "catalog loading", http.StatusServiceUnavailable)
	}
	return false
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExerciseID int64 `json:"exerciseId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.catalogReady(w) {
		return
	}

	e, err := s.catalog.Find(req.ExerciseID)
	if err != nil {
		respondErr(w, err)
		return
	}

	view, err := s.manager.StartSession(r.Context(), UserID(r), e)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, view, http.StatusCreated)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	view, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, view, http.StatusOK)
}

func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) {
	view, ok := s.manager.SessionForUser(UserID(r))
	if !ok {
		respondErr(w, domain.ErrSessionNotFound)
		return
	}
	respondJSON(w, view, http.StatusOK)
}

func (s *Server) pauseSession(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(id string) error { return s.manager.Pause(id) })
}

func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(id string) error { return s.manager.Resume(id) })
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	view, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	if err := s.manager.StopSession(r.Context(), view.ID); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) acknowledgeSession(w http.ResponseWriter, r *http.Request) {
	view, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	if err := s.manager.Acknowledge(view.ID); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// control applies a pause or resume and answers with the new state.
func (s *Server) control(w http.ResponseWriter, r *http.Request, op func(id string) error) {
	view, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	if err := op(view.ID); err != nil {
		respondErr(w, err)
		return
	}

	view, ok = s.manager.GetSession(view.ID)
	if !ok {
		respondErr(w, domain.ErrSessionNotFound)
		return
	}
	respondJSON(w, view, http.StatusOK)
}

// ownedSession loads the session named in the URL. Sessions of other users
// are reported as missing.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request) (runner.SessionView, bool) {
	view, ok := s.manager.GetSession(chi.URLParam(r, "id"))
	if !ok || view.UserID != UserID(r) {
		respondErr(w, domain.ErrSessionNotFound)
		return runner.SessionView{}, false
	}
	return view, true
}

func (s *Server) myLogs(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)

	var (
		logs []domain.ExerciseLog
		err  error
	)
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			respondError(w, "since must be an RFC3339 timestamp", http.StatusBadRequest)
			return
		}
		logs, err = s.logs.GetRecentLogs(r.Context(), userID, since)
	} else {
		logs, err = s.logs.GetLogsByUser(r.Context(), userID)
	}
	if err != nil {
		respondErr(w, err)
		return
	}

	if logs == nil {
		logs = []domain.ExerciseLog{}
	}
	respondJSON(w, logs, http.StatusOK)
}

func (s *Server) myStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.logs.GetLogStats(r.Context(), UserID(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}
