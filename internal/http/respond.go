package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cesizen/cesizen/internal/catalog"
	"github.com/cesizen/cesizen/internal/domain"
)

const exerciseNotFoundMessage = "Exercice non trouvé"

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

// respondErr maps domain and catalog errors to a status code.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		respondError(w, "session not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrExerciseNotFound):
		respondError(w, exerciseNotFoundMessage, http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidStart):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotRunning),
		errors.Is(err, domain.ErrNotPaused),
		errors.Is(err, domain.ErrNotFinished),
		errors.Is(err, domain.ErrNoSession):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, catalog.ErrCatalogUnavailable),
		errors.Is(err, catalog.ErrCatalogEmpty):
		respondError(w, catalog.LoadFailedMessage, http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Msg("request failed")
		respondError(w, "internal error", http.StatusInternalServerError)
	}
}
