package httpapi

import (
	"encoding/json"
	"net/http"
)

// streamSessionEvents writes every snapshot of the session as a server-sent
// event until the session ends or the client goes away.
func (s *Server) streamSessionEvents(w http.ResponseWriter, r *http.Request) {
	view, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel, ok := s.manager.Subscribe(view.ID)
	if !ok {
		respondError(w, "session not found", http.StatusNotFound)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case snap, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(snap)
			if err != nil {
				s.logger.Error().Err(err).Str("session", view.ID).Msg("failed to encode snapshot")
				continue
			}
			w.Write([]byte("data: "))
			w.Write(data)
			w.Write([]byte("\n\n"))

			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
