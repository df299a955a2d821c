package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const wsWriteWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type wsCommand struct {
	Action string `json:"action"`
}

// sessionSocket streams snapshots like the SSE endpoint and accepts
// {"action": "pause"|"resume"|"stop"|"acknowledge"} commands.
func (s *Server) sessionSocket(w http.ResponseWriter, r *http.Request) {
	view, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	events, cancel, ok := s.manager.Subscribe(view.ID)
	if !ok {
		respondError(w, "session not found", http.StatusNotFound)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("session", view.ID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range events {
			if err := write(snap); err != nil {
				return
			}
		}

		writeMu.Lock()
		defer writeMu.Unlock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
	}()

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		if err := s.dispatch(r.Context(), view.ID, cmd.Action); err != nil {
			if werr := write(map[string]string{"error": err.Error()}); werr != nil {
				break
			}
		}
	}

	cancel()
	<-done
}

func (s *Server) dispatch(ctx context.Context, sessionID, action string) error {
	switch action {
	case "pause":
		return s.manager.Pause(sessionID)
	case "resume":
		return s.manager.Resume(sessionID)
	case "stop":
		return s.manager.StopSession(ctx, sessionID)
	case "acknowledge":
		return s.manager.Acknowledge(sessionID)
	default:
		return errors.Errorf("unknown action %q", action)
	}
}
