package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/amityadav/researchcrew/internal/core"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gorilla/mux"
)

const writeTimeout = 10 * time.Second

// Event is a message on the progress websocket. A "run" event carries the
// stored run and is always the last message once the run has finished.
type Event struct {
	Type     string         `json:"type"`
	Progress *core.Progress `json:"progress,omitempty"`
	Run      *RunView       `json:"run,omitempty"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	// Subscribe before reading the run so no update between the two is lost
	updates, cancel := s.research.Subscribe(runID)
	defer cancel()

	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		log.Printf("[WS] Accept failed for run %s: %v", runID, err)
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())

	if err := writeEvent(ctx, conn, Event{Type: "run", Run: newRunView(run)}); err != nil {
		return
	}
	if run.Done() {
		conn.Close(websocket.StatusNormalClosure, "run finished")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case p, open := <-updates:
			if !open {
				s.sendFinal(ctx, conn, runID)
				return
			}
			if err := writeEvent(ctx, conn, Event{Type: "progress", Progress: &p}); err != nil {
				return
			}
		}
	}
}

func (s *Server) sendFinal(ctx context.Context, conn *websocket.Conn, runID string) {
	run, err := s.research.Get(ctx, runID)
	if err != nil {
		log.Printf("[WS] Failed to load final state of run %s: %v", runID, err)
		conn.Close(websocket.StatusInternalError, "failed to load run")
		return
	}
	if err := writeEvent(ctx, conn, Event{Type: "run", Run: newRunView(run)}); err != nil {
		return
	}
	conn.Close(websocket.StatusNormalClosure, "run finished")
}

func writeEvent(ctx context.Context, conn *websocket.Conn, e Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	err := wsjson.Write(ctx, conn, e)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[WS] Write failed: %v", err)
	}
	return err
}
