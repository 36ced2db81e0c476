package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/orchestrator"
	"github.com/wayfarer-ai/wayfarer/pkg/progress"
)

type runOutcome struct {
	guide *models.Guide
	err   error
}

// handleGenerateStream runs a generation and streams its progress as
// server-sent events, ending with a "result" or "error" event.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupTrip(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	runID := orchestrator.NewRunID()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Wayfarer-Run-ID", runID)
	w.WriteHeader(http.StatusOK)

	events := make(chan models.ProgressEvent, 32)
	outcome := make(chan runOutcome, 1)
	go func() {
		g, err := s.generate(r.Context(), rec, runID, progress.NewChannelSink(events))
		outcome <- runOutcome{guide: g, err: err}
		close(events)
	}()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			// the generation goroutine closes events once it returns
			go func() {
				for range events {
				}
			}()
			return
		case evt, ok := <-events:
			if !ok {
				res := <-outcome
				if res.err != nil {
					writeEvent(w, "error", failureBody(res.err))
				} else {
					writeEvent(w, "result", guideResponse{RunID: runID, Guide: res.guide})
				}
				flusher.Flush()
				return
			}
			writeEvent(w, "progress", evt)
			flusher.Flush()
		case <-heartbeat.C:
			writeEvent(w, "heartbeat", map[string]string{"run_id": runID, "ts": time.Now().UTC().Format(time.RFC3339)})
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("encode %s event: %v", name, err)
		return
	}
	fmt.Fprintf(w, "event: %s\n", name)
	fmt.Fprintf(w, "data: %s\n\n", b)
}

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 20 * time.Second
)

// handleRunSocket relays the progress events of a run to a websocket client
// until the run ends or the client goes away.
func (s *Server) handleRunSocket(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "progress relay disabled")
		return
	}
	runID := r.PathValue("runID")

	// subscribe before the upgrade so no event published after the handshake is missed
	ch := s.broker.Subscribe(runID)
	defer s.broker.Unsubscribe(runID, ch)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(wsPongWait)) })

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
			if progress.IsTerminal(evt) {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, evt.Stage)
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
