package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ichen27/openclaw-dashboard/internal/eventbus"
	"github.com/ichen27/openclaw-dashboard/pkg/clog"
)

// Server republishes domain events from the in-process bus as a server-sent
// event stream.
type Server struct {
	bus       *eventbus.Bus
	heartbeat time.Duration
}

func NewServer(bus *eventbus.Bus, heartbeat time.Duration) *Server {
	return &Server{bus: bus, heartbeat: heartbeat}
}

// HandleStream streams bus events to the client. A ?type= query parameter
// restricts the stream to one event type; without it every event is sent.
// Events are framed with the event type name so EventSource listeners can
// register per-type handlers.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	clog.AddAttribute(ctx, "stream", "events")

	typeFilter := eventbus.EventType(r.URL.Query().Get("type"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	subID, ch := s.bus.Subscribe(16)
	defer s.bus.Unsubscribe(subID)

	heartbeatTicker := time.NewTicker(s.heartbeat)
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if typeFilter != "" && event.Type != typeFilter {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				slog.Error("event stream: failed to encode event", "event_id", event.ID, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		case <-heartbeatTicker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
