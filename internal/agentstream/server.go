package agentstream

import (
	"fmt"
	"net/http"

	"github.com/ichen27/openclaw-dashboard/pkg/clog"
)

// Server exposes the live agent roster as a server-sent event stream.
type Server struct {
	notifier *Notifier
}

func NewServer(notifier *Notifier) *Server {
	return &Server{notifier: notifier}
}

// HandleStream writes "agents" events carrying the full roster snapshot and
// comment heartbeats to keep intermediaries from closing the connection. The
// stream runs until the client disconnects.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	clog.AddAttribute(ctx, "stream", "agents")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.notifier.Subscribe(ctx)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-sub.Frames():
			if !ok {
				return
			}
			switch frame.Kind {
			case FrameSnapshot:
				fmt.Fprintf(w, "event: agents\ndata: %s\n\n", frame.Data)
			case FrameHeartbeat:
				fmt.Fprint(w, ": heartbeat\n\n")
			}
			flusher.Flush()
		}
	}
}
