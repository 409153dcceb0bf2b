package agentstream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oklog/ulid/v2"

	"github.com/ichen27/openclaw-dashboard/internal/agentstate"
	"github.com/ichen27/openclaw-dashboard/pkg/panicerr"
)

// FrameKind distinguishes state-carrying snapshot frames from content-free
// heartbeats.
type FrameKind int

const (
	FrameSnapshot FrameKind = iota
	FrameHeartbeat
)

type Frame struct {
	Kind FrameKind
	// Data is the JSON-encoded agent array; empty for heartbeats.
	Data []byte
}

// Notifier creates per-subscriber reconciliation loops over the agent state
// provider. Subscribers never share state with one another.
type Notifier struct {
	provider  agentstate.Provider
	debounce  time.Duration
	poll      time.Duration
	heartbeat time.Duration
}

func NewNotifier(provider agentstate.Provider, debounce, poll, heartbeat time.Duration) *Notifier {
	return &Notifier{
		provider:  provider,
		debounce:  debounce,
		poll:      poll,
		heartbeat: heartbeat,
	}
}

// Subscription owns every resource belonging to one subscriber: the watcher,
// the debounce timer, the poll and heartbeat tickers, and the outbound frame
// channel. Close releases all of them exactly once.
type Subscription struct {
	id      string
	frames  chan Frame
	done    chan struct{}
	closeMu sync.Once
	watcher *fsnotify.Watcher
}

func (s *Subscription) Frames() <-chan Frame {
	return s.frames
}

// Close tears the subscription down. Safe to call multiple times and from
// any goroutine; watcher close failures are swallowed.
func (s *Subscription) Close() {
	s.closeMu.Do(func() {
		close(s.done)
		if s.watcher != nil {
			_ = s.watcher.Close()
		}
	})
}

// Subscribe starts a reconciliation loop for one subscriber. The first frame
// is always a full snapshot. The loop ends when ctx is cancelled or Close is
// called; either way every timer and watcher is released.
func (n *Notifier) Subscribe(ctx context.Context) *Subscription {
	sub := &Subscription{
		id:     ulid.Make().String(),
		frames: make(chan Frame, 16),
		done:   make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Degrade to poll-only; the periodic snapshot still covers changes.
		slog.Warn("agent stream: failed to create watcher, falling back to polling",
			"subscriber", sub.id, "error", err)
	} else {
		sub.watcher = watcher
		for _, target := range n.provider.WatchTargets() {
			if err := watcher.Add(target); err != nil {
				slog.Debug("agent stream: skipping watch target",
					"subscriber", sub.id, "target", target, "error", err)
			}
		}
	}

	go func() {
		_ = panicerr.SafeContext(func(ctx context.Context) error {
			n.run(ctx, sub)
			return nil
		})(ctx)
	}()

	return sub
}

func (n *Notifier) run(ctx context.Context, sub *Subscription) {
	defer sub.Close()

	pollTicker := time.NewTicker(n.poll)
	defer pollTicker.Stop()
	heartbeatTicker := time.NewTicker(n.heartbeat)
	defer heartbeatTicker.Stop()

	// Debounce timer starts drained; watch events arm it.
	debounceTimer := time.NewTimer(n.debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	var watchEvents chan fsnotify.Event
	var watchErrors chan error
	if sub.watcher != nil {
		watchEvents = sub.watcher.Events
		watchErrors = sub.watcher.Errors
	}

	// Initial full snapshot.
	n.emitSnapshot(ctx, sub)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return

		case _, ok := <-watchEvents:
			if !ok {
				watchEvents = nil
				continue
			}
			// Coalesce bursts: only the trailing edge of a run of
			// changes produces a snapshot.
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(n.debounce)

		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			slog.Debug("agent stream: watcher error", "subscriber", sub.id, "error", err)

		case <-debounceTimer.C:
			n.emitSnapshot(ctx, sub)

		case <-pollTicker.C:
			// Unconditional fallback for sources whose change
			// notification is unreliable or unsupported.
			n.emitSnapshot(ctx, sub)

		case <-heartbeatTicker.C:
			n.emit(sub, Frame{Kind: FrameHeartbeat})
		}
	}
}

func (n *Notifier) emitSnapshot(ctx context.Context, sub *Subscription) {
	agents, err := n.provider.Snapshot(ctx)
	if err != nil {
		slog.Warn("agent stream: snapshot failed", "subscriber", sub.id, "error", err)
		agents = nil
	}
	if agents == nil {
		agents = []*agentstate.Agent{}
	}
	data, err := json.Marshal(agents)
	if err != nil {
		slog.Error("agent stream: failed to encode snapshot", "subscriber", sub.id, "error", err)
		return
	}
	n.emit(sub, Frame{Kind: FrameSnapshot, Data: data})
}

func (n *Notifier) emit(sub *Subscription, frame Frame) {
	select {
	case sub.frames <- frame:
	case <-sub.done:
	default:
		// subscriber is not draining; drop rather than block the loop
	}
}
