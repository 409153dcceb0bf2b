package agentstream

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ichen27/openclaw-dashboard/internal/agentstate"
)

func waitForFrame(t *testing.T, sub *Subscription, kind FrameKind, timeout time.Duration) Frame {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case frame, ok := <-sub.Frames():
			if !ok {
				t.Fatal("frame channel closed before expected frame")
			}
			if frame.Kind == kind {
				return frame
			}
		case <-deadline:
			t.Fatalf("no frame of kind %d within %v", kind, timeout)
		}
	}
}

func decodeAgents(t *testing.T, frame Frame) []*agentstate.Agent {
	t.Helper()
	var agents []*agentstate.Agent
	if err := json.Unmarshal(frame.Data, &agents); err != nil {
		t.Fatalf("failed to decode snapshot frame: %v", err)
	}
	return agents
}

func seedAgent(t *testing.T, dir, id string) {
	t.Helper()
	agentDir := filepath.Join(dir, id)
	if err := os.MkdirAll(agentDir, 0755); err != nil {
		t.Fatalf("failed to create agent dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(agentDir, "agent.yaml"), []byte("name: "+id+"\n"), 0644); err != nil {
		t.Fatalf("failed to write agent.yaml: %v", err)
	}
}

func TestSubscribe_InitialSnapshot(t *testing.T) {
	dir := t.TempDir()
	seedAgent(t, dir, "alpha")

	resolver := agentstate.NewFileResolver(dir, time.Hour)
	n := NewNotifier(resolver, 50*time.Millisecond, time.Minute, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := n.Subscribe(ctx)
	defer sub.Close()

	frame := waitForFrame(t, sub, FrameSnapshot, time.Second)
	agents := decodeAgents(t, frame)
	if len(agents) != 1 || agents[0].ID != "alpha" {
		t.Errorf("initial snapshot = %+v, want one agent alpha", agents)
	}
}

func TestSubscribe_SnapshotAfterFileChange(t *testing.T) {
	dir := t.TempDir()
	seedAgent(t, dir, "alpha")

	resolver := agentstate.NewFileResolver(dir, time.Hour)
	n := NewNotifier(resolver, 50*time.Millisecond, time.Minute, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := n.Subscribe(ctx)
	defer sub.Close()

	// Drain the initial frame before mutating the tree.
	waitForFrame(t, sub, FrameSnapshot, time.Second)

	seedAgent(t, dir, "beta")

	frame := waitForFrame(t, sub, FrameSnapshot, 3*time.Second)
	agents := decodeAgents(t, frame)
	if len(agents) != 2 {
		t.Errorf("post-change snapshot has %d agents, want 2", len(agents))
	}
}

func TestSubscribe_PollFallback(t *testing.T) {
	dir := t.TempDir()

	resolver := agentstate.NewFileResolver(dir, time.Hour)
	// Debounce never fires without watch events; rely on the poll ticker.
	n := NewNotifier(resolver, time.Minute, 50*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := n.Subscribe(ctx)
	defer sub.Close()

	waitForFrame(t, sub, FrameSnapshot, time.Second)
	// The next snapshot comes from the poll ticker, not a watch event.
	waitForFrame(t, sub, FrameSnapshot, 2*time.Second)
}

func TestSubscribe_Heartbeat(t *testing.T) {
	dir := t.TempDir()

	resolver := agentstate.NewFileResolver(dir, time.Hour)
	n := NewNotifier(resolver, time.Minute, time.Minute, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := n.Subscribe(ctx)
	defer sub.Close()

	frame := waitForFrame(t, sub, FrameHeartbeat, 2*time.Second)
	if len(frame.Data) != 0 {
		t.Errorf("heartbeat frame carries data: %q", frame.Data)
	}
}

func TestSubscribe_EmptyRosterEncodesAsArray(t *testing.T) {
	resolver := agentstate.NewFileResolver(filepath.Join(t.TempDir(), "nope"), time.Hour)
	n := NewNotifier(resolver, time.Minute, time.Minute, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := n.Subscribe(ctx)
	defer sub.Close()

	frame := waitForFrame(t, sub, FrameSnapshot, time.Second)
	if string(frame.Data) != "[]" {
		t.Errorf("empty roster frame = %q, want []", frame.Data)
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	resolver := agentstate.NewFileResolver(t.TempDir(), time.Hour)
	n := NewNotifier(resolver, time.Minute, time.Minute, time.Minute)

	sub := n.Subscribe(context.Background())
	sub.Close()
	sub.Close()
}

func TestSubscribe_ContextCancelStopsLoop(t *testing.T) {
	resolver := agentstate.NewFileResolver(t.TempDir(), time.Hour)
	n := NewNotifier(resolver, time.Minute, 50*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	sub := n.Subscribe(ctx)

	waitForFrame(t, sub, FrameSnapshot, time.Second)
	cancel()

	// After cancellation the loop closes the subscription; no new poll
	// frames should arrive.
	time.Sleep(200 * time.Millisecond)
	drained := 0
	for {
		select {
		case _, ok := <-sub.Frames():
			if !ok {
				return
			}
			drained++
			if drained > 4 {
				t.Fatal("frames still flowing after context cancellation")
			}
		default:
			return
		}
	}
}
