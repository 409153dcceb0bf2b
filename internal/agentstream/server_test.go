package agentstream_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ichen27/openclaw-dashboard/internal/agentstate"
	"github.com/ichen27/openclaw-dashboard/internal/agentstream"
)

func TestHandleStream(t *testing.T) {
	dir := t.TempDir()
	agentDir := filepath.Join(dir, "alpha")
	if err := os.MkdirAll(agentDir, 0755); err != nil {
		t.Fatalf("failed to create agent dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(agentDir, "agent.yaml"), []byte("name: Alpha\n"), 0644); err != nil {
		t.Fatalf("failed to write agent.yaml: %v", err)
	}

	resolver := agentstate.NewFileResolver(dir, time.Hour)
	notifier := agentstream.NewNotifier(resolver, 50*time.Millisecond, time.Minute, 50*time.Millisecond)
	srv := agentstream.NewServer(notifier)

	ts := httptest.NewServer(http.HandlerFunc(srv.HandleStream))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	var sawEvent, sawData, sawHeartbeat bool
	scanner := bufio.NewScanner(resp.Body)
	timeout := time.After(5 * time.Second)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "event: agents":
				sawEvent = true
			case strings.HasPrefix(line, "data: ") && strings.Contains(line, `"alpha"`):
				sawData = true
			case line == ": heartbeat":
				sawHeartbeat = true
			}
			if sawEvent && sawData && sawHeartbeat {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-timeout:
	}
	cancel()
	<-done

	if !sawEvent {
		t.Error("never saw an agents event line")
	}
	if !sawData {
		t.Error("never saw a snapshot data line with the seeded agent")
	}
	if !sawHeartbeat {
		t.Error("never saw a heartbeat comment")
	}
}
