package agentstate

import "context"

// Provider is the port through which the auction engine and the change
// notifier see agent state. Snapshot must re-read the backing sources on
// every call; callers rely on its freshness for assignment decisions.
type Provider interface {
	Snapshot(ctx context.Context) ([]*Agent, error)
	// WatchTargets enumerates filesystem paths whose modification should
	// trigger a refresh notification upstream.
	WatchTargets() []string
}
