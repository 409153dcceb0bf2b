package agentstate

import "time"

type Status string

const (
	// StatusActive means at least one session was updated inside the
	// recency window.
	StatusActive Status = "active"
	// StatusIdle means the agent has sessions but none recent.
	StatusIdle Status = "idle"
	// StatusNever means the agent has no sessions at all.
	StatusNever Status = "never"
)

type Session struct {
	Key       string     `json:"key"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Agent is a live projection of one worker agent. It is recomputed from the
// backing sources on every snapshot and is never persisted; only the ID
// carries identity across snapshots.
type Agent struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Status         Status     `json:"status"`
	Sessions       []Session  `json:"sessions,omitempty"`
	ActiveSessions int        `json:"activeSessions"`
	LastActive     *time.Time `json:"lastActive,omitempty"`

	// Affinity configuration from agent.yaml, consumed by bid scoring.
	Keywords   []string `json:"-"`
	Categories []string `json:"-"`
}
