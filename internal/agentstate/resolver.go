package agentstate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	agentConfigFile = "agent.yaml"
	sessionsDirName = "sessions"
)

var _ Provider = (*FileResolver)(nil)

// FileResolver reads the agent roster from a directory tree: one
// subdirectory per agent id containing agent.yaml and a sessions directory
// in which every regular file is one session (key = base name without
// extension, updated-at = file mtime).
//
// Every Snapshot call re-reads the tree. An unreadable or malformed agent is
// omitted from the snapshot instead of failing the whole listing.
type FileResolver struct {
	dir          string
	activeWindow time.Duration
	now          func() time.Time
}

func NewFileResolver(dir string, activeWindow time.Duration) *FileResolver {
	return &FileResolver{
		dir:          dir,
		activeWindow: activeWindow,
		now:          time.Now,
	}
}

type agentConfig struct {
	Name       string   `yaml:"name"`
	Keywords   []string `yaml:"keywords"`
	Categories []string `yaml:"categories"`
}

func (r *FileResolver) Snapshot(_ context.Context) ([]*Agent, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	agents := make([]*Agent, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		agent := r.resolveAgent(entry.Name())
		if agent == nil {
			continue
		}
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents, nil
}

func (r *FileResolver) resolveAgent(id string) *Agent {
	data, err := os.ReadFile(filepath.Join(r.dir, id, agentConfigFile))
	if err != nil {
		slog.Debug("skipping agent with unreadable config", "agent_id", id, "error", err)
		return nil
	}
	var cfg agentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Debug("skipping agent with malformed config", "agent_id", id, "error", err)
		return nil
	}

	agent := &Agent{
		ID:         id,
		Name:       cfg.Name,
		Keywords:   cfg.Keywords,
		Categories: cfg.Categories,
	}
	if agent.Name == "" {
		agent.Name = id
	}

	agent.Sessions = r.readSessions(id)
	r.deriveStatus(agent)
	return agent
}

func (r *FileResolver) readSessions(id string) []Session {
	entries, err := os.ReadDir(filepath.Join(r.dir, id, sessionsDirName))
	if err != nil {
		// No sessions directory is a valid "never active" state.
		return nil
	}

	var sessions []Session
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		session := Session{Key: key}
		if info, err := entry.Info(); err == nil {
			mtime := info.ModTime()
			session.UpdatedAt = &mtime
		}
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		switch {
		case sessions[i].UpdatedAt == nil:
			return false
		case sessions[j].UpdatedAt == nil:
			return true
		default:
			return sessions[i].UpdatedAt.After(*sessions[j].UpdatedAt)
		}
	})
	return sessions
}

func (r *FileResolver) deriveStatus(agent *Agent) {
	if len(agent.Sessions) == 0 {
		agent.Status = StatusNever
		return
	}

	cutoff := r.now().Add(-r.activeWindow)
	for i := range agent.Sessions {
		updated := agent.Sessions[i].UpdatedAt
		if updated == nil {
			continue
		}
		if agent.LastActive == nil || updated.After(*agent.LastActive) {
			agent.LastActive = updated
		}
		if updated.After(cutoff) {
			agent.ActiveSessions++
		}
	}

	if agent.ActiveSessions > 0 {
		agent.Status = StatusActive
	} else {
		agent.Status = StatusIdle
	}
}

// WatchTargets returns the roster root plus every agent and sessions
// directory that exists right now. Directories created later are picked up
// via events on their parent.
func (r *FileResolver) WatchTargets() []string {
	targets := []string{r.dir}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return targets
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		agentDir := filepath.Join(r.dir, entry.Name())
		targets = append(targets, agentDir)
		sessionsDir := filepath.Join(agentDir, sessionsDirName)
		if info, err := os.Stat(sessionsDir); err == nil && info.IsDir() {
			targets = append(targets, sessionsDir)
		}
	}
	return targets
}
