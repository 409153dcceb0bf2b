package auction

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ichen27/openclaw-dashboard/internal/agentstate"
	"github.com/ichen27/openclaw-dashboard/internal/category"
	"github.com/ichen27/openclaw-dashboard/internal/eventbus"
	"github.com/ichen27/openclaw-dashboard/internal/task"
	"github.com/ichen27/openclaw-dashboard/pkg/cerr"
)

const defaultLimit = 10

type Server struct {
	taskRepo        task.Repository
	categoryRepo    category.Repository
	provider        agentstate.Provider
	assigner        task.Assigner
	eventBus        *eventbus.Bus
	availabilityCap int
	now             func() time.Time
}

func NewServer(
	taskRepo task.Repository,
	categoryRepo category.Repository,
	provider agentstate.Provider,
	assigner task.Assigner,
	eventBus *eventbus.Bus,
	availabilityCap int,
) *Server {
	return &Server{
		taskRepo:        taskRepo,
		categoryRepo:    categoryRepo,
		provider:        provider,
		assigner:        assigner,
		eventBus:        eventBus,
		availabilityCap: availabilityCap,
		now:             time.Now,
	}
}

type auctionTask struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Priority       task.Priority `json:"priority"`
	CategoryID     string        `json:"categoryId"`
	CategoryName   string        `json:"categoryName,omitempty"`
	AssignedAgent  string        `json:"assignedAgent,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	Score          float64       `json:"score"`
	AgentBids      []Bid         `json:"agentBids"`
	SuggestedAgent string        `json:"suggestedAgent,omitempty"`
}

type auctionAgent struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Status         agentstate.Status `json:"status"`
	ActiveSessions int               `json:"activeSessions"`
}

type getResponse struct {
	Tasks       []auctionTask `json:"tasks"`
	Agents      []auctionAgent `json:"agents"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// HandleGet is the read path: a pure, advisory ranking of backlog tasks and
// per-agent bids. It mutates nothing and promises no read isolation.
func (s *Server) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	backlog, err := s.taskRepo.List(ctx, task.StatusBacklog)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	agents, err := s.provider.Snapshot(ctx)
	if err != nil {
		// Best-effort: an empty roster still yields a usable response.
		slog.WarnContext(ctx, "agent snapshot failed, degrading to empty roster", "error", err)
		agents = nil
	}

	inFlight, err := s.inFlightCounts(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	categories := s.categoriesByID(r)

	now := s.now()
	sort.SliceStable(backlog, func(i, j int) bool {
		si, sj := UrgencyScore(backlog[i], now), UrgencyScore(backlog[j], now)
		if si != sj {
			return si > sj
		}
		if !backlog[i].CreatedAt.Equal(backlog[j].CreatedAt) {
			return backlog[i].CreatedAt.Before(backlog[j].CreatedAt)
		}
		return backlog[i].ID < backlog[j].ID
	})
	if len(backlog) > limit {
		backlog = backlog[:limit]
	}

	tasks := make([]auctionTask, 0, len(backlog))
	for _, t := range backlog {
		cat := categories[t.CategoryID]
		bids, suggested := BuildBids(t, cat, agents, inFlight, s.availabilityCap)
		entry := auctionTask{
			ID:             t.ID,
			Title:          t.Title,
			Priority:       t.Priority,
			CategoryID:     t.CategoryID,
			AssignedAgent:  t.AssignedAgent,
			CreatedAt:      t.CreatedAt,
			Score:          UrgencyScore(t, now),
			AgentBids:      bids,
			SuggestedAgent: suggested,
		}
		if cat != nil {
			entry.CategoryName = cat.Name
		}
		tasks = append(tasks, entry)
	}

	roster := make([]auctionAgent, 0, len(agents))
	for _, agent := range agents {
		roster = append(roster, auctionAgent{
			ID:             agent.ID,
			Name:           agent.Name,
			Status:         agent.Status,
			ActiveSessions: agent.ActiveSessions,
		})
	}

	cerr.SetJSONResponse(ctx, getResponse{
		Tasks:       tasks,
		Agents:      roster,
		GeneratedAt: now,
	})
}

func (s *Server) inFlightCounts(r *http.Request) (map[string]int, error) {
	inProgress, err := s.taskRepo.List(r.Context(), task.StatusInProgress)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, t := range inProgress {
		if t.AssignedAgent != "" {
			counts[t.AssignedAgent]++
		}
	}
	return counts, nil
}

func (s *Server) categoriesByID(r *http.Request) map[string]*category.Category {
	categories, err := s.categoryRepo.List(r.Context())
	if err != nil {
		// Category names and preferences degrade; scoring still works.
		slog.WarnContext(r.Context(), "category listing failed", "error", err)
		return nil
	}
	byID := make(map[string]*category.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID
}

type assignRequest struct {
	TaskID  string `json:"taskId"`
	AgentID string `json:"agentId"`
}

type assignResponse struct {
	Success bool       `json:"success"`
	Task    *task.Task `json:"task"`
}

// HandleAssign is the write path: one atomic assignment plus audit event.
func (s *Server) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.TaskID == "" || req.AgentID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "taskId and agentId are required", nil)
		return
	}

	if err := s.agentExists(r, req.AgentID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	t, event, err := s.assigner.Assign(ctx, req.TaskID, req.AgentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.TypeTaskAssigned, t.ID, map[string]string{
		"agent":       req.AgentID,
		"from_status": event.FromStatus,
		"title":       t.Title,
	})

	cerr.SetJSONResponse(ctx, assignResponse{Success: true, Task: t})
}

func (s *Server) agentExists(r *http.Request, agentID string) error {
	agents, err := s.provider.Snapshot(r.Context())
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", err)
	}
	for _, agent := range agents {
		if agent.ID == agentID {
			return nil
		}
	}
	return cerr.NewError(cerr.NotFound, "agent not found", nil)
}
