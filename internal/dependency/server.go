package dependency

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ichen27/openclaw-dashboard/internal/category"
	"github.com/ichen27/openclaw-dashboard/internal/eventbus"
	"github.com/ichen27/openclaw-dashboard/internal/task"
	"github.com/ichen27/openclaw-dashboard/pkg/cerr"
)

type Server struct {
	repo         Repository
	taskRepo     task.Repository
	categoryRepo category.Repository
	eventBus     *eventbus.Bus
}

func NewServer(repo Repository, taskRepo task.Repository, categoryRepo category.Repository, eventBus *eventbus.Bus) *Server {
	return &Server{
		repo:         repo,
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		eventBus:     eventBus,
	}
}

// TaskRef is the task detail returned in adjacency listings: enough to render
// a dependency chip without a second lookup.
type TaskRef struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Status       task.Status `json:"status"`
	CategoryID   string      `json:"categoryId"`
	CategoryName string      `json:"categoryName,omitempty"`
}

type queryResponse struct {
	BlockedBy []TaskRef `json:"blockedBy"`
	Blocking  []TaskRef `json:"blocking"`
}

type addRequest struct {
	BlockedByID string `json:"blockedById"`
}

type addResponse struct {
	Success    bool  `json:"success"`
	Dependency *Edge `json:"dependency"`
}

type removeResponse struct {
	Success bool `json:"success"`
}

func (s *Server) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID := chi.URLParam(r, "taskID")

	if _, err := s.taskRepo.Get(ctx, taskID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	blockedByIDs, blockingIDs, err := s.repo.ListForTask(ctx, taskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	resp := queryResponse{
		BlockedBy: s.resolveRefs(r, blockedByIDs),
		Blocking:  s.resolveRefs(r, blockingIDs),
	}
	cerr.SetJSONResponse(ctx, resp)
}

// resolveRefs loads task details for the given ids. Edges pointing at tasks
// that were deleted since the edge was written are skipped.
func (s *Server) resolveRefs(r *http.Request, ids []string) []TaskRef {
	ctx := r.Context()
	refs := make([]TaskRef, 0, len(ids))
	for _, id := range ids {
		t, err := s.taskRepo.Get(ctx, id)
		if err != nil {
			continue
		}
		ref := TaskRef{
			ID:         t.ID,
			Title:      t.Title,
			Status:     t.Status,
			CategoryID: t.CategoryID,
		}
		if t.CategoryID != "" {
			if c, err := s.categoryRepo.Get(ctx, t.CategoryID); err == nil {
				ref.CategoryName = c.Name
			}
		}
		refs = append(refs, ref)
	}
	return refs
}

func (s *Server) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID := chi.URLParam(r, "taskID")

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.BlockedByID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "blockedById is required", nil)
		return
	}
	if req.BlockedByID == taskID {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "task cannot depend on itself", nil)
		return
	}

	if _, err := s.taskRepo.Get(ctx, taskID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if _, err := s.taskRepo.Get(ctx, req.BlockedByID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	edge, created, err := s.repo.Add(ctx, taskID, req.BlockedByID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if created {
		s.eventBus.PublishNew(eventbus.TypeDependencyAdded, taskID, map[string]string{
			"blocked_by_id": req.BlockedByID,
		})
	}

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, addResponse{
		Success:    true,
		Dependency: edge,
	})
}

func (s *Server) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID := chi.URLParam(r, "taskID")
	blockedByID := r.URL.Query().Get("blockedById")

	if blockedByID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "blockedById is required", nil)
		return
	}

	if err := s.repo.Remove(ctx, taskID, blockedByID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.eventBus.PublishNew(eventbus.TypeDependencyRemoved, taskID, map[string]string{
		"blocked_by_id": blockedByID,
	})

	cerr.SetJSONResponse(ctx, removeResponse{Success: true})
}
