package repositoryimpl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ichen27/openclaw-dashboard/internal/task"
	"github.com/ichen27/openclaw-dashboard/internal/taskevent"
	"github.com/ichen27/openclaw-dashboard/pkg/cerr"
)

// Assigner implements task.Assigner. Concurrent assignments are serialized
// by the mutex; the last committed write wins for status and assigned agent.
// The task update is written first and rolled back to its previous content
// if the event append fails, so task state and audit log never diverge.
type Assigner struct {
	mu        sync.Mutex
	taskRepo  task.Repository
	eventRepo taskevent.Repository
	now       func() time.Time
}

func NewAssigner(taskRepo task.Repository, eventRepo taskevent.Repository) *Assigner {
	return &Assigner{
		taskRepo:  taskRepo,
		eventRepo: eventRepo,
		now:       time.Now,
	}
}

func (a *Assigner) Assign(ctx context.Context, taskID, agentID string) (*task.Task, *taskevent.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, err := a.taskRepo.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	prev := *t
	now := a.now()
	t.Status = task.StatusInProgress
	t.AssignedAgent = agentID
	t.UpdatedAt = now

	if err := a.taskRepo.Update(ctx, t); err != nil {
		return nil, nil, err
	}

	event := &taskevent.Event{
		ID:         ulid.Make().String(),
		TaskID:     t.ID,
		FromStatus: string(prev.Status),
		ToStatus:   string(task.StatusInProgress),
		Agent:      agentID,
		CreatedAt:  now,
	}
	if err := a.eventRepo.Append(ctx, event); err != nil {
		if rbErr := a.taskRepo.Update(ctx, &prev); rbErr != nil {
			slog.Error("failed to roll back task after event append failure",
				"task_id", t.ID, "error", rbErr)
			return nil, nil, cerr.NewError(cerr.DataLoss, "assignment partially applied", err)
		}
		return nil, nil, err
	}

	return t, event, nil
}
