package task

import (
	"context"

	"github.com/ichen27/openclaw-dashboard/internal/taskevent"
)

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	// List returns tasks filtered by status; an empty status returns all.
	List(ctx context.Context, status Status) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
}

// Assigner performs the auction write path: set the assigned agent, move the
// task to in-progress, and append exactly one audit event as a single unit.
// A partial write (task updated but no event, or the reverse) must not be
// observable.
type Assigner interface {
	Assign(ctx context.Context, taskID, agentID string) (*Task, *taskevent.Event, error)
}
