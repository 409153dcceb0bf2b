package taskevent

import "context"

// Repository is append-only: events are never updated or deleted here.
type Repository interface {
	Append(ctx context.Context, e *Event) error
	ListByTask(ctx context.Context, taskID string) ([]*Event, error)
}
