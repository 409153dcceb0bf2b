package dependency

import "context"

type Repository interface {
	// Add upserts the edge after verifying it creates no cycle. Re-adding
	// an existing edge returns it unchanged with created=false. Rejects
	// self-dependencies with InvalidArgument and cycles with Aborted; the
	// cycle check and the write happen under one lock.
	Add(ctx context.Context, taskID, blockedByID string) (edge *Edge, created bool, err error)
	// Remove deletes the edge; NotFound if it does not exist.
	Remove(ctx context.Context, taskID, blockedByID string) error
	ListAll(ctx context.Context) ([]*Edge, error)
	// ListForTask returns the ids blocking taskID and the ids taskID blocks.
	ListForTask(ctx context.Context, taskID string) (blockedBy []string, blocking []string, err error)
}
