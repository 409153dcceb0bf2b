package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ichen27/openclaw-dashboard/internal/taskevent"
	"github.com/ichen27/openclaw-dashboard/pkg/cerr"
	"github.com/ichen27/openclaw-dashboard/pkg/storage"
)

const eventsPrefix = "task_events"

// YAMLRepository stores one file per event. Event ids are ULIDs, so the
// lexicographic listing order is also chronological order.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", eventsPrefix, id)
}

func (r *YAMLRepository) Append(ctx context.Context, e *taskevent.Event) error {
	exists, err := r.storage.Exists(ctx, path(e.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("task event", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "task event already exists", nil)
	}
	data, err := yaml.Marshal(e)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task event: %w", err))
	}
	if err := r.storage.Write(ctx, path(e.ID), data); err != nil {
		return cerr.WrapStorageWriteError("task event", err)
	}
	return nil
}

func (r *YAMLRepository) ListByTask(ctx context.Context, taskID string) ([]*taskevent.Event, error) {
	paths, err := r.storage.List(ctx, eventsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("task events", err)
	}

	sort.Strings(paths)

	var all []*taskevent.Event
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var e taskevent.Event
		if err := yaml.Unmarshal(data, &e); err != nil {
			continue
		}
		if e.TaskID != taskID {
			continue
		}
		all = append(all, &e)
	}
	return all, nil
}
