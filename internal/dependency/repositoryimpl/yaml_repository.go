package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ichen27/openclaw-dashboard/internal/dependency"
	"github.com/ichen27/openclaw-dashboard/pkg/cerr"
	"github.com/ichen27/openclaw-dashboard/pkg/storage"
)

const edgesPath = "dependencies/edges.yaml"

// YAMLRepository keeps the whole edge set in a single document so the cycle
// check and the subsequent upsert run under one mutex. Two concurrent inserts
// that are individually acyclic can therefore never jointly create a cycle.
type YAMLRepository struct {
	mu      sync.Mutex
	storage storage.Storage
	now     func() time.Time
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s, now: time.Now}
}

type edgeDoc struct {
	Edges []*dependency.Edge `yaml:"edges"`
}

func (r *YAMLRepository) load(ctx context.Context) ([]*dependency.Edge, error) {
	data, err := r.storage.Read(ctx, edgesPath)
	if err != nil {
		// No document yet means an empty graph.
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, cerr.WrapStorageReadError("dependencies", err)
	}
	var doc edgeDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal dependencies: %w", err))
	}
	return doc.Edges, nil
}

func (r *YAMLRepository) store(ctx context.Context, edges []*dependency.Edge) error {
	data, err := yaml.Marshal(edgeDoc{Edges: edges})
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal dependencies: %w", err))
	}
	if err := r.storage.Write(ctx, edgesPath, data); err != nil {
		return cerr.WrapStorageWriteError("dependencies", err)
	}
	return nil
}

func (r *YAMLRepository) Add(ctx context.Context, taskID, blockedByID string) (*dependency.Edge, bool, error) {
	if taskID == blockedByID {
		return nil, false, cerr.NewError(cerr.InvalidArgument, "task cannot depend on itself", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	edges, err := r.load(ctx)
	if err != nil {
		return nil, false, err
	}

	for _, e := range edges {
		if e.TaskID == taskID && e.BlockedByID == blockedByID {
			return e, false, nil
		}
	}

	if dependency.WouldCreateCycle(edges, taskID, blockedByID) {
		return nil, false, cerr.NewError(cerr.Aborted, "dependency would create a cycle", nil)
	}

	edge := &dependency.Edge{
		TaskID:      taskID,
		BlockedByID: blockedByID,
		CreatedAt:   r.now(),
	}
	if err := r.store(ctx, append(edges, edge)); err != nil {
		return nil, false, err
	}
	return edge, true, nil
}

func (r *YAMLRepository) Remove(ctx context.Context, taskID, blockedByID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	edges, err := r.load(ctx)
	if err != nil {
		return err
	}

	kept := edges[:0]
	found := false
	for _, e := range edges {
		if e.TaskID == taskID && e.BlockedByID == blockedByID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return cerr.NewError(cerr.NotFound, "dependency not found", nil)
	}
	return r.store(ctx, kept)
}

func (r *YAMLRepository) ListAll(ctx context.Context) ([]*dependency.Edge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *YAMLRepository) ListForTask(ctx context.Context, taskID string) ([]string, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	edges, err := r.load(ctx)
	if err != nil {
		return nil, nil, err
	}

	var blockedBy, blocking []string
	for _, e := range edges {
		if e.TaskID == taskID {
			blockedBy = append(blockedBy, e.BlockedByID)
		}
		if e.BlockedByID == taskID {
			blocking = append(blocking, e.TaskID)
		}
	}
	return blockedBy, blocking, nil
}
