package dependency

import "time"

// Edge is one directed blocked-by dependency: TaskID cannot be considered
// unblocked until BlockedByID is done. Unique per ordered pair.
type Edge struct {
	TaskID      string    `yaml:"task_id" json:"taskId"`
	BlockedByID string    `yaml:"blocked_by_id" json:"blockedById"`
	CreatedAt   time.Time `yaml:"created_at" json:"createdAt"`
}
