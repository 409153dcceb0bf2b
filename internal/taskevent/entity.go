package taskevent

import "time"

// Event is one immutable audit record of a task status transition. FromStatus
// is empty for the transition that created the task.
type Event struct {
	ID         string    `yaml:"id" json:"id"`
	TaskID     string    `yaml:"task_id" json:"taskId"`
	FromStatus string    `yaml:"from_status,omitempty" json:"fromStatus,omitempty"`
	ToStatus   string    `yaml:"to_status" json:"toStatus"`
	Agent      string    `yaml:"agent,omitempty" json:"agent,omitempty"`
	CreatedAt  time.Time `yaml:"created_at" json:"createdAt"`
}
