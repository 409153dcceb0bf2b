package task

import "time"

type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Task struct {
	ID            string     `yaml:"id" json:"id"`
	Title         string     `yaml:"title" json:"title"`
	Description   string     `yaml:"description" json:"description"`
	Status        Status     `yaml:"status" json:"status"`
	Priority      Priority   `yaml:"priority" json:"priority"`
	CategoryID    string     `yaml:"category_id" json:"categoryId"`
	AssignedAgent string     `yaml:"assigned_agent,omitempty" json:"assignedAgent,omitempty"`
	Order         int        `yaml:"order" json:"order"`
	DueDate       *time.Time `yaml:"due_date,omitempty" json:"dueDate,omitempty"`
	CreatedAt     time.Time  `yaml:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `yaml:"updated_at" json:"updatedAt"`
}
