package category

import "time"

type Category struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	// PreferredAgents lists agent ids with a configured affinity for tasks
	// in this category; they receive bonus points during bid scoring.
	PreferredAgents []string  `yaml:"preferred_agents" json:"preferredAgents"`
	CreatedAt       time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `yaml:"updated_at" json:"updatedAt"`
}

// Prefers reports whether agentID is configured as preferred for this category.
func (c *Category) Prefers(agentID string) bool {
	for _, id := range c.PreferredAgents {
		if id == agentID {
			return true
		}
	}
	return false
}
