package dependency

import (
	"testing"
)

func edge(taskID, blockedByID string) *Edge {
	return &Edge{TaskID: taskID, BlockedByID: blockedByID}
}

func TestReachable(t *testing.T) {
	// A is blocked by B, B is blocked by C.
	edges := []*Edge{edge("A", "B"), edge("B", "C")}

	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"direct", "A", "B", true},
		{"transitive", "A", "C", true},
		{"reverse direction", "C", "A", false},
		{"self", "A", "A", true},
		{"unknown node", "X", "A", false},
		{"unrelated", "B", "A", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reachable(edges, tt.from, tt.to); got != tt.want {
				t.Errorf("Reachable(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestWouldCreateCycle(t *testing.T) {
	edges := []*Edge{edge("A", "B"), edge("B", "C")}

	tests := []struct {
		name        string
		taskID      string
		blockedByID string
		want        bool
	}{
		{"direct back edge", "B", "A", true},
		{"transitive back edge", "C", "A", true},
		{"forward edge is fine", "A", "C", false},
		{"new isolated edge", "X", "Y", false},
		{"joins the chain safely", "C", "D", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WouldCreateCycle(edges, tt.taskID, tt.blockedByID); got != tt.want {
				t.Errorf("WouldCreateCycle(%s, %s) = %v, want %v", tt.taskID, tt.blockedByID, got, tt.want)
			}
		})
	}
}

func TestWouldCreateCycle_Diamond(t *testing.T) {
	// Diamond: D blocked by B and C, both blocked by A. No cycle anywhere.
	edges := []*Edge{edge("D", "B"), edge("D", "C"), edge("B", "A"), edge("C", "A")}

	if WouldCreateCycle(edges, "D", "A") {
		t.Error("redundant diamond edge flagged as a cycle")
	}
	if !WouldCreateCycle(edges, "A", "D") {
		t.Error("closing the diamond should be a cycle")
	}
}
