package auction

import (
	"testing"
	"time"

	"github.com/ichen27/openclaw-dashboard/internal/agentstate"
	"github.com/ichen27/openclaw-dashboard/internal/category"
	"github.com/ichen27/openclaw-dashboard/internal/task"
)

func TestUrgencyScore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		priority task.Priority
		age      time.Duration
		want     float64
	}{
		{"urgent fresh", task.PriorityUrgent, 0, 15},
		{"high fresh", task.PriorityHigh, 0, 10},
		{"medium fresh", task.PriorityMedium, 0, 5},
		{"low fresh", task.PriorityLow, 0, 2},
		{"unknown priority falls back to low", task.Priority("bogus"), 0, 2},
		{"half week adds half the bonus", task.PriorityMedium, 3*24*time.Hour + 12*time.Hour, 6.5},
		{"one week saturates", task.PriorityLow, 7 * 24 * time.Hour, 5},
		{"high after eight days", task.PriorityHigh, 8 * 24 * time.Hour, 13},
		{"beyond a week stays capped", task.PriorityLow, 30 * 24 * time.Hour, 5},
		{"future created-at clamps to zero age", task.PriorityHigh, -time.Hour, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := &task.Task{Priority: tt.priority, CreatedAt: now.Add(-tt.age)}
			got := UrgencyScore(tk, now)
			if got != tt.want {
				t.Errorf("UrgencyScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreBid_AffinityStacking(t *testing.T) {
	tk := &task.Task{
		ID:          "T1",
		Title:       "Fix login timeout",
		Description: "Session cookie expires too early",
		CategoryID:  "CAT-AUTH",
	}
	cat := &category.Category{ID: "CAT-AUTH", Name: "Auth", PreferredAgents: []string{"alice"}}
	agent := &agentstate.Agent{
		ID:       "alice",
		Status:   agentstate.StatusIdle,
		Keywords: []string{"login", "payments"},
	}

	bid := ScoreBid(tk, cat, agent, 0, 3)

	// category 4 + keyword 3 + idle 5
	if bid.Score != 12 {
		t.Errorf("Score = %v, want 12", bid.Score)
	}
	if !bid.Available {
		t.Error("expected agent to be available")
	}
	wantReasons := []string{"category affinity: Auth", "keyword match: login", "idle and available"}
	if len(bid.Reasons) != len(wantReasons) {
		t.Fatalf("Reasons = %v, want %v", bid.Reasons, wantReasons)
	}
	for i, want := range wantReasons {
		if bid.Reasons[i] != want {
			t.Errorf("Reasons[%d] = %q, want %q", i, bid.Reasons[i], want)
		}
	}
}

func TestScoreBid_MultipleKeywords(t *testing.T) {
	tk := &task.Task{
		Title:       "Refactor billing export",
		Description: "The invoice CSV export times out",
	}
	agent := &agentstate.Agent{
		ID:       "bob",
		Status:   agentstate.StatusActive,
		Keywords: []string{"billing", "invoice", "kubernetes"},
	}

	bid := ScoreBid(tk, nil, agent, 0, 3)

	// keyword 3 + keyword 3 - active 3
	if bid.Score != 3 {
		t.Errorf("Score = %v, want 3", bid.Score)
	}
}

func TestScoreBid_BaselineWithIdleBonus(t *testing.T) {
	tk := &task.Task{Title: "Write release notes"}
	agent := &agentstate.Agent{ID: "carol", Status: agentstate.StatusNever}

	bid := ScoreBid(tk, nil, agent, 0, 3)

	// baseline 1 + idle 5; never-active agents get the same bonus as idle.
	if bid.Score != 6 {
		t.Errorf("Score = %v, want 6", bid.Score)
	}
	if bid.Reasons[0] != "baseline candidate" {
		t.Errorf("Reasons[0] = %q, want baseline candidate", bid.Reasons[0])
	}
}

func TestScoreBid_BaselineNotAddedWithAffinity(t *testing.T) {
	tk := &task.Task{Title: "Tune database indexes"}
	agent := &agentstate.Agent{
		ID:       "dave",
		Status:   agentstate.StatusIdle,
		Keywords: []string{"database"},
	}

	bid := ScoreBid(tk, nil, agent, 0, 3)

	// keyword 3 + idle 5, no baseline on top
	if bid.Score != 8 {
		t.Errorf("Score = %v, want 8", bid.Score)
	}
	for _, reason := range bid.Reasons {
		if reason == "baseline candidate" {
			t.Error("baseline reason present despite keyword affinity")
		}
	}
}

func TestScoreBid_CaseInsensitiveKeywords(t *testing.T) {
	tk := &task.Task{Title: "URGENT: fix OAuth Redirect"}
	agent := &agentstate.Agent{
		ID:       "erin",
		Status:   agentstate.StatusIdle,
		Keywords: []string{"oauth"},
	}

	bid := ScoreBid(tk, nil, agent, 0, 3)
	if bid.Score != 8 {
		t.Errorf("Score = %v, want 8 (keyword should match case-insensitively)", bid.Score)
	}
}

func TestScoreBid_CategoryViaAgentConfig(t *testing.T) {
	// The agent declares the category itself; no category document needed.
	tk := &task.Task{Title: "Rotate keys", CategoryID: "CAT-SEC"}
	agent := &agentstate.Agent{
		ID:         "frank",
		Status:     agentstate.StatusIdle,
		Categories: []string{"CAT-SEC"},
	}

	bid := ScoreBid(tk, nil, agent, 0, 3)
	if bid.Score != 9 {
		t.Errorf("Score = %v, want 9", bid.Score)
	}
	if bid.Reasons[0] != "category affinity: CAT-SEC" {
		t.Errorf("Reasons[0] = %q, want category id fallback", bid.Reasons[0])
	}
}

func TestScoreBid_Availability(t *testing.T) {
	tk := &task.Task{Title: "Anything"}

	tests := []struct {
		name           string
		activeSessions int
		inFlight       int
		cap            int
		want           bool
	}{
		{"fresh agent", 0, 0, 3, true},
		{"at session cap", 3, 0, 3, false},
		{"at in-flight cap", 0, 3, 3, false},
		{"both below cap", 2, 2, 3, true},
		{"cap of one", 0, 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &agentstate.Agent{
				ID:             "g",
				Status:         agentstate.StatusActive,
				ActiveSessions: tt.activeSessions,
			}
			bid := ScoreBid(tk, nil, agent, tt.inFlight, tt.cap)
			if bid.Available != tt.want {
				t.Errorf("Available = %v, want %v", bid.Available, tt.want)
			}
		})
	}
}

func TestBuildBids_OrderingAndSuggestion(t *testing.T) {
	tk := &task.Task{Title: "Ship the deploy pipeline", CategoryID: "CAT-INFRA"}
	cat := &category.Category{ID: "CAT-INFRA", Name: "Infra", PreferredAgents: []string{"alice"}}
	agents := []*agentstate.Agent{
		{ID: "alice", Status: agentstate.StatusActive, ActiveSessions: 3},
		{ID: "bob", Status: agentstate.StatusIdle, Keywords: []string{"deploy"}},
		{ID: "carol", Status: agentstate.StatusNever},
	}

	bids, suggested := BuildBids(tk, cat, agents, nil, 3)

	// bob scores 8 (keyword 3 + idle 5), alice 1 (category 4 - active 3),
	// carol 6 (baseline 1 + idle 5).
	if bids[0].AgentID != "bob" {
		t.Errorf("bids[0] = %s, want bob", bids[0].AgentID)
	}
	if suggested != "bob" {
		t.Errorf("suggested = %q, want bob", suggested)
	}
	// alice scores 1 but her 3 active sessions keep her unavailable.
	for _, bid := range bids {
		if bid.AgentID == "alice" && bid.Available {
			t.Error("alice should be unavailable at the session cap")
		}
	}
}

func TestBuildBids_TieBreaksOnAgentID(t *testing.T) {
	tk := &task.Task{Title: "Plain chore"}
	agents := []*agentstate.Agent{
		{ID: "zoe", Status: agentstate.StatusIdle},
		{ID: "amy", Status: agentstate.StatusIdle},
	}

	bids, suggested := BuildBids(tk, nil, agents, nil, 3)

	if bids[0].AgentID != "amy" || bids[1].AgentID != "zoe" {
		t.Errorf("tie not broken by agent id: %s, %s", bids[0].AgentID, bids[1].AgentID)
	}
	if suggested != "amy" {
		t.Errorf("suggested = %q, want amy", suggested)
	}
}

func TestBuildBids_NoAvailableAgent(t *testing.T) {
	tk := &task.Task{Title: "Plain chore"}
	agents := []*agentstate.Agent{
		{ID: "a", Status: agentstate.StatusActive, ActiveSessions: 5},
		{ID: "b", Status: agentstate.StatusActive, ActiveSessions: 5},
	}

	bids, suggested := BuildBids(tk, nil, agents, nil, 3)

	if suggested != "" {
		t.Errorf("suggested = %q, want empty when every agent is saturated", suggested)
	}
	if len(bids) != 2 {
		t.Errorf("len(bids) = %d, want 2 (saturated agents keep their bids)", len(bids))
	}
}

func TestBuildBids_InFlightExcludesFromSuggestion(t *testing.T) {
	tk := &task.Task{Title: "Plain chore"}
	agents := []*agentstate.Agent{
		{ID: "a", Status: agentstate.StatusIdle},
		{ID: "b", Status: agentstate.StatusIdle},
	}
	inFlight := map[string]int{"a": 3}

	_, suggested := BuildBids(tk, nil, agents, inFlight, 3)

	if suggested != "b" {
		t.Errorf("suggested = %q, want b (a is at the in-flight cap)", suggested)
	}
}
