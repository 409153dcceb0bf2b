package auction

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ichen27/openclaw-dashboard/internal/agentstate"
	"github.com/ichen27/openclaw-dashboard/internal/category"
	"github.com/ichen27/openclaw-dashboard/internal/task"
)

// Scoring weights. The age bonus saturates after a week so starvation aging
// has a bounded effect on ordering.
const (
	weightUrgent = 15.0
	weightHigh   = 10.0
	weightMedium = 5.0
	weightLow    = 2.0

	ageBonusCap   = 3.0
	ageSaturation = 7 * 24 * time.Hour

	categoryAffinityPoints = 4.0
	keywordAffinityPoints  = 3.0
	baselineScore          = 1.0
	idleBonus              = 5.0
	busyPenalty            = 3.0
)

// Bid is the scored, explained candidacy of one agent for one task. Never
// persisted; computed fresh per auction query.
type Bid struct {
	AgentID   string   `json:"agentId"`
	Score     float64  `json:"score"`
	Reasons   []string `json:"reasons"`
	Available bool     `json:"available"`
}

func priorityWeight(p task.Priority) float64 {
	switch p {
	case task.PriorityUrgent:
		return weightUrgent
	case task.PriorityHigh:
		return weightHigh
	case task.PriorityMedium:
		return weightMedium
	case task.PriorityLow:
		return weightLow
	default:
		return weightLow
	}
}

// UrgencyScore ranks a backlog task: priority weight plus an age bonus that
// grows linearly up to ageBonusCap over one week.
func UrgencyScore(t *task.Task, now time.Time) float64 {
	ageDays := now.Sub(t.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	bonus := math.Min(ageDays/(ageSaturation.Hours()/24), 1) * ageBonusCap
	return priorityWeight(t.Priority) + bonus
}

// ScoreBid computes one agent's bid on one task. Availability is a hard
// constraint distinct from the score: a saturated agent keeps its rank in the
// bid list but is never suggested.
func ScoreBid(t *task.Task, cat *category.Category, agent *agentstate.Agent, inFlight, availabilityCap int) Bid {
	var (
		score   float64
		reasons []string
	)

	if matchesCategory(t, cat, agent) {
		score += categoryAffinityPoints
		name := t.CategoryID
		if cat != nil {
			name = cat.Name
		}
		reasons = append(reasons, fmt.Sprintf("category affinity: %s", name))
	}

	haystack := strings.ToLower(t.Title + " " + t.Description)
	for _, kw := range agent.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			score += keywordAffinityPoints
			reasons = append(reasons, fmt.Sprintf("keyword match: %s", kw))
		}
	}

	if score == 0 {
		// Every agent stays a theoretically biddable candidate.
		score = baselineScore
		reasons = append(reasons, "baseline candidate")
	}

	switch agent.Status {
	case agentstate.StatusActive:
		score -= busyPenalty
		reasons = append(reasons, "currently active")
	case agentstate.StatusIdle, agentstate.StatusNever:
		score += idleBonus
		reasons = append(reasons, "idle and available")
	}

	return Bid{
		AgentID:   agent.ID,
		Score:     score,
		Reasons:   dedupe(reasons),
		Available: agent.ActiveSessions < availabilityCap && inFlight < availabilityCap,
	}
}

func matchesCategory(t *task.Task, cat *category.Category, agent *agentstate.Agent) bool {
	if t.CategoryID == "" {
		return false
	}
	if cat != nil && cat.Prefers(agent.ID) {
		return true
	}
	for _, id := range agent.Categories {
		if id == t.CategoryID {
			return true
		}
	}
	return false
}

// BuildBids ranks every agent's bid on the task (score descending, agent id
// ascending on ties) and returns the suggested agent: the highest-ranked bid
// whose availability constraint holds, or empty when none qualifies.
func BuildBids(t *task.Task, cat *category.Category, agents []*agentstate.Agent, inFlight map[string]int, availabilityCap int) ([]Bid, string) {
	bids := make([]Bid, 0, len(agents))
	for _, agent := range agents {
		bids = append(bids, ScoreBid(t, cat, agent, inFlight[agent.ID], availabilityCap))
	}
	sort.SliceStable(bids, func(i, j int) bool {
		if bids[i].Score != bids[j].Score {
			return bids[i].Score > bids[j].Score
		}
		return bids[i].AgentID < bids[j].AgentID
	})

	for _, bid := range bids {
		if bid.Available {
			return bids, bid.AgentID
		}
	}
	return bids, ""
}

func dedupe(reasons []string) []string {
	seen := make(map[string]struct{}, len(reasons))
	out := reasons[:0]
	for _, reason := range reasons {
		if _, ok := seen[reason]; ok {
			continue
		}
		seen[reason] = struct{}{}
		out = append(out, reason)
	}
	return out
}
