package dependency

// Reachable reports whether `to` can be reached from `from` by following
// blocked-by edges (task -> its blockers, transitively). Iterative DFS; safe
// on arbitrary edge sets.
func Reachable(edges []*Edge, from, to string) bool {
	if from == to {
		return true
	}
	adj := make(map[string][]string, len(edges))
	for _, e := range edges {
		adj[e.TaskID] = append(adj[e.TaskID], e.BlockedByID)
	}

	visited := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[node] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// WouldCreateCycle reports whether adding the edge (taskID blocked-by
// blockedByID) would close a cycle: it does exactly when blockedByID already
// depends, directly or transitively, on taskID.
func WouldCreateCycle(edges []*Edge, taskID, blockedByID string) bool {
	return Reachable(edges, blockedByID, taskID)
}
