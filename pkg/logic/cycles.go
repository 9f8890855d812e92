package logic

// FindCircularDependencies enumerates cycles by depth-first traversal from
// every unvisited node, following connections in source→target direction.
// A node already on the current recursion stack signals a cycle, reported
// as the path slice from its first occurrence onward. Disjoint cycles are
// each reported; a node on several overlapping cycles is not deduplicated.
// Seeds and neighbors iterate in sorted id order so output is reproducible.
func FindCircularDependencies(g *Graph) [][]string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, conn := range g.OutgoingConnections(id) {
			next := conn.TargetNode
			if onStack[next] {
				// Slice the path from the first occurrence of next.
				for i, p := range path {
					if p == next {
						cycle := make([]string, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}

		path = path[:len(path)-1]
		onStack[id] = false
	}

	for _, id := range g.sortedNodeIDs() {
		if !visited[id] {
			visit(id)
		}
	}
	return cycles
}
