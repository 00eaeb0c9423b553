package clustering

import (
	"sort"
)

// TransferGraph is the undirected wallet graph implied by direct token transfers.
// Only wallets inside the analyzed universe become vertices; transfers to or from
// outside addresses contribute no edge.
type TransferGraph struct {
	adj [][]int
}

func buildTransferGraph(u *universe) *TransferGraph {
	n := u.size()
	sets := make([]map[int]struct{}, n)
	addEdge := func(a, b int) {
		if a == b {
			return
		}
		if sets[a] == nil {
			sets[a] = make(map[int]struct{})
		}
		if sets[b] == nil {
			sets[b] = make(map[int]struct{})
		}
		sets[a][b] = struct{}{}
		sets[b][a] = struct{}{}
	}

	for i, w := range u.wallets {
		for _, t := range w.OutgoingTransfers {
			if j, ok := u.index[t.Counterparty]; ok {
				addEdge(i, j)
			}
		}
		for _, t := range w.IncomingTransfers {
			if j, ok := u.index[t.Counterparty]; ok {
				addEdge(i, j)
			}
		}
	}

	g := &TransferGraph{adj: make([][]int, n)}
	for i, set := range sets {
		if len(set) == 0 {
			continue
		}
		neighbors := make([]int, 0, len(set))
		for j := range set {
			neighbors = append(neighbors, j)
		}
		sort.Ints(neighbors)
		g.adj[i] = neighbors
	}
	return g
}

// Neighbors returns the sorted neighbor indices of wallet i
func (g *TransferGraph) Neighbors(i int) []int {
	return g.adj[i]
}

// transferCandidates computes connected components by breadth-first search,
// starting from every unvisited wallet that sent at least one transfer.
// The visited set is global, so components never overlap.
func transferCandidates(u *universe, g *TransferGraph) []CandidateCluster {
	visited := make([]bool, u.size())
	var candidates []CandidateCluster

	for start, w := range u.wallets {
		if visited[start] || !w.HasOutgoingTransfers() {
			continue
		}

		visited[start] = true
		queue := []int{start}
		var component []int
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			component = append(component, current)

			for _, next := range g.Neighbors(current) {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}

		if len(component) < 2 {
			continue
		}
		sort.Ints(component)
		candidates = append(candidates, CandidateCluster{
			Label:   "Network Cluster",
			Members: component,
			Tags:    TagInternalTransfers,
		})
	}
	return candidates
}
