package clustering

// mergeCandidates unifies candidates that share any member into a disjoint partition.
//
// Every candidate seeds the disjoint set by unioning all of its members, which yields
// the transitive closure of co-membership: if A overlaps B and B overlaps C, the
// final group holds A∪B∪C even when A and C never overlap directly.
//
// Groups are ordered by the earliest candidate that touched them and inherit that
// candidate's label. Members are ordered by wallet index; tags are the union of all
// contributing candidates.
func mergeCandidates(n int, candidates []CandidateCluster) []CandidateCluster {
	ds := NewDisjointSet(n)
	touched := make([]bool, n)

	for _, c := range candidates {
		if len(c.Members) == 0 {
			continue
		}
		first := c.Members[0]
		touched[first] = true
		for _, m := range c.Members[1:] {
			touched[m] = true
			ds.Union(first, m)
		}
	}

	var (
		order  []int
		byRoot = make(map[int]*CandidateCluster)
	)
	for _, c := range candidates {
		if len(c.Members) == 0 {
			continue
		}
		root := ds.Find(c.Members[0])
		group, ok := byRoot[root]
		if !ok {
			group = &CandidateCluster{Label: c.Label}
			byRoot[root] = group
			order = append(order, root)
		}
		group.Tags |= c.Tags
	}

	for i := 0; i < n; i++ {
		if !touched[i] {
			continue
		}
		group := byRoot[ds.Find(i)]
		group.Members = append(group.Members, i)
	}

	merged := make([]CandidateCluster, 0, len(order))
	for _, root := range order {
		merged = append(merged, *byRoot[root])
	}
	return merged
}
