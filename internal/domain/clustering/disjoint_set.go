package clustering

// DisjointSet is a weighted union-find over wallet indices.
//
//   - Find: path compression, amortized O(α(n))
//   - Union: union by rank
//
// Indices refer to positions in the analyzed wallet slice, so iteration
// order (and therefore output order) is deterministic.
type DisjointSet struct {
	parent []int
	rank   []int
	size   []int
}

// NewDisjointSet creates n singleton sets
func NewDisjointSet(n int) *DisjointSet {
	ds := &DisjointSet{
		parent: make([]int, n),
		rank:   make([]int, n),
		size:   make([]int, n),
	}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

// Find returns the root representative of the set containing i
func (ds *DisjointSet) Find(i int) int {
	root := i
	for ds.parent[root] != root {
		root = ds.parent[root]
	}
	// Path compression: point every node on the path directly at the root
	for ds.parent[i] != root {
		next := ds.parent[i]
		ds.parent[i] = root
		i = next
	}
	return root
}

// Union merges the sets containing a and b.
// Returns true if a merge actually occurred.
func (ds *DisjointSet) Union(a, b int) bool {
	rootA := ds.Find(a)
	rootB := ds.Find(b)
	if rootA == rootB {
		return false
	}

	switch {
	case ds.rank[rootA] < ds.rank[rootB]:
		ds.parent[rootA] = rootB
		ds.size[rootB] += ds.size[rootA]
	case ds.rank[rootA] > ds.rank[rootB]:
		ds.parent[rootB] = rootA
		ds.size[rootA] += ds.size[rootB]
	default:
		ds.parent[rootB] = rootA
		ds.size[rootA] += ds.size[rootB]
		ds.rank[rootA]++
	}
	return true
}

// SetSize returns the number of elements in the set containing i
func (ds *DisjointSet) SetSize(i int) int {
	return ds.size[ds.Find(i)]
}
