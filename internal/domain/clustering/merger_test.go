package clustering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCandidates_UnionOfOverlappingMembers(t *testing.T) {
	candidates := []CandidateCluster{
		{Label: "Funding Cluster (F1)", Members: []int{0, 1, 2}, Tags: TagSharedFunding},
		{Label: "Network Cluster", Members: []int{2, 3}, Tags: TagInternalTransfers},
	}

	merged := mergeCandidates(5, candidates)

	require.Len(t, merged, 1)
	assert.Equal(t, []int{0, 1, 2, 3}, merged[0].Members, "each address appears exactly once")
	assert.Equal(t, TagSharedFunding|TagInternalTransfers, merged[0].Tags)
	assert.Equal(t, "Funding Cluster (F1)", merged[0].Label)
}

func TestMergeCandidates_TransitiveClosure(t *testing.T) {
	// A and C never overlap directly; B bridges them and comes last
	candidates := []CandidateCluster{
		{Label: "A", Members: []int{0, 1}, Tags: TagSharedFunding},
		{Label: "C", Members: []int{4, 5}, Tags: TagTemporalMatch},
		{Label: "D", Members: []int{7, 8}, Tags: TagTemporalMatch},
		{Label: "B", Members: []int{1, 4}, Tags: TagInternalTransfers},
	}

	merged := mergeCandidates(9, candidates)

	require.Len(t, merged, 2)
	assert.Equal(t, []int{0, 1, 4, 5}, merged[0].Members)
	assert.Equal(t, TagSharedFunding|TagTemporalMatch|TagInternalTransfers, merged[0].Tags)
	assert.Equal(t, "A", merged[0].Label)
	assert.Equal(t, []int{7, 8}, merged[1].Members)
	assert.Equal(t, "D", merged[1].Label)
}

func TestMergeCandidates_ResultIsPartition(t *testing.T) {
	candidates := []CandidateCluster{
		{Members: []int{0, 3}, Tags: TagSharedFunding},
		{Members: []int{1, 2, 9}, Tags: TagTemporalMatch},
		{Members: []int{3, 6}, Tags: TagTemporalMatch},
		{Members: []int{5, 8}, Tags: TagInternalTransfers},
		{Members: []int{6, 0}, Tags: TagInternalTransfers},
		{Members: []int{2, 4}, Tags: TagSharedFunding},
	}

	merged := mergeCandidates(10, candidates)

	seen := make(map[int]int)
	for gi, g := range merged {
		assert.GreaterOrEqual(t, len(g.Members), 2)
		for _, m := range g.Members {
			prev, dup := seen[m]
			assert.False(t, dup, "member %d in groups %d and %d", m, prev, gi)
			seen[m] = gi
		}
	}
	assert.Len(t, seen, 9, "every candidate member is covered; index 7 was never a candidate")
	require.Len(t, merged, 3)
	assert.Equal(t, []int{0, 3, 6}, merged[0].Members)
	assert.Equal(t, []int{1, 2, 4, 9}, merged[1].Members)
	assert.Equal(t, []int{5, 8}, merged[2].Members)
}

func TestMergeCandidates_Empty(t *testing.T) {
	assert.Empty(t, mergeCandidates(3, nil))
}
