package clustering

import (
	"testing"

	"bundle-cluster-analyzer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketOf(t *testing.T) {
	tests := []struct {
		ts, window, want int64
	}{
		{ts: 0, window: 2, want: 0},
		{ts: 1, window: 2, want: 0},
		{ts: 2, window: 2, want: 1},
		{ts: 1000001, window: 2, want: 500000},
		{ts: -1, window: 2, want: -1},
		{ts: -2, window: 2, want: -1},
		{ts: -3, window: 2, want: -2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bucketOf(tt.ts, tt.window), "bucketOf(%d, %d)", tt.ts, tt.window)
	}
}

func TestTemporalCandidates_RequiresThreeDistinctWallets(t *testing.T) {
	wallets := []*entity.WalletActivity{
		// w1 buys twice in bucket 50 and must count once
		newWallet("w1", buyAt(100, 1), buyAt(101, 1)),
		newWallet("w2", buyAt(100, 1)),
		newWallet("w3", buyAt(500, 1)),
	}
	u := newUniverse(wallets)

	assert.Empty(t, temporalCandidates(u, 2, 3))
}

func TestTemporalCandidates_EmitsQualifyingBucketsInOrder(t *testing.T) {
	wallets := []*entity.WalletActivity{
		newWallet("w1", buyAt(901, 1), buyAt(100, 1)),
		newWallet("w2", buyAt(101, 1), buyAt(900, 1)),
		newWallet("w3", buyAt(100, 1)),
		newWallet("w4", buyAt(900, 1), buyAt(901, 1)),
		newWallet("w5", buyAt(102, 1)),
	}
	u := newUniverse(wallets)

	candidates := temporalCandidates(u, 2, 3)

	require.Len(t, candidates, 2)
	assert.Equal(t, [][]string{{"w1", "w2", "w3"}, {"w1", "w2", "w4"}}, memberSets(u, candidates))
	assert.Equal(t, "Temporal Cluster (50)", candidates[0].Label)
	assert.Equal(t, "Temporal Cluster (450)", candidates[1].Label)
	assert.Equal(t, TagTemporalMatch, candidates[0].Tags)
}

func TestTemporalCandidates_WiderWindowMergesBuckets(t *testing.T) {
	wallets := []*entity.WalletActivity{
		newWallet("w1", buyAt(0, 1)),
		newWallet("w2", buyAt(5, 1)),
		newWallet("w3", buyAt(9, 1)),
	}
	u := newUniverse(wallets)

	assert.Empty(t, temporalCandidates(u, 2, 3))

	candidates := temporalCandidates(u, 10, 3)
	require.Len(t, candidates, 1)
	assert.Len(t, candidates[0].Members, 3)
}
