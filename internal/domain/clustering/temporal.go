package clustering

import (
	"fmt"
	"sort"
)

// temporalCandidates buckets every buy by floor(timestamp / window) and emits one
// candidate per bucket holding at least minWallets distinct wallets.
// Buckets are emitted in ascending order.
func temporalCandidates(u *universe, window int64, minWallets int) []CandidateCluster {
	buckets := make(map[int64][]int)

	for i, w := range u.wallets {
		for _, buy := range w.Buys {
			b := bucketOf(buy.Timestamp, window)
			members := buckets[b]
			// wallets are visited in index order, so a repeat is always the last entry
			if n := len(members); n > 0 && members[n-1] == i {
				continue
			}
			buckets[b] = append(members, i)
		}
	}

	keys := make([]int64, 0, len(buckets))
	for b, members := range buckets {
		if len(members) >= minWallets {
			keys = append(keys, b)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	candidates := make([]CandidateCluster, 0, len(keys))
	for _, b := range keys {
		candidates = append(candidates, CandidateCluster{
			Label:   fmt.Sprintf("Temporal Cluster (%d)", b),
			Members: buckets[b],
			Tags:    TagTemporalMatch,
		})
	}
	return candidates
}

// bucketOf is floor division, also for negative timestamps
func bucketOf(ts, window int64) int64 {
	q := ts / window
	if ts%window != 0 && ts < 0 {
		q--
	}
	return q
}
