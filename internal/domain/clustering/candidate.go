package clustering

import (
	"bundle-cluster-analyzer/internal/domain/entity"
)

// TagSet is a bit set of heuristic origin tags
type TagSet uint8

const (
	TagSharedFunding TagSet = 1 << iota
	TagTemporalMatch
	TagInternalTransfers
	TagSyncSell
)

// orderedTags fixes the reporting order of risk factors
var orderedTags = []struct {
	tag    TagSet
	factor entity.RiskFactor
	weight int
}{
	{TagSharedFunding, entity.RiskFactorSharedFunding, WeightSharedFunding},
	{TagTemporalMatch, entity.RiskFactorTemporalMatch, WeightTemporalMatch},
	{TagInternalTransfers, entity.RiskFactorInternalTransfers, WeightInternalTransfers},
	{TagSyncSell, entity.RiskFactorSyncSell, WeightSyncSell},
}

// Has reports whether every tag in other is present
func (t TagSet) Has(other TagSet) bool {
	return t&other == other
}

// Factors returns the risk factor labels of the set in reporting order
func (t TagSet) Factors() []entity.RiskFactor {
	factors := make([]entity.RiskFactor, 0, len(orderedTags))
	for _, ot := range orderedTags {
		if t.Has(ot.tag) {
			factors = append(factors, ot.factor)
		}
	}
	return factors
}

// Weight returns the summed heuristic weight of the set, before clamping
func (t TagSet) Weight() int {
	total := 0
	for _, ot := range orderedTags {
		if t.Has(ot.tag) {
			total += ot.weight
		}
	}
	return total
}

// CandidateCluster is a non-final grouping produced by one heuristic, or by merging several.
// Members are wallet indices into the analyzed universe, ascending and unique.
type CandidateCluster struct {
	Label   string
	Members []int
	Tags    TagSet
}

// universe indexes the analyzed wallets by address.
// Indices follow input order; the first occurrence of an address wins.
type universe struct {
	wallets []*entity.WalletActivity
	index   map[string]int
}

func newUniverse(wallets []*entity.WalletActivity) *universe {
	u := &universe{
		wallets: make([]*entity.WalletActivity, 0, len(wallets)),
		index:   make(map[string]int, len(wallets)),
	}
	for _, w := range wallets {
		if w == nil {
			continue
		}
		if _, exists := u.index[w.Address]; exists {
			continue
		}
		u.index[w.Address] = len(u.wallets)
		u.wallets = append(u.wallets, w)
	}
	return u
}

func (u *universe) size() int {
	return len(u.wallets)
}

func (u *universe) addresses(members []int) []string {
	addrs := make([]string, len(members))
	for i, m := range members {
		addrs[i] = u.wallets[m].Address
	}
	return addrs
}

// shortAddress returns the first four characters of an address for labels
func shortAddress(addr string) string {
	if len(addr) <= 4 {
		return addr
	}
	return addr[:4]
}
