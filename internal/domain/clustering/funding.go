package clustering

import (
	"fmt"
)

// fundingCandidates groups wallets by identical non-exchange funder.
// Funders are visited in first-seen order; groups of fewer than two wallets are dropped.
func fundingCandidates(u *universe, g *TransferGraph, mode FundingMode) []CandidateCluster {
	var funders []string
	groups := make(map[string][]int)

	for i, w := range u.wallets {
		if !w.FundedByNonExchange() {
			continue
		}
		funder := w.FundingSource.Address
		if _, seen := groups[funder]; !seen {
			funders = append(funders, funder)
		}
		groups[funder] = append(groups[funder], i)
	}

	var candidates []CandidateCluster
	for _, funder := range funders {
		members := groups[funder]
		if len(members) < 2 {
			continue
		}
		label := fmt.Sprintf("Funding Cluster (%s)", shortAddress(funder))

		if mode == FundingModeConnected {
			candidates = append(candidates, splitByConnectivity(members, g, label)...)
			continue
		}
		candidates = append(candidates, CandidateCluster{
			Label:   label,
			Members: members,
			Tags:    TagSharedFunding,
		})
	}
	return candidates
}

// splitByConnectivity partitions one funder group by transfer edges between its own members.
// Each connected sub-group of two or more wallets becomes a candidate; the wallets
// without any intra-group edge form a single residual candidate when there are at least two.
func splitByConnectivity(members []int, g *TransferGraph, label string) []CandidateCluster {
	local := make(map[int]int, len(members))
	for li, m := range members {
		local[m] = li
	}

	ds := NewDisjointSet(len(members))
	for li, m := range members {
		for _, next := range g.Neighbors(m) {
			if lj, ok := local[next]; ok {
				ds.Union(li, lj)
			}
		}
	}

	var (
		roots     []int
		byRoot    = make(map[int][]int)
		dispersed []int
	)
	for li, m := range members {
		if ds.SetSize(li) == 1 {
			dispersed = append(dispersed, m)
			continue
		}
		root := ds.Find(li)
		if _, seen := byRoot[root]; !seen {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], m)
	}

	candidates := make([]CandidateCluster, 0, len(roots)+1)
	for _, root := range roots {
		candidates = append(candidates, CandidateCluster{
			Label:   label,
			Members: byRoot[root],
			Tags:    TagSharedFunding,
		})
	}
	if len(dispersed) >= 2 {
		candidates = append(candidates, CandidateCluster{
			Label:   label + " dispersed",
			Members: dispersed,
			Tags:    TagSharedFunding,
		})
	}
	return candidates
}
