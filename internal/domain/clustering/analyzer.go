// Package clustering detects coordinated "bundle" wallet clusters for a token.
//
// Three independent heuristics propose overlapping candidate groupings:
//
//   - shared funding: wallets funded by the same non-exchange address
//   - temporal match: three or more wallets buying inside the same time bucket
//   - internal transfers: connected components of the wallet transfer graph
//
// Candidates are merged into a disjoint partition with a union-find, each
// resulting cluster is scored (with an extra synchronized-sell check), and the
// clusters are rolled up into token-level risk metrics.
//
// The analyzer performs no I/O and keeps no state between calls; one Analyzer
// may be shared by any number of goroutines.
package clustering

import (
	"time"

	"bundle-cluster-analyzer/internal/domain/entity"
)

// Analyzer runs the bundle clustering pipeline
type Analyzer struct {
	opts Options
}

// NewAnalyzer creates an analyzer with validated options
func NewAnalyzer(opts Options) (*Analyzer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{opts: opts}, nil
}

// Options returns the analyzer configuration
func (a *Analyzer) Options() Options {
	return a.opts
}

// Analyze partitions the flagged wallets into risk-scored clusters.
// Empty input or a non-positive total supply yields a zero-valued LOW result.
func (a *Analyzer) Analyze(wallets []*entity.WalletActivity, market entity.MarketSnapshot) *entity.AnalysisResult {
	now := a.opts.Now()

	u := newUniverse(wallets)
	if u.size() == 0 || market.TotalSupply <= 0 {
		return emptyResult(market, now)
	}

	merged := a.mergedCandidates(u)

	clusters := make([]entity.BundleCluster, 0, len(merged))
	for _, c := range merged {
		if len(c.Members) < 2 {
			continue
		}
		clusters = append(clusters, buildCluster(c, u, market, a.opts.SyncSellWindow))
	}

	return aggregate(clusters, market, now)
}

// Candidates returns the raw heuristic candidates in merge order:
// funding, then temporal, then transfer-graph.
func (a *Analyzer) Candidates(wallets []*entity.WalletActivity) []CandidateCluster {
	return a.generate(newUniverse(wallets))
}

func (a *Analyzer) generate(u *universe) []CandidateCluster {
	graph := buildTransferGraph(u)

	var candidates []CandidateCluster
	candidates = append(candidates, fundingCandidates(u, graph, a.opts.FundingMode)...)
	candidates = append(candidates, temporalCandidates(u, a.opts.TemporalWindow, a.opts.MinTemporalWallets)...)
	candidates = append(candidates, transferCandidates(u, graph)...)
	return candidates
}

func (a *Analyzer) mergedCandidates(u *universe) []CandidateCluster {
	return mergeCandidates(u.size(), a.generate(u))
}
