package clustering

import (
	"math"
	"sort"
	"strings"

	"bundle-cluster-analyzer/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// clusterNamespace roots the deterministic cluster identifiers
var clusterNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("bundle-cluster-analyzer/cluster"))

// buildCluster constructs a final cluster fresh from a merged candidate
func buildCluster(c CandidateCluster, u *universe, market entity.MarketSnapshot, syncWindow int64) entity.BundleCluster {
	members := make([]*entity.WalletActivity, 0, len(c.Members))
	inCluster := make(map[string]struct{}, len(c.Members))
	for _, idx := range c.Members {
		w := u.wallets[idx]
		members = append(members, w)
		inCluster[w.Address] = struct{}{}
	}

	cluster := entity.BundleCluster{
		ID:      ClusterID(u.addresses(c.Members)),
		Label:   c.Label,
		Members: make([]entity.BundleWallet, 0, len(members)),
	}

	var totalBalance float64
	for _, w := range members {
		bw := bundleWallet(w, market.PriceUSD)
		cluster.Members = append(cluster.Members, bw)
		cluster.TotalValueUSD += bw.HoldingValueUSD
		totalBalance += bw.CurrentBalance

		for _, t := range w.OutgoingTransfers {
			if _, ok := inCluster[t.Counterparty]; ok && t.Counterparty != w.Address {
				cluster.InternalTransferCount++
			}
		}
	}

	cluster.TotalSupplyPercent = safeDiv(totalBalance, market.TotalSupply) * 100
	cluster.LPImpact = round2(safeDiv(cluster.TotalValueUSD, market.LiquidityUSD))

	tags := c.Tags
	if !tags.Has(TagSyncSell) && hasSyncSell(members, syncWindow) {
		tags |= TagSyncSell
	}
	cluster.RiskScore = clampScore(tags.Weight())
	cluster.RiskLevel = RiskLevelForScore(cluster.RiskScore)
	cluster.RiskFactors = tags.Factors()
	return cluster
}

func bundleWallet(w *entity.WalletActivity, priceUSD float64) entity.BundleWallet {
	status := entity.WalletStatusActive
	if w.CurrentBalance == 0 {
		status = entity.WalletStatusSoldAll
	}
	return entity.BundleWallet{
		Address:         w.Address,
		BoughtAmount:    w.TotalBought(),
		ReceivedAmount:  w.TotalReceived(),
		CurrentBalance:  w.CurrentBalance,
		SoldAmount:      w.TotalSold(),
		HoldingValueUSD: w.CurrentBalance * priceUSD,
		Status:          status,
	}
}

// hasSyncSell reports whether any two member sells, taken in time order,
// are at most window apart
func hasSyncSell(members []*entity.WalletActivity, window int64) bool {
	var times []int64
	for _, w := range members {
		for _, s := range w.Sells {
			times = append(times, s.Timestamp)
		}
	}
	if len(times) < 2 {
		return false
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	for i := 0; i < len(times)-1; i++ {
		if times[i+1]-times[i] <= window {
			return true
		}
	}
	return false
}

// RiskLevelForScore maps a clamped score to its categorical level
func RiskLevelForScore(score int) entity.ClusterRiskLevel {
	switch {
	case score > 70:
		return entity.ClusterRiskHigh
	case score > 30:
		return entity.ClusterRiskModerate
	default:
		return entity.ClusterRiskLow
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxRiskScore {
		return MaxRiskScore
	}
	return score
}

// ClusterID derives a stable identifier from the member address set
func ClusterID(addresses []string) string {
	sorted := append([]string(nil), addresses...)
	sort.Strings(sorted)
	return uuid.NewSHA1(clusterNamespace, []byte(strings.Join(sorted, "\n"))).String()
}

// safeDiv returns 0 when the denominator is not positive
func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// round2 rounds half away from zero to two decimal places
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
