package clustering

import (
	"time"

	"bundle-cluster-analyzer/internal/domain/entity"
)

// aggregate rolls the final clusters into token-level totals.
// Overall risk is classified from the unrounded totals; reported totals are rounded.
func aggregate(clusters []entity.BundleCluster, market entity.MarketSnapshot, generatedAt time.Time) *entity.AnalysisResult {
	result := emptyResult(market, generatedAt)
	result.Clusters = clusters
	result.ClusterCount = len(clusters)

	var totalValue, totalPercent float64
	seen := make(map[string]struct{})
	for _, c := range clusters {
		totalValue += c.TotalValueUSD
		totalPercent += c.TotalSupplyPercent

		for _, m := range c.Members {
			seen[m.Address] = struct{}{}
			switch m.Status {
			case entity.WalletStatusActive:
				result.StatusDistribution.Active++
			case entity.WalletStatusDormant:
				result.StatusDistribution.Dormant++
			case entity.WalletStatusSoldAll:
				result.StatusDistribution.SoldAll++
			}
		}
	}

	lpImpactRatio := safeDiv(totalValue, market.LiquidityUSD)

	result.TotalWalletCount = len(seen)
	result.TotalBundledValueUSD = round2(totalValue)
	result.TotalBundledSupplyPercent = round2(totalPercent)
	result.TotalBundledTokens = totalPercent * market.TotalSupply / 100
	result.LPImpactRatio = round2(lpImpactRatio)
	result.OverallRisk = ClassifyOverallRisk(lpImpactRatio, totalPercent)
	return result
}

// ClassifyOverallRisk maps token-level LP impact and bundled supply share to a category.
// All thresholds are strict.
func ClassifyOverallRisk(lpImpactRatio, bundledSupplyPercent float64) entity.OverallRisk {
	switch {
	case lpImpactRatio > 1.0 || bundledSupplyPercent > 40:
		return entity.OverallRiskCritical
	case lpImpactRatio > 0.5 || bundledSupplyPercent > 20:
		return entity.OverallRiskHigh
	case lpImpactRatio > 0.2 || bundledSupplyPercent > 10:
		return entity.OverallRiskModerate
	default:
		return entity.OverallRiskLow
	}
}

func emptyResult(market entity.MarketSnapshot, generatedAt time.Time) *entity.AnalysisResult {
	return &entity.AnalysisResult{
		Clusters:     []entity.BundleCluster{},
		OverallRisk:  entity.OverallRiskLow,
		LiquidityUSD: market.LiquidityUSD,
		GeneratedAt:  generatedAt,
	}
}
