package entity

import (
	"time"
)

// RiskFactor labels a heuristic that contributed to a cluster
type RiskFactor string

const (
	RiskFactorSharedFunding     RiskFactor = "Shared Funding"
	RiskFactorTemporalMatch     RiskFactor = "Temporal Match"
	RiskFactorInternalTransfers RiskFactor = "Internal Transfers"
	RiskFactorSyncSell          RiskFactor = "Sync Sell"
)

// WalletStatus represents the holding state of a bundled wallet
type WalletStatus string

const (
	WalletStatusActive  WalletStatus = "active"
	WalletStatusDormant WalletStatus = "dormant" // defined for consumers, never assigned by the engine
	WalletStatusSoldAll WalletStatus = "sold_all"
)

// ClusterRiskLevel is the categorical risk of a single cluster
type ClusterRiskLevel string

const (
	ClusterRiskLow      ClusterRiskLevel = "Low"
	ClusterRiskModerate ClusterRiskLevel = "Moderate"
	ClusterRiskHigh     ClusterRiskLevel = "High"
)

// OverallRisk is the token-level bundle risk category
type OverallRisk string

const (
	OverallRiskLow      OverallRisk = "LOW"
	OverallRiskModerate OverallRisk = "MODERATE"
	OverallRiskHigh     OverallRisk = "HIGH"
	OverallRiskCritical OverallRisk = "CRITICAL"
)

// BundleWallet represents a single wallet within a final cluster
type BundleWallet struct {
	Address         string       `json:"address"`
	BoughtAmount    float64      `json:"bought_amount"`
	ReceivedAmount  float64      `json:"received_amount"`
	CurrentBalance  float64      `json:"current_balance"`
	SoldAmount      float64      `json:"sold_amount"`
	HoldingValueUSD float64      `json:"holding_value_usd"`
	Status          WalletStatus `json:"status"`
}

// BundleCluster represents a final, risk-scored cluster of wallets under suspected common control
type BundleCluster struct {
	ID                    string           `json:"id"`
	Label                 string           `json:"label"`
	Members               []BundleWallet   `json:"members"`
	TotalSupplyPercent    float64          `json:"total_supply_percent"`
	TotalValueUSD         float64          `json:"total_value_usd"`
	LPImpact              float64          `json:"lp_impact"`
	RiskScore             int              `json:"risk_score"`
	RiskLevel             ClusterRiskLevel `json:"risk_level"`
	RiskFactors           []RiskFactor     `json:"risk_factors"`
	InternalTransferCount int              `json:"internal_transfer_count"`
}

// HasFactor reports whether the cluster carries the given risk factor
func (c *BundleCluster) HasFactor(factor RiskFactor) bool {
	for _, f := range c.RiskFactors {
		if f == factor {
			return true
		}
	}
	return false
}

// MemberAddresses returns the addresses of the cluster members in order
func (c *BundleCluster) MemberAddresses() []string {
	addrs := make([]string, len(c.Members))
	for i, m := range c.Members {
		addrs[i] = m.Address
	}
	return addrs
}

// StatusDistribution counts bundled wallets by status
type StatusDistribution struct {
	Active  int `json:"active"`
	Dormant int `json:"dormant"`
	SoldAll int `json:"sold_all"`
	Locked  int `json:"locked"`
	Burned  int `json:"burned"`
}

// AnalysisResult represents the token-level outcome of one bundle analysis
type AnalysisResult struct {
	RequestID                 string             `json:"request_id,omitempty"`
	TokenAddress              string             `json:"token_address,omitempty"`
	Clusters                  []BundleCluster    `json:"clusters"`
	OverallRisk               OverallRisk        `json:"overall_risk"`
	LiquidityUSD              float64            `json:"liquidity_usd"`
	ClusterCount              int                `json:"cluster_count"`
	LPImpactRatio             float64            `json:"lp_impact_ratio"`
	TotalBundledSupplyPercent float64            `json:"total_bundled_supply_percent"`
	TotalBundledTokens        float64            `json:"total_bundled_tokens"`
	TotalBundledValueUSD      float64            `json:"total_bundled_value_usd"`
	TotalWalletCount          int                `json:"total_wallet_count"`
	StatusDistribution        StatusDistribution `json:"status_distribution"`
	GeneratedAt               time.Time          `json:"generated_at"`
}
