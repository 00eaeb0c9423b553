package clustering

import (
	"fmt"
	"testing"

	"bundle-cluster-analyzer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalyzer_RejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{name: "zero window", mutate: func(o *Options) { o.TemporalWindow = 0 }},
		{name: "single wallet bucket", mutate: func(o *Options) { o.MinTemporalWallets = 1 }},
		{name: "negative sync window", mutate: func(o *Options) { o.SyncSellWindow = -1 }},
		{name: "unknown funding mode", mutate: func(o *Options) { o.FundingMode = "nearby" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			a, err := NewAnalyzer(opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
			assert.Nil(t, a)
		})
	}
}

func TestNewAnalyzer_DefaultsClock(t *testing.T) {
	opts := DefaultOptions()
	opts.Now = nil
	a, err := NewAnalyzer(opts)
	require.NoError(t, err)
	assert.NotNil(t, a.Options().Now)
}

func TestParseFundingMode(t *testing.T) {
	mode, err := ParseFundingMode("")
	require.NoError(t, err)
	assert.Equal(t, FundingModeShared, mode)

	mode, err = ParseFundingMode("connected")
	require.NoError(t, err)
	assert.Equal(t, FundingModeConnected, mode)

	_, err = ParseFundingMode("bogus")
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a := newTestAnalyzer(t)

	result := a.Analyze(nil, entity.MarketSnapshot{TotalSupply: 1000, PriceUSD: 1, LiquidityUSD: 500})

	assert.Empty(t, result.Clusters)
	assert.Equal(t, entity.OverallRiskLow, result.OverallRisk)
	assert.Zero(t, result.TotalBundledSupplyPercent)
	assert.Zero(t, result.TotalWalletCount)
	assert.Equal(t, 500.0, result.LiquidityUSD)
	assert.Equal(t, fixedNow, result.GeneratedAt)
}

func TestAnalyze_NonPositiveSupply(t *testing.T) {
	a := newTestAnalyzer(t)
	wallets := []*entity.WalletActivity{
		newWallet("w1", fundedBy("F"), balance(10)),
		newWallet("w2", fundedBy("F"), balance(10)),
	}

	for _, supply := range []float64{0, -5} {
		result := a.Analyze(wallets, entity.MarketSnapshot{TotalSupply: supply, PriceUSD: 1, LiquidityUSD: 100})
		assert.Empty(t, result.Clusters, "supply %v", supply)
		assert.Equal(t, entity.OverallRiskLow, result.OverallRisk)
	}
}

func TestAnalyze_NoHeuristicFires(t *testing.T) {
	a := newTestAnalyzer(t)
	wallets := []*entity.WalletActivity{
		newWallet("w1", fundedBy("F1"), buyAt(10, 1), balance(5)),
		newWallet("w2", fundedBy("F2"), buyAt(20, 1), balance(5)),
		newWallet("w3", fundedByExchange("Binance"), buyAt(30, 1), balance(5)),
	}

	result := a.Analyze(wallets, entity.MarketSnapshot{TotalSupply: 100, PriceUSD: 1, LiquidityUSD: 100})

	assert.Empty(t, result.Clusters)
	assert.Zero(t, result.ClusterCount)
	assert.Equal(t, entity.OverallRiskLow, result.OverallRisk)
}

func TestAnalyze_DispersedFundingCluster(t *testing.T) {
	a := newTestAnalyzer(t)
	wallets := make([]*entity.WalletActivity, 0, 12)
	for i := 0; i < 12; i++ {
		wallets = append(wallets, newWallet(fmt.Sprintf("Dispersed_%d", i),
			fundedBy("MasterFunder"), buyAt(2000, 1000), balance(1000)))
	}
	market := entity.MarketSnapshot{TotalSupply: 10000, PriceUSD: 1, LiquidityUSD: 50000}

	result := a.Analyze(wallets, market)

	require.Len(t, result.Clusters, 1)
	cluster := result.Clusters[0]
	assert.Len(t, cluster.Members, 12)
	assert.Equal(t, 65, cluster.RiskScore)
	assert.Equal(t, entity.ClusterRiskModerate, cluster.RiskLevel)
	assert.Equal(t, []entity.RiskFactor{entity.RiskFactorSharedFunding, entity.RiskFactorTemporalMatch}, cluster.RiskFactors)
	assert.Equal(t, "Funding Cluster (Mast)", cluster.Label)
	assert.Zero(t, cluster.InternalTransferCount)
	assert.Equal(t, 120.0, result.TotalBundledSupplyPercent)
	assert.Equal(t, 0.24, result.LPImpactRatio)
	assert.Equal(t, entity.OverallRiskCritical, result.OverallRisk)
	assert.Equal(t, 12, result.TotalWalletCount)
}

func splitGroupWallets() []*entity.WalletActivity {
	a1 := newWallet("A1", fundedBy("SharedFunder"), buyAt(2000, 10), balance(10))
	a2 := newWallet("A2", fundedBy("SharedFunder"), buyAt(2100, 10), balance(10))
	a3 := newWallet("A3", fundedBy("SharedFunder"), buyAt(2200, 10), balance(10))
	b1 := newWallet("B1", fundedBy("SharedFunder"), buyAt(2300, 10), balance(10))
	b2 := newWallet("B2", fundedBy("SharedFunder"), buyAt(2400, 10), balance(10))
	linkTransfer(a1, a2, 1, 2500)
	linkTransfer(a2, a3, 1, 2600)
	linkTransfer(b1, b2, 1, 2700)
	return []*entity.WalletActivity{a1, a2, a3, b1, b2}
}

func TestAnalyze_SplitGroupByFundingMode(t *testing.T) {
	market := entity.MarketSnapshot{TotalSupply: 1000, PriceUSD: 1, LiquidityUSD: 1000}

	t.Run("shared", func(t *testing.T) {
		result := newTestAnalyzer(t).Analyze(splitGroupWallets(), market)

		require.Len(t, result.Clusters, 1)
		assert.Len(t, result.Clusters[0].Members, 5)
		assert.Equal(t, 60, result.Clusters[0].RiskScore)
		assert.Equal(t, 3, result.Clusters[0].InternalTransferCount)
	})

	t.Run("connected", func(t *testing.T) {
		a := newTestAnalyzer(t, func(o *Options) { o.FundingMode = FundingModeConnected })
		result := a.Analyze(splitGroupWallets(), market)

		require.Len(t, result.Clusters, 2)
		assert.Equal(t, []string{"A1", "A2", "A3"}, result.Clusters[0].MemberAddresses())
		assert.Equal(t, []string{"B1", "B2"}, result.Clusters[1].MemberAddresses())
		for _, c := range result.Clusters {
			assert.Equal(t, 60, c.RiskScore)
			assert.Equal(t, entity.ClusterRiskModerate, c.RiskLevel)
		}
		assert.Equal(t, 5, result.TotalWalletCount)
	})
}

func TestAnalyze_SimultaneousBuysBridgeSplitGroups(t *testing.T) {
	wallets := splitGroupWallets()
	for _, w := range wallets {
		w.Buys[0].Timestamp = 2000
	}
	a := newTestAnalyzer(t, func(o *Options) { o.FundingMode = FundingModeConnected })

	result := a.Analyze(wallets, entity.MarketSnapshot{TotalSupply: 1000, PriceUSD: 1, LiquidityUSD: 1000})

	require.Len(t, result.Clusters, 1)
	assert.Len(t, result.Clusters[0].Members, 5)
	assert.Equal(t, 90, result.Clusters[0].RiskScore)
}

func botnetWallets() []*entity.WalletActivity {
	bots := make([]*entity.WalletActivity, 10)
	for i := range bots {
		bots[i] = newWallet(fmt.Sprintf("Bot_%d", i),
			fundedBy("BotMaster"), buyAt(1000000, 500), sellAt(1000060, 500), balance(0))
	}
	for i := range bots {
		linkTransfer(bots[i], bots[(i+1)%len(bots)], 1, 1000030)
	}

	wallets := append([]*entity.WalletActivity(nil), bots...)
	for i := 0; i < 10; i++ {
		wallets = append(wallets, newWallet(fmt.Sprintf("OrganicUser_%d", i),
			buyAt(1000000+int64(i)*100, 100), balance(100)))
	}
	return wallets
}

func TestAnalyze_BotnetWithOrganicNoise(t *testing.T) {
	a := newTestAnalyzer(t)
	market := entity.MarketSnapshot{TotalSupply: 1000000, PriceUSD: 1, LiquidityUSD: 100000}

	result := a.Analyze(botnetWallets(), market)

	require.Len(t, result.Clusters, 1)
	cluster := result.Clusters[0]
	assert.Len(t, cluster.Members, 11, "ten bots plus the organic wallet sharing their buy bucket")
	assert.Contains(t, cluster.MemberAddresses(), "OrganicUser_0")
	assert.NotContains(t, cluster.MemberAddresses(), "OrganicUser_1")
	assert.Equal(t, 100, cluster.RiskScore)
	assert.Equal(t, entity.ClusterRiskHigh, cluster.RiskLevel)
	assert.True(t, cluster.HasFactor(entity.RiskFactorSyncSell))
	assert.Equal(t, 10, cluster.InternalTransferCount)

	assert.Equal(t, 0.01, result.TotalBundledSupplyPercent)
	assert.Equal(t, entity.OverallRiskLow, result.OverallRisk)
	assert.Equal(t, entity.StatusDistribution{Active: 1, SoldAll: 10}, result.StatusDistribution)
	assert.Equal(t, 11, result.TotalWalletCount)
}

func TestAnalyze_PartitionsWithoutSingletons(t *testing.T) {
	a := newTestAnalyzer(t)
	wallets := append(botnetWallets(), splitGroupWallets()...)

	result := a.Analyze(wallets, entity.MarketSnapshot{TotalSupply: 1000000, PriceUSD: 1, LiquidityUSD: 100000})

	seen := make(map[string]bool)
	total := 0
	for _, c := range result.Clusters {
		assert.GreaterOrEqual(t, len(c.Members), 2)
		assert.GreaterOrEqual(t, c.RiskScore, 0)
		assert.LessOrEqual(t, c.RiskScore, MaxRiskScore)
		assert.Equal(t, RiskLevelForScore(c.RiskScore), c.RiskLevel)
		for _, addr := range c.MemberAddresses() {
			assert.False(t, seen[addr], "%s appears in more than one cluster", addr)
			seen[addr] = true
			total++
		}
	}
	assert.Equal(t, total, result.TotalWalletCount)
	assert.Equal(t, len(result.Clusters), result.ClusterCount)
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := newTestAnalyzer(t)
	market := entity.MarketSnapshot{TotalSupply: 1000000, PriceUSD: 2, LiquidityUSD: 10000}

	first := a.Analyze(botnetWallets(), market)
	second := a.Analyze(botnetWallets(), market)
	assert.Equal(t, first, second)

	reversed := botnetWallets()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	third := a.Analyze(reversed, market)
	require.Len(t, third.Clusters, 1)
	assert.Equal(t, first.Clusters[0].ID, third.Clusters[0].ID, "cluster id depends only on the member set")
	assert.Equal(t, first.Clusters[0].RiskScore, third.Clusters[0].RiskScore)
}

func TestAnalyze_DuplicateAddressesCountOnce(t *testing.T) {
	a := newTestAnalyzer(t)
	w1 := newWallet("w1", fundedBy("F"), balance(10))
	w2 := newWallet("w2", fundedBy("F"), balance(10))

	result := a.Analyze([]*entity.WalletActivity{w1, w2, w1, nil}, entity.MarketSnapshot{TotalSupply: 100, PriceUSD: 1, LiquidityUSD: 100})

	require.Len(t, result.Clusters, 1)
	assert.Len(t, result.Clusters[0].Members, 2)
	assert.Equal(t, 20.0, result.TotalBundledSupplyPercent)
}

func TestCandidates_MergeOrder(t *testing.T) {
	a := newTestAnalyzer(t)

	candidates := a.Candidates(botnetWallets())

	require.Len(t, candidates, 3)
	assert.Equal(t, TagSharedFunding, candidates[0].Tags)
	assert.Equal(t, TagTemporalMatch, candidates[1].Tags)
	assert.Equal(t, TagInternalTransfers, candidates[2].Tags)
}
