package clustering

import (
	"testing"
	"time"

	"bundle-cluster-analyzer/internal/domain/entity"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

type walletOpt func(*entity.WalletActivity)

func newWallet(addr string, opts ...walletOpt) *entity.WalletActivity {
	w := &entity.WalletActivity{Address: addr}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func fundedBy(funder string) walletOpt {
	return func(w *entity.WalletActivity) {
		w.FundingSource = &entity.FundingSource{Address: funder, Amount: 1, Timestamp: 1}
	}
}

func fundedByExchange(funder string) walletOpt {
	return func(w *entity.WalletActivity) {
		w.FundingSource = &entity.FundingSource{Address: funder, Amount: 1, Timestamp: 1, IsExchange: true}
	}
}

func buyAt(ts int64, amount float64) walletOpt {
	return func(w *entity.WalletActivity) {
		w.Buys = append(w.Buys, entity.TokenTrade{TokenAmount: amount, Timestamp: ts})
	}
}

func sellAt(ts int64, amount float64) walletOpt {
	return func(w *entity.WalletActivity) {
		w.Sells = append(w.Sells, entity.TokenTrade{TokenAmount: amount, Timestamp: ts})
	}
}

func balance(b float64) walletOpt {
	return func(w *entity.WalletActivity) {
		w.CurrentBalance = b
	}
}

// linkTransfer records a transfer on both sides
func linkTransfer(from, to *entity.WalletActivity, amount float64, ts int64) {
	from.OutgoingTransfers = append(from.OutgoingTransfers, entity.TokenTransfer{Counterparty: to.Address, TokenAmount: amount, Timestamp: ts})
	to.IncomingTransfers = append(to.IncomingTransfers, entity.TokenTransfer{Counterparty: from.Address, TokenAmount: amount, Timestamp: ts})
}

func newTestAnalyzer(t *testing.T, mutate ...func(*Options)) *Analyzer {
	t.Helper()
	opts := DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	for _, m := range mutate {
		m(&opts)
	}
	a, err := NewAnalyzer(opts)
	require.NoError(t, err)
	return a
}

func memberSets(u *universe, candidates []CandidateCluster) [][]string {
	sets := make([][]string, len(candidates))
	for i, c := range candidates {
		sets[i] = u.addresses(c.Members)
	}
	return sets
}
