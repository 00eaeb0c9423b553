package entity

// TokenTrade represents a single swap-side event (buy or sell) of the analyzed token
type TokenTrade struct {
	TokenAmount float64 `json:"token_amount"`
	Timestamp   int64   `json:"timestamp"`
}

// TokenTransfer represents a direct token transfer between two wallets.
// For outgoing transfers Counterparty is the recipient, for incoming transfers the sender.
type TokenTransfer struct {
	Counterparty string  `json:"counterparty"`
	TokenAmount  float64 `json:"token_amount"`
	Timestamp    int64   `json:"timestamp"`
}

// FundingSource represents the first/primary inbound funder of a wallet
type FundingSource struct {
	Address    string  `json:"address"`
	Amount     float64 `json:"amount"`
	Timestamp  int64   `json:"timestamp"`
	IsExchange bool    `json:"is_exchange"`
}

// WalletActivity represents the normalized activity of one wallet for one token
type WalletActivity struct {
	Address           string          `json:"address"`
	Buys              []TokenTrade    `json:"buys"`
	Sells             []TokenTrade    `json:"sells"`
	OutgoingTransfers []TokenTransfer `json:"outgoing_transfers"`
	IncomingTransfers []TokenTransfer `json:"incoming_transfers"`
	CurrentBalance    float64         `json:"current_balance"`
	FundingSource     *FundingSource  `json:"funding_source,omitempty"`
	IsSeedWallet      bool            `json:"is_seed_wallet"`
	TraceDepth        int             `json:"trace_depth"`
}

// TotalBought returns the sum of all bought token amounts
func (w *WalletActivity) TotalBought() float64 {
	return sumTrades(w.Buys)
}

// TotalSold returns the sum of all sold token amounts
func (w *WalletActivity) TotalSold() float64 {
	return sumTrades(w.Sells)
}

// TotalReceived returns the sum of all incoming transfer amounts
func (w *WalletActivity) TotalReceived() float64 {
	var total float64
	for _, t := range w.IncomingTransfers {
		total += t.TokenAmount
	}
	return total
}

// HasOutgoingTransfers reports whether the wallet sent tokens to anyone
func (w *WalletActivity) HasOutgoingTransfers() bool {
	return len(w.OutgoingTransfers) > 0
}

// FundedByNonExchange reports whether the wallet has a funder eligible for funding-based grouping
func (w *WalletActivity) FundedByNonExchange() bool {
	return w.FundingSource != nil && w.FundingSource.Address != "" && !w.FundingSource.IsExchange
}

func sumTrades(trades []TokenTrade) float64 {
	var total float64
	for _, t := range trades {
		total += t.TokenAmount
	}
	return total
}

// MarketSnapshot carries the token-level scalars supplied alongside wallet activity
type MarketSnapshot struct {
	TotalSupply  float64 `json:"total_supply"`
	PriceUSD     float64 `json:"price_usd"`
	LiquidityUSD float64 `json:"liquidity_usd"`
}

// AnalysisRequest represents one bundle analysis job
type AnalysisRequest struct {
	RequestID    string            `json:"request_id"`
	TokenAddress string            `json:"token_address"`
	Market       MarketSnapshot    `json:"market"`
	Wallets      []*WalletActivity `json:"wallets,omitempty"`
}
