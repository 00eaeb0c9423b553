package entity

// NodeType represents the classification of a funder address as recorded in the wallet graph
type NodeType string

const (
	// Wallet types
	NodeTypeEOA                NodeType = "EOA"                  // Externally Owned Account (regular user wallet)
	NodeTypeExchangeWallet     NodeType = "EXCHANGE_WALLET"      // Centralized exchange wallet
	NodeTypeExchangeHotWallet  NodeType = "EXCHANGE_HOT_WALLET"  // Exchange hot wallet (frequent withdrawals)
	NodeTypeExchangeColdWallet NodeType = "EXCHANGE_COLD_WALLET" // Exchange cold wallet
	NodeTypeBridgeWallet       NodeType = "BRIDGE_WALLET"        // Cross-chain bridge wallet
	NodeTypeMixerWallet        NodeType = "MIXER_WALLET"         // Privacy mixer

	// Exchange-specific types
	NodeTypeCEXDeposit    NodeType = "CEX_DEPOSIT"
	NodeTypeCEXWithdrawal NodeType = "CEX_WITHDRAWAL"
	NodeTypeCEXSettlement NodeType = "CEX_SETTLEMENT"

	// Contracts
	NodeTypeDEXContract NodeType = "DEX_CONTRACT"

	NodeTypeUnknown NodeType = "UNKNOWN"
)

// ParseNodeType converts a stored classification label into a NodeType
func ParseNodeType(s string) NodeType {
	switch nt := NodeType(s); nt {
	case NodeTypeEOA, NodeTypeExchangeWallet, NodeTypeExchangeHotWallet, NodeTypeExchangeColdWallet,
		NodeTypeBridgeWallet, NodeTypeMixerWallet, NodeTypeCEXDeposit, NodeTypeCEXWithdrawal,
		NodeTypeCEXSettlement, NodeTypeDEXContract:
		return nt
	default:
		return NodeTypeUnknown
	}
}

// IsExchange reports whether funds from this node type come from a centralized exchange.
// Exchange-funded wallets are excluded from funding-based grouping.
func (nt NodeType) IsExchange() bool {
	switch nt {
	case NodeTypeExchangeWallet, NodeTypeExchangeHotWallet, NodeTypeExchangeColdWallet,
		NodeTypeCEXWithdrawal, NodeTypeCEXSettlement:
		return true
	default:
		return false
	}
}
