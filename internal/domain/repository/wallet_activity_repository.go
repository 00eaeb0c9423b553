package repository

import (
	"context"
	"errors"

	"bundle-cluster-analyzer/internal/domain/entity"
)

// ErrTokenNotFound is returned when the graph holds no contract node for a token
var ErrTokenNotFound = errors.New("token not found")

// WalletActivityRepository loads the per-wallet trading history of a token
type WalletActivityRepository interface {
	// GetTokenActivity returns the activity of up to limit wallets holding or trading the token
	GetTokenActivity(ctx context.Context, tokenAddress string, limit int) ([]*entity.WalletActivity, error)

	// GetMarketSnapshot returns the supply, price and liquidity recorded for the token
	GetMarketSnapshot(ctx context.Context, tokenAddress string) (*entity.MarketSnapshot, error)
}

// ExchangeRegistry knows which addresses belong to centralized exchanges
type ExchangeRegistry interface {
	// ExchangeAddresses returns the subset of addresses classified as exchange wallets
	ExchangeAddresses(ctx context.Context, addresses []string) (map[string]bool, error)
}
