package clustering

import (
	"errors"
	"fmt"
	"time"
)

// Heuristic weights summed into a cluster's risk score
const (
	WeightSharedFunding     = 35
	WeightTemporalMatch     = 30
	WeightInternalTransfers = 25
	WeightSyncSell          = 40

	MaxRiskScore = 100
)

// FundingMode selects how wallets sharing a funder are turned into candidates
type FundingMode string

const (
	// FundingModeShared emits one candidate spanning every wallet of a funder.
	FundingModeShared FundingMode = "shared"
	// FundingModeConnected sub-partitions a funder's wallets by transfer connectivity.
	// Unconnected wallets of the same funder form one residual candidate.
	FundingModeConnected FundingMode = "connected"
)

// ErrInvalidOptions is returned by Options.Validate
var ErrInvalidOptions = errors.New("invalid clustering options")

// Options configures the analyzer
type Options struct {
	// TemporalWindow is the width W of a buy bucket, in timestamp units
	TemporalWindow int64
	// MinTemporalWallets is the minimum number of distinct wallets in a bucket
	MinTemporalWallets int
	// SyncSellWindow is the maximum gap between two sells counted as synchronized
	SyncSellWindow int64
	FundingMode    FundingMode
	// Now stamps AnalysisResult.GeneratedAt. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the reference configuration
func DefaultOptions() Options {
	return Options{
		TemporalWindow:     2,
		MinTemporalWallets: 3,
		SyncSellWindow:     60,
		FundingMode:        FundingModeShared,
		Now:                time.Now,
	}
}

// Validate checks that the options describe a usable configuration
func (o Options) Validate() error {
	if o.TemporalWindow <= 0 {
		return fmt.Errorf("%w: temporal window must be positive, got %d", ErrInvalidOptions, o.TemporalWindow)
	}
	if o.MinTemporalWallets < 2 {
		return fmt.Errorf("%w: min temporal wallets must be at least 2, got %d", ErrInvalidOptions, o.MinTemporalWallets)
	}
	if o.SyncSellWindow < 0 {
		return fmt.Errorf("%w: sync sell window must not be negative, got %d", ErrInvalidOptions, o.SyncSellWindow)
	}
	switch o.FundingMode {
	case FundingModeShared, FundingModeConnected:
	default:
		return fmt.Errorf("%w: unknown funding mode %q", ErrInvalidOptions, o.FundingMode)
	}
	return nil
}

// ParseFundingMode converts a configuration string into a FundingMode.
// An empty string selects FundingModeShared.
func ParseFundingMode(s string) (FundingMode, error) {
	switch FundingMode(s) {
	case "", FundingModeShared:
		return FundingModeShared, nil
	case FundingModeConnected:
		return FundingModeConnected, nil
	default:
		return "", fmt.Errorf("%w: unknown funding mode %q", ErrInvalidOptions, s)
	}
}
