package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bundle-cluster-analyzer/internal/domain/entity"
	"bundle-cluster-analyzer/internal/domain/repository"
	"bundle-cluster-analyzer/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Swap sides stored on DEX_SWAP relationships
const (
	swapSideBuy  = "buy"
	swapSideSell = "sell"
)

// Neo4JWalletActivityRepository implements WalletActivityRepository for Neo4J
type Neo4JWalletActivityRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JWalletActivityRepository creates a new Neo4J wallet activity repository
func NewNeo4JWalletActivityRepository(client *Neo4JClient, logger *logger.Logger) repository.WalletActivityRepository {
	return &Neo4JWalletActivityRepository{
		client: client,
		logger: logger.WithComponent("activity-repository"),
	}
}

type holderRow struct {
	address    string
	balance    float64
	isSeed     bool
	traceDepth int
}

type swapRow struct {
	address   string
	side      string
	amount    float64
	timestamp int64
}

type transferRow struct {
	from, to  string
	amount    float64
	timestamp int64
}

type fundingRow struct {
	address   string
	funder    string
	amount    float64
	timestamp int64
	nodeType  string
}

// GetMarketSnapshot retrieves the market scalars stored on the token contract node
func (r *Neo4JWalletActivityRepository) GetMarketSnapshot(ctx context.Context, tokenAddress string) (*entity.MarketSnapshot, error) {
	session := r.client.NewReadSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (c:ERC20Contract {address: $token})
		RETURN c.total_supply as totalSupply,
			   c.price_usd as priceUSD,
			   c.liquidity_usd as liquidityUSD
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]interface{}{"token": tokenAddress})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get market snapshot: %w", err)
	}

	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrTokenNotFound, tokenAddress)
	}

	record := records[0]
	return &entity.MarketSnapshot{
		TotalSupply:  getFloat64(record, "totalSupply"),
		PriceUSD:     getFloat64(record, "priceUSD"),
		LiquidityUSD: getFloat64(record, "liquidityUSD"),
	}, nil
}

// GetTokenActivity loads holders and traders of a token with their swaps, transfers and funders
func (r *Neo4JWalletActivityRepository) GetTokenActivity(ctx context.Context, tokenAddress string, limit int) ([]*entity.WalletActivity, error) {
	session := r.client.NewReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		holders, err := r.fetchHolders(ctx, tx, tokenAddress, limit)
		if err != nil || len(holders) == 0 {
			return nil, err
		}

		addresses := make([]string, len(holders))
		for i, h := range holders {
			addresses[i] = h.address
		}

		swaps, err := r.fetchSwaps(ctx, tx, tokenAddress, addresses)
		if err != nil {
			return nil, err
		}
		transfers, err := r.fetchTransfers(ctx, tx, tokenAddress, addresses)
		if err != nil {
			return nil, err
		}
		funders, err := r.fetchFunders(ctx, tx, addresses)
		if err != nil {
			return nil, err
		}

		return assembleActivity(holders, swaps, transfers, funders), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get token activity: %w", err)
	}

	wallets, _ := result.([]*entity.WalletActivity)
	r.logger.Debug("Loaded token activity",
		zap.String("token", tokenAddress),
		zap.Int("wallet_count", len(wallets)))

	return wallets, nil
}

func (r *Neo4JWalletActivityRepository) fetchHolders(ctx context.Context, tx neo4j.ManagedTransaction, token string, limit int) ([]holderRow, error) {
	query := `
		MATCH (c:ERC20Contract {address: $token})
		MATCH (w:Wallet)-[:HOLDS|DEX_SWAP]->(c)
		WITH DISTINCT w, c
		OPTIONAL MATCH (w)-[h:HOLDS]->(c)
		RETURN w.address as address,
			   coalesce(h.balance, 0.0) as balance,
			   coalesce(h.is_seed, false) as isSeed,
			   coalesce(h.trace_depth, 0) as traceDepth
		ORDER BY address
		LIMIT $limit
	`

	records, err := collect(ctx, tx, query, map[string]interface{}{"token": token, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holders: %w", err)
	}

	rows := make([]holderRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, holderRow{
			address:    getString(record, "address"),
			balance:    getFloat64(record, "balance"),
			isSeed:     getBool(record, "isSeed"),
			traceDepth: int(getInt64(record, "traceDepth")),
		})
	}
	return rows, nil
}

func (r *Neo4JWalletActivityRepository) fetchSwaps(ctx context.Context, tx neo4j.ManagedTransaction, token string, addresses []string) ([]swapRow, error) {
	query := `
		MATCH (w:Wallet)-[s:DEX_SWAP {contract_address: $token}]->(:ERC20Contract)
		WHERE w.address IN $addresses
		RETURN w.address as address,
			   s.side as side,
			   s.amount as amount,
			   s.timestamp as timestamp
		ORDER BY timestamp
	`

	records, err := collect(ctx, tx, query, map[string]interface{}{"token": token, "addresses": addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch swaps: %w", err)
	}

	rows := make([]swapRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, swapRow{
			address:   getString(record, "address"),
			side:      strings.ToLower(getString(record, "side")),
			amount:    getFloat64(record, "amount"),
			timestamp: getUnix(record, "timestamp"),
		})
	}
	return rows, nil
}

func (r *Neo4JWalletActivityRepository) fetchTransfers(ctx context.Context, tx neo4j.ManagedTransaction, token string, addresses []string) ([]transferRow, error) {
	query := `
		MATCH (a:Wallet)-[t:ERC20_TRANSFER {contract_address: $token}]->(b:Wallet)
		WHERE a.address IN $addresses OR b.address IN $addresses
		RETURN a.address as fromAddress,
			   b.address as toAddress,
			   t.value as value,
			   t.timestamp as timestamp
		ORDER BY timestamp
	`

	records, err := collect(ctx, tx, query, map[string]interface{}{"token": token, "addresses": addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transfers: %w", err)
	}

	rows := make([]transferRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, transferRow{
			from:      getString(record, "fromAddress"),
			to:        getString(record, "toAddress"),
			amount:    getFloat64(record, "value"),
			timestamp: getUnix(record, "timestamp"),
		})
	}
	return rows, nil
}

func (r *Neo4JWalletActivityRepository) fetchFunders(ctx context.Context, tx neo4j.ManagedTransaction, addresses []string) ([]fundingRow, error) {
	query := `
		MATCH (w:Wallet)-[f:FUNDED_BY]->(src:Wallet)
		WHERE w.address IN $addresses
		RETURN w.address as address,
			   src.address as funder,
			   f.amount as amount,
			   f.timestamp as timestamp,
			   src.node_type as nodeType
		ORDER BY timestamp
	`

	records, err := collect(ctx, tx, query, map[string]interface{}{"addresses": addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch funders: %w", err)
	}

	rows := make([]fundingRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, fundingRow{
			address:   getString(record, "address"),
			funder:    getString(record, "funder"),
			amount:    getFloat64(record, "amount"),
			timestamp: getUnix(record, "timestamp"),
			nodeType:  getString(record, "nodeType"),
		})
	}
	return rows, nil
}

// assembleActivity folds the query rows into one WalletActivity per holder.
// Wallets keep holder order; the earliest funding edge wins.
func assembleActivity(holders []holderRow, swaps []swapRow, transfers []transferRow, funders []fundingRow) []*entity.WalletActivity {
	wallets := make([]*entity.WalletActivity, 0, len(holders))
	byAddress := make(map[string]*entity.WalletActivity, len(holders))
	for _, h := range holders {
		if _, exists := byAddress[h.address]; exists || h.address == "" {
			continue
		}
		w := &entity.WalletActivity{
			Address:        h.address,
			CurrentBalance: h.balance,
			IsSeedWallet:   h.isSeed,
			TraceDepth:     h.traceDepth,
		}
		byAddress[h.address] = w
		wallets = append(wallets, w)
	}

	for _, s := range swaps {
		w, ok := byAddress[s.address]
		if !ok {
			continue
		}
		trade := entity.TokenTrade{TokenAmount: s.amount, Timestamp: s.timestamp}
		switch s.side {
		case swapSideBuy:
			w.Buys = append(w.Buys, trade)
		case swapSideSell:
			w.Sells = append(w.Sells, trade)
		}
	}

	for _, t := range transfers {
		if from, ok := byAddress[t.from]; ok {
			from.OutgoingTransfers = append(from.OutgoingTransfers, entity.TokenTransfer{
				Counterparty: t.to, TokenAmount: t.amount, Timestamp: t.timestamp,
			})
		}
		if to, ok := byAddress[t.to]; ok {
			to.IncomingTransfers = append(to.IncomingTransfers, entity.TokenTransfer{
				Counterparty: t.from, TokenAmount: t.amount, Timestamp: t.timestamp,
			})
		}
	}

	sort.SliceStable(funders, func(i, j int) bool { return funders[i].timestamp < funders[j].timestamp })
	for _, f := range funders {
		w, ok := byAddress[f.address]
		if !ok || w.FundingSource != nil || f.funder == "" {
			continue
		}
		w.FundingSource = &entity.FundingSource{
			Address:    f.funder,
			Amount:     f.amount,
			Timestamp:  f.timestamp,
			IsExchange: entity.ParseNodeType(f.nodeType).IsExchange(),
		}
	}

	return wallets
}

func collect(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}
