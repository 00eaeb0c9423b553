package database

import (
	"context"
	"fmt"

	"bundle-cluster-analyzer/internal/domain/entity"
	"bundle-cluster-analyzer/internal/domain/repository"
	"bundle-cluster-analyzer/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4JExchangeRegistry answers exchange lookups from wallet node classifications
type Neo4JExchangeRegistry struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JExchangeRegistry creates a new exchange registry backed by Neo4J
func NewNeo4JExchangeRegistry(client *Neo4JClient, logger *logger.Logger) repository.ExchangeRegistry {
	return &Neo4JExchangeRegistry{
		client: client,
		logger: logger.WithComponent("exchange-registry"),
	}
}

// ExchangeAddresses returns the addresses whose node_type marks them as exchange wallets
func (r *Neo4JExchangeRegistry) ExchangeAddresses(ctx context.Context, addresses []string) (map[string]bool, error) {
	exchanges := make(map[string]bool)
	if len(addresses) == 0 {
		return exchanges, nil
	}

	session := r.client.NewReadSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (w:Wallet)
		WHERE w.address IN $addresses AND w.node_type IS NOT NULL
		RETURN w.address as address, w.node_type as nodeType
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, query, map[string]interface{}{"addresses": addresses})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up exchange addresses: %w", err)
	}

	for _, record := range result.([]*neo4j.Record) {
		if entity.ParseNodeType(getString(record, "nodeType")).IsExchange() {
			exchanges[getString(record, "address")] = true
		}
	}

	r.logger.Debug("Exchange lookup completed",
		zap.Int("queried", len(addresses)),
		zap.Int("exchanges", len(exchanges)))

	return exchanges, nil
}
