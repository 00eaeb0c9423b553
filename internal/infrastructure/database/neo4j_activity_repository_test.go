package database

import (
	"testing"
	"time"

	"bundle-cluster-analyzer/internal/domain/entity"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleActivity(t *testing.T) {
	holders := []holderRow{
		{address: "0xa", balance: 100, isSeed: true},
		{address: "0xb", balance: 0, traceDepth: 1},
		{address: "0xa", balance: 999},
	}
	swaps := []swapRow{
		{address: "0xa", side: swapSideBuy, amount: 150, timestamp: 1000},
		{address: "0xa", side: swapSideSell, amount: 50, timestamp: 1100},
		{address: "0xb", side: swapSideBuy, amount: 10, timestamp: 1001},
		{address: "0xc", side: swapSideBuy, amount: 1, timestamp: 1},
		{address: "0xb", side: "unknown", amount: 5, timestamp: 1002},
	}
	transfers := []transferRow{
		{from: "0xa", to: "0xb", amount: 10, timestamp: 1200},
		{from: "0xz", to: "0xa", amount: 3, timestamp: 1300},
	}
	funders := []fundingRow{
		{address: "0xb", funder: "0xhot", amount: 2, timestamp: 50, nodeType: string(entity.NodeTypeExchangeHotWallet)},
		{address: "0xa", funder: "0xlater", amount: 1, timestamp: 90},
		{address: "0xa", funder: "0xfirst", amount: 1, timestamp: 10, nodeType: string(entity.NodeTypeEOA)},
	}

	wallets := assembleActivity(holders, swaps, transfers, funders)

	require.Len(t, wallets, 2)
	a, b := wallets[0], wallets[1]

	assert.Equal(t, "0xa", a.Address)
	assert.Equal(t, 100.0, a.CurrentBalance)
	assert.True(t, a.IsSeedWallet)
	assert.Equal(t, 150.0, a.TotalBought())
	assert.Equal(t, 50.0, a.TotalSold())
	assert.Equal(t, []entity.TokenTransfer{{Counterparty: "0xb", TokenAmount: 10, Timestamp: 1200}}, a.OutgoingTransfers)
	assert.Equal(t, []entity.TokenTransfer{{Counterparty: "0xz", TokenAmount: 3, Timestamp: 1300}}, a.IncomingTransfers)
	require.NotNil(t, a.FundingSource)
	assert.Equal(t, "0xfirst", a.FundingSource.Address)
	assert.False(t, a.FundingSource.IsExchange)

	assert.Equal(t, 1, b.TraceDepth)
	assert.Len(t, b.Buys, 1)
	assert.Empty(t, b.Sells)
	assert.Equal(t, 10.0, b.TotalReceived())
	require.NotNil(t, b.FundingSource)
	assert.True(t, b.FundingSource.IsExchange)
}

func TestRecordHelpers(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	record := &neo4j.Record{
		Keys:   []string{"s", "f", "i", "b", "t", "n"},
		Values: []any{"x", int64(7), 2.9, true, ts, nil},
	}

	assert.Equal(t, "x", getString(record, "s"))
	assert.Equal(t, 7.0, getFloat64(record, "f"))
	assert.Equal(t, int64(2), getInt64(record, "i"))
	assert.True(t, getBool(record, "b"))
	assert.Equal(t, ts.Unix(), getUnix(record, "t"))
	assert.Equal(t, int64(7), getUnix(record, "f"))
	assert.Zero(t, getUnix(record, "n"))
	assert.Empty(t, getString(record, "missing"))
}
