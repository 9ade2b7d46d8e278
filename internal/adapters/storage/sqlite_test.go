package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polytrader/internal/adapters/storage"
	"github.com/alejandrodnm/polytrader/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePosition(marketID string, side domain.Side) domain.Position {
	return domain.Position{
		Market:        "Will X happen?",
		MarketID:      marketID,
		Side:          side,
		EntryPrice:    0.40,
		CurrentPrice:  0.45,
		Size:          100,
		UnrealizedPnL: 12.5,
		OpenedAt:      time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestSQLite_PositionsRoundTrip(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	want := []domain.Position{
		makePosition("m1", domain.SideBuy),
		makePosition("m2", domain.SideSell),
	}
	require.NoError(t, db.SavePositions(context.Background(), want))

	got, err := db.LoadPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	// save(load()) idempotente: los campos sobreviven intactos
	assert.Equal(t, want[0].MarketID, got[0].MarketID)
	assert.Equal(t, want[0].Side, got[0].Side)
	assert.Equal(t, want[0].EntryPrice, got[0].EntryPrice)
	assert.Equal(t, want[0].CurrentPrice, got[0].CurrentPrice)
	assert.Equal(t, want[0].Size, got[0].Size)
	assert.Equal(t, want[0].UnrealizedPnL, got[0].UnrealizedPnL)
	assert.True(t, want[0].OpenedAt.Equal(got[0].OpenedAt))
}

func TestSQLite_SavePositionsReplacesSet(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SavePositions(context.Background(), []domain.Position{
		makePosition("m1", domain.SideBuy),
		makePosition("m2", domain.SideBuy),
	}))
	require.NoError(t, db.SavePositions(context.Background(), []domain.Position{
		makePosition("m2", domain.SideBuy),
	}))

	got, err := db.LoadPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].MarketID)
}

func TestSQLite_EmptySet(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	got, err := db.LoadPositions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, db.SavePositions(context.Background(), nil))
}

func TestSQLite_AppendTradeAndCycle(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	trade := domain.TradeRecord{
		ID:         uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		Market:     "Will X happen?",
		MarketID:   "m1",
		Side:       domain.SideBuy,
		Size:       150,
		Price:      0.50,
		FairValue:  0.80,
		Edge:       0.30,
		Confidence: domain.ConfidenceHigh,
		Reasoning:  "strong signal",
		Status:     domain.TradeStatusOpen,
	}
	require.NoError(t, db.AppendTrade(context.Background(), trade))

	summary := domain.CycleSummary{
		Timestamp:          time.Now().UTC(),
		MarketsScanned:     120,
		OpportunitiesFound: 3,
		TradesExecuted:     1,
		DurationSeconds:    42.5,
		Balance:            500,
		Bankroll:           1000,
		Deployed:           150,
	}
	require.NoError(t, db.AppendCycle(context.Background(), summary))
}
