package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/storage"
	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSettlement(marketID string, won bool, settledAt time.Time) domain.Settlement {
	profit := 19.0
	if !won {
		profit = -10.0
	}
	return domain.Settlement{
		MarketID:         marketID,
		EventID:          "ev-1",
		Player:           "Nadal",
		SelectionID:      101,
		Size:             10,
		Price:            3.0,
		Won:              won,
		Profit:           profit,
		MultiplierBefore: 1,
		MultiplierAfter:  2,
		BalanceAfter:     90,
		SettledAt:        settledAt,
	}
}

func TestSQLiteStore_SaveAndHistory(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveSettlement(context.Background(),
		makeSettlement("1.111", false, now.Add(-time.Minute))))
	require.NoError(t, db.SaveSettlement(context.Background(),
		makeSettlement("1.222", true, now)))

	history, err := db.History(context.Background(),
		now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 2)

	// más recientes primero
	assert.Equal(t, "1.222", history[0].MarketID)
	assert.True(t, history[0].Won)
	assert.InDelta(t, 19.0, history[0].Profit, 0.001)

	assert.Equal(t, "1.111", history[1].MarketID)
	assert.False(t, history[1].Won)
	assert.InDelta(t, -10.0, history[1].Profit, 0.001)
}

func TestSQLiteStore_HistoryEmptyRange(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	history, err := db.History(context.Background(),
		time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSQLiteStore_RangeFiltering(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveSettlement(context.Background(),
		makeSettlement("1.old", true, now.Add(-48*time.Hour))))
	require.NoError(t, db.SaveSettlement(context.Background(),
		makeSettlement("1.new", true, now)))

	history, err := db.History(context.Background(),
		now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "1.new", history[0].MarketID)
}
