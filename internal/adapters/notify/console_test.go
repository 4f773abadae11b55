package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/notify"
	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackedMarket() *domain.MarketState {
	m := domain.NewMarketState("1.234", "ev-1", "Nadal", "Federer", 101, 202)
	m.Status = domain.StatusInPlay
	m.Odds = domain.Odds{PA: 1.5, PB: 2.8}
	m.Sets = []domain.SetScore{{Home: 6, Away: 4, Completed: true}, {Home: 2, Away: 1}}
	m.Bet = &domain.Bet{SelectionID: 202, Size: 10, Price: 2.8}
	return m
}

func TestConsole_CompactLine(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false, nil)

	staking := domain.StakingState{Balance: 90, Multiplier: 2, HasOpenBet: true}
	err := c.Report(context.Background(), []*domain.MarketState{trackedMarket()}, staking)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "1 mkts")
	assert.Contains(t, out, "bal:90.00 x2")
	assert.Contains(t, out, "OPEN Federer 10.00@2.80")
}

func TestConsole_FullTable(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true, nil)

	staking := domain.StakingState{Balance: 100, Multiplier: 1}
	err := c.Report(context.Background(), []*domain.MarketState{trackedMarket()}, staking)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Nadal v Federer")
	assert.Contains(t, out, "IN_PLAY")
	assert.Contains(t, out, "6-4 2-1")
	assert.Contains(t, out, "multiplier: x1")
}

type fixedHistoryStore struct {
	settlements []domain.Settlement
}

func (f *fixedHistoryStore) SaveSettlement(_ context.Context, _ domain.Settlement) error {
	return nil
}

func (f *fixedHistoryStore) History(_ context.Context, _, _ time.Time) ([]domain.Settlement, error) {
	return f.settlements, nil
}

func (f *fixedHistoryStore) Close() error { return nil }

func TestConsole_FullTableIncludesRecentSettlements(t *testing.T) {
	var buf bytes.Buffer
	store := &fixedHistoryStore{settlements: []domain.Settlement{
		{MarketID: "1.111", Won: true, Profit: 19},
		{MarketID: "1.222", Won: false, Profit: -10},
	}}
	c := notify.NewConsoleWriter(&buf, true, store)

	err := c.Report(context.Background(), []*domain.MarketState{trackedMarket()},
		domain.StakingState{Balance: 109, Multiplier: 1})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "last 24h: 2 settled (1 won)  pnl: +9.00")
}

func TestConsole_NoMarkets(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false, nil)

	err := c.Report(context.Background(), nil, domain.StakingState{Balance: 100, Multiplier: 1})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "0 mkts")
}
