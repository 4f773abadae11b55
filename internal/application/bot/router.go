package bot

// router.go — per-market routing of mcm/ocm deltas.

import (
	"context"
	"log/slog"

	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/stream"
	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
)

func (b *Bot) handleMarketChange(ctx context.Context, mc stream.MarketChange) {
	m, ok := b.markets[mc.ID]
	if !ok {
		// not tracked, or already closed/excluded
		return
	}

	def := mc.MarketDefinition

	if def != nil && def.Status == stream.MarketStatusClosed {
		b.closeMarket(ctx, m, def)
		return
	}

	inPlay := def != nil && def.InPlay
	hasScore := def != nil && def.Score != nil && len(def.Score.Sets) > 0

	// Exclusion rule: a live match whose feed carries no score data can never
	// trigger the first-set condition, so it is dropped from tracking for
	// good. Only applies outside test mode.
	if !b.engine.TestMode() && inPlay && def != nil && !hasScore {
		b.excludeMarket(m)
		return
	}

	b.applyOdds(m, mc.RC)

	if inPlay {
		m.Status = domain.StatusInPlay
	} else if def != nil {
		m.Status = domain.StatusUpcoming
	}

	if b.engine.TestMode() {
		if inPlay {
			b.engine.EvaluateTestBet(ctx, m)
		}
		return
	}

	if hasScore {
		m.Sets = convertSets(def.Score.Sets)
		if !m.FirstSetEnded && m.Sets[0].Completed {
			m.FirstSetEnded = true
			slog.Info("first set ended",
				"market", m.MarketID, "home", m.Sets[0].Home, "away", m.Sets[0].Away)
			b.engine.EvaluateFirstSet(ctx, m, m.Sets[0])
		}
	}
}

// applyOdds folds runner deltas into the market, skipping unusable prices.
func (b *Bot) applyOdds(m *domain.MarketState, rcs []stream.RunnerChange) {
	for _, rc := range rcs {
		price := rc.BestBack()
		if price == 0 {
			slog.Debug("runner delta carries no usable price",
				"market", m.MarketID, "selection", rc.ID)
			continue
		}
		if !domain.ValidPrice(price) {
			slog.Warn("ignoring invalid odds",
				"market", m.MarketID, "selection", rc.ID, "price", price)
			continue
		}
		if !m.SetOdds(rc.ID, price) {
			slog.Warn("odds for unknown selection",
				"market", m.MarketID, "selection", rc.ID)
			continue
		}
		b.logEvent(m, domain.EventRecord{
			Type:        domain.RecordOddsUpdate,
			MarketID:    m.MarketID,
			SelectionID: rc.ID,
			Price:       price,
			OddsA:       m.Odds.PA,
			OddsB:       m.Odds.PB,
		})
	}
}

// closeMarket settles any open bet against the winner runner and removes the
// market from tracking. A duplicate CLOSED delta finds the market gone and is
// a no-op.
func (b *Bot) closeMarket(ctx context.Context, m *domain.MarketState, def *stream.MarketDefinition) {
	winner := winnerSelection(def)
	if m.Bet != nil {
		b.engine.SettleMarket(ctx, m, winner)
	}

	m.Status = domain.StatusEnded
	m.Open = false

	b.logEvent(m, domain.EventRecord{
		Type:     domain.RecordMarketClosed,
		MarketID: m.MarketID,
		Player:   m.PlayerFor(winner),
	})
	slog.Info("market closed", "market", m.MarketID, "winner", m.PlayerFor(winner))

	delete(b.markets, m.MarketID)
}

// excludeMarket drops a market from tracking permanently.
func (b *Bot) excludeMarket(m *domain.MarketState) {
	m.Open = false
	b.logEvent(m, domain.EventRecord{
		Type:     domain.RecordMarketExcluded,
		MarketID: m.MarketID,
		Reason:   "in-play without score data",
	})
	slog.Info("market excluded", "market", m.MarketID, "reason", "in-play without score data")
	delete(b.markets, m.MarketID)
}

// handleOrderChange settles from the order stream: an execution-complete
// report for the tracked live order carries the realized profit.
func (b *Bot) handleOrderChange(ctx context.Context, oc stream.OrderChange) {
	m, ok := b.markets[oc.MarketID]
	if !ok {
		return
	}
	for _, or := range oc.OR {
		if or.Status != stream.OrderStatusComplete {
			continue
		}
		if m.Bet == nil || m.LiveOrderID == "" || or.BetID != m.LiveOrderID {
			continue
		}
		b.engine.SettleLive(ctx, m, or.Profit)
	}
}

func winnerSelection(def *stream.MarketDefinition) int64 {
	for _, r := range def.Runners {
		if r.Status == stream.RunnerStatusWinner {
			return r.ID
		}
	}
	return 0
}

func convertSets(in []stream.SetScore) []domain.SetScore {
	out := make([]domain.SetScore, len(in))
	for i, s := range in {
		out[i] = domain.SetScore{Home: s.Home, Away: s.Away, Completed: s.Completed}
	}
	return out
}
