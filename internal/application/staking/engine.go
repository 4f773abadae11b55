package staking

// Staking engine: turns market-state transitions into bet actions and owns
// every mutation of the process-wide StakingState.
//
// The one-bet-at-a-time rule is global across all markets. The open-bet flag
// and the market's bet record are committed in the same synchronous step,
// BEFORE the executor call is issued: the call suspends, and a second stream
// message must never find the flag unset while a placement is in flight.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
	"github.com/dyablohunter/betfair-underdog-bot/internal/ports"
)

// Policy selects how orders are sized and placed.
type Policy string

const (
	// PolicyDirect places a percentage-of-balance stake at the observed price.
	PolicyDirect Policy = "direct"
	// PolicyAggressive places a fixed minimal stake at the exchange maximum
	// price (guaranteeing an immediate match), then edits the unmatched
	// remainder down to a negligible residual at the observed price.
	PolicyAggressive Policy = "aggressive"

	// maxPrice is the exchange price ceiling.
	maxPrice = 1000.0
	// residualSize is the size the aggressive edit leaves unmatched.
	residualSize = 0.01
)

// Config holds the staking parameters.
type Config struct {
	Percentage     float64
	MinStake       float64
	Policy         Policy
	TestMode       bool
	TestTargetOdds float64
	TestTolerance  float64
}

// Engine decides whether and how to bet, and settles outcomes.
type Engine struct {
	cfg    Config
	state  *domain.StakingState
	exec   ports.BetExecutor
	events ports.EventLogger
	store  ports.BetStore
}

// New creates the engine. store may be nil (no ledger persistence).
func New(cfg Config, state *domain.StakingState, exec ports.BetExecutor, events ports.EventLogger, store ports.BetStore) *Engine {
	return &Engine{cfg: cfg, state: state, exec: exec, events: events, store: store}
}

// State returns a copy of the staking state for reporting.
func (e *Engine) State() domain.StakingState {
	return *e.state
}

// TestMode reports whether the test-bet trigger is active.
func (e *Engine) TestMode() bool {
	return e.cfg.TestMode
}

// EvaluateFirstSet applies the staking condition when the first set ends:
// games diff <= 2 and the set loser's odds >= 2 → back the underdog.
func (e *Engine) EvaluateFirstSet(ctx context.Context, m *domain.MarketState, set domain.SetScore) {
	if e.state.HasOpenBet {
		return
	}
	if set.Diff() > 2 {
		slog.Debug("first set too one-sided, no bet",
			"market", m.MarketID, "home", set.Home, "away", set.Away)
		return
	}
	loser, ok := m.SetLoser(set)
	if !ok {
		return
	}
	odds := m.OddsFor(loser)
	if odds < 2 {
		slog.Debug("underdog odds below threshold, no bet",
			"market", m.MarketID, "odds", odds)
		return
	}

	stake := e.stakeSize()
	slog.Info("staking condition met",
		"market", m.MarketID, "underdog", m.PlayerFor(loser),
		"odds", odds, "stake", stake, "multiplier", e.state.Multiplier)
	if err := e.place(ctx, m, loser, stake, odds); err != nil {
		slog.Warn("bet placement failed", "market", m.MarketID, "err", err)
	}
}

// EvaluateTestBet applies the test-mode trigger: one bet per cycle on the
// first side whose odds land within tolerance of the target (A before B).
func (e *Engine) EvaluateTestBet(ctx context.Context, m *domain.MarketState) {
	if !e.cfg.TestMode || e.state.TestBetPlaced || e.state.HasOpenBet {
		return
	}

	var selection int64
	switch {
	case withinTolerance(m.Odds.PA, e.cfg.TestTargetOdds, e.cfg.TestTolerance):
		selection = m.SelectionA
	case withinTolerance(m.Odds.PB, e.cfg.TestTargetOdds, e.cfg.TestTolerance):
		selection = m.SelectionB
	default:
		return
	}

	odds := m.OddsFor(selection)
	slog.Info("test bet trigger", "market", m.MarketID,
		"player", m.PlayerFor(selection), "odds", odds)
	e.state.TestBetPlaced = true
	if err := e.place(ctx, m, selection, e.stakeSize(), odds); err != nil {
		slog.Warn("test bet placement failed", "market", m.MarketID, "err", err)
	}
}

func withinTolerance(odds, target, tol float64) bool {
	if odds == 0 {
		return false
	}
	d := odds - target
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func (e *Engine) stakeSize() float64 {
	if e.cfg.Policy == PolicyAggressive {
		return e.cfg.MinStake
	}
	return e.state.Stake(e.cfg.Percentage)
}

// place commits the bet intent, then drives the configured placement policy.
func (e *Engine) place(ctx context.Context, m *domain.MarketState, selection int64, stake, price float64) error {
	// Commit first: flag and bet record become visible before any suspension.
	m.Bet = &domain.Bet{SelectionID: selection, Size: stake, Price: price}
	e.state.PlaceStake(stake)

	submitPrice := price
	if e.cfg.Policy == PolicyAggressive {
		submitPrice = maxPrice
	}

	orderID, err := e.exec.PlaceBet(ctx, ports.BetRequest{
		MarketID:    m.MarketID,
		SelectionID: selection,
		Size:        stake,
		Price:       submitPrice,
	})
	if err != nil {
		// Undo the intent so a future trigger can fire again.
		m.Bet = nil
		e.state.Balance += stake
		e.state.HasOpenBet = false
		e.state.TestBetPlaced = false
		return fmt.Errorf("staking.place: %w", err)
	}
	m.LiveOrderID = orderID

	e.logEvent(m, domain.EventRecord{
		Type:        domain.RecordBetPlaced,
		MarketID:    m.MarketID,
		SelectionID: selection,
		Player:      m.PlayerFor(selection),
		Size:        stake,
		Price:       price,
		Balance:     e.state.Balance,
		Multiplier:  e.state.Multiplier,
	})

	if e.cfg.Policy == PolicyAggressive {
		// Cap the exposure of any unmatched remainder at the observed price.
		if err := e.exec.ReplaceBet(ctx, m.MarketID, orderID, residualSize, price); err != nil {
			slog.Warn("aggressive edit failed, remainder stays at max price",
				"market", m.MarketID, "order", orderID, "err", err)
		} else {
			e.logEvent(m, domain.EventRecord{
				Type:        domain.RecordBetEdited,
				MarketID:    m.MarketID,
				SelectionID: selection,
				Size:        residualSize,
				Price:       price,
			})
		}
	}
	return nil
}

// SettleMarket settles the open bet from a market-closed transition, deciding
// win/lose by whether the winner runner matches the bet's selection.
func (e *Engine) SettleMarket(ctx context.Context, m *domain.MarketState, winner int64) {
	bet := m.Bet
	if bet == nil {
		return
	}
	won := bet.SelectionID == winner

	before := e.state.Multiplier
	var profit float64
	if won {
		profit = e.state.SettleWin(bet.Size, bet.Price)
	} else {
		profit = e.state.SettleLoss(bet.Size)
	}
	e.finishSettlement(ctx, m, bet, won, profit, before)
}

// SettleLive settles the open bet from an order-stream execution report,
// using the realized profit the exchange reports instead of recomputing it.
func (e *Engine) SettleLive(ctx context.Context, m *domain.MarketState, reportedProfit float64) {
	bet := m.Bet
	if bet == nil {
		return
	}
	before := e.state.Multiplier
	profit := e.state.SettleReported(bet.Size, reportedProfit)
	e.finishSettlement(ctx, m, bet, profit >= 0, profit, before)
}

func (e *Engine) finishSettlement(ctx context.Context, m *domain.MarketState, bet *domain.Bet, won bool, profit float64, multiplierBefore int) {
	m.Bet = nil
	m.LiveOrderID = ""

	slog.Info("bet settled",
		"market", m.MarketID, "player", m.PlayerFor(bet.SelectionID),
		"won", won, "profit", profit,
		"balance", e.state.Balance, "multiplier", e.state.Multiplier)

	e.logEvent(m, domain.EventRecord{
		Type:        domain.RecordBetOutcome,
		MarketID:    m.MarketID,
		SelectionID: bet.SelectionID,
		Player:      m.PlayerFor(bet.SelectionID),
		Size:        bet.Size,
		Price:       bet.Price,
		Profit:      profit,
		Balance:     e.state.Balance,
		Multiplier:  e.state.Multiplier,
		Won:         &won,
	})

	if e.store == nil {
		return
	}
	err := e.store.SaveSettlement(ctx, domain.Settlement{
		MarketID:         m.MarketID,
		EventID:          m.EventID,
		Player:           m.PlayerFor(bet.SelectionID),
		SelectionID:      bet.SelectionID,
		Size:             bet.Size,
		Price:            bet.Price,
		Won:              won,
		Profit:           profit,
		MultiplierBefore: multiplierBefore,
		MultiplierAfter:  e.state.Multiplier,
		BalanceAfter:     e.state.Balance,
		SettledAt:        time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to persist settlement", "market", m.MarketID, "err", err)
	}
}

func (e *Engine) logEvent(m *domain.MarketState, rec domain.EventRecord) {
	if e.events == nil {
		return
	}
	if err := e.events.Write(m.EventID, rec); err != nil {
		slog.Warn("event log write failed", "event", m.EventID, "err", err)
	}
}
