package staking

import (
	"context"
	"errors"
	"testing"

	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
	"github.com/dyablohunter/betfair-underdog-bot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(cfg Config) (*Engine, *domain.StakingState, *SimExecutor) {
	state := domain.NewStakingState(100, 0.05)
	exec := NewSimExecutor()
	return New(cfg, state, exec, nil, nil), state, exec
}

func directConfig() Config {
	return Config{Percentage: 0.10, MinStake: 1.0, Policy: PolicyDirect}
}

func inPlayMarket() *domain.MarketState {
	m := domain.NewMarketState("1.234", "ev-1", "Nadal", "Federer", 101, 202)
	m.Status = domain.StatusInPlay
	m.Odds = domain.Odds{PA: 1.5, PB: 2.5}
	return m
}

func TestEngine_FirstSetCloseLoss_PlacesBetOnUnderdog(t *testing.T) {
	e, state, exec := testEngine(directConfig())
	m := inPlayMarket()

	// 6-4: diff 2, B perdió el set, cuota del underdog 2.5
	e.EvaluateFirstSet(context.Background(), m, domain.SetScore{Home: 6, Away: 4, Completed: true})

	actions := exec.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, "place", actions[0].Kind)
	assert.Equal(t, int64(202), actions[0].SelectionID)
	// stake = 10% × 100 × 1
	assert.InDelta(t, 10, actions[0].Size, 0.001)
	assert.InDelta(t, 2.5, actions[0].Price, 0.001)

	require.NotNil(t, m.Bet)
	assert.True(t, state.HasOpenBet)
	assert.InDelta(t, 90, state.Balance, 0.001)
	assert.NotEmpty(t, m.LiveOrderID)
}

func TestEngine_MultiplierScalesStake(t *testing.T) {
	e, state, exec := testEngine(directConfig())
	state.Multiplier = 4
	m := inPlayMarket()
	m.Odds = domain.Odds{PA: 2.2, PB: 1.6}

	// 4-6: perdió A, cuota 2.2
	e.EvaluateFirstSet(context.Background(), m, domain.SetScore{Home: 4, Away: 6, Completed: true})

	actions := exec.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, int64(101), actions[0].SelectionID)
	// stake = 10% × 100 × 4
	assert.InDelta(t, 40, actions[0].Size, 0.001)
}

func TestEngine_OneSidedSet_NoBet(t *testing.T) {
	e, state, exec := testEngine(directConfig())
	m := inPlayMarket()

	// 6-1: diff 5 → nunca se apuesta, sin importar la cuota
	e.EvaluateFirstSet(context.Background(), m, domain.SetScore{Home: 6, Away: 1, Completed: true})

	assert.Empty(t, exec.Actions())
	assert.Nil(t, m.Bet)
	assert.False(t, state.HasOpenBet)
}

func TestEngine_UnderdogOddsBelowTwo_NoBet(t *testing.T) {
	e, _, exec := testEngine(directConfig())
	m := inPlayMarket()
	m.Odds = domain.Odds{PA: 1.5, PB: 1.9}

	e.EvaluateFirstSet(context.Background(), m, domain.SetScore{Home: 6, Away: 4, Completed: true})
	assert.Empty(t, exec.Actions())
}

func TestEngine_GlobalSingleBetInvariant(t *testing.T) {
	e, state, exec := testEngine(directConfig())
	m1 := inPlayMarket()
	m2 := domain.NewMarketState("1.567", "ev-2", "Alcaraz", "Sinner", 301, 402)
	m2.Status = domain.StatusInPlay
	m2.Odds = domain.Odds{PA: 1.4, PB: 3.0}

	set := domain.SetScore{Home: 6, Away: 4, Completed: true}
	e.EvaluateFirstSet(context.Background(), m1, set)
	e.EvaluateFirstSet(context.Background(), m2, set)

	// la segunda evaluación encuentra el flag global levantado → no-op
	require.Len(t, exec.Actions(), 1)
	assert.NotNil(t, m1.Bet)
	assert.Nil(t, m2.Bet)
	assert.True(t, state.HasOpenBet)
}

// flagCheckingExecutor asserts the open-bet flag is already committed when
// the (suspending) placement call starts.
type flagCheckingExecutor struct {
	state      *domain.StakingState
	sawFlagSet bool
}

func (f *flagCheckingExecutor) PlaceBet(_ context.Context, _ ports.BetRequest) (string, error) {
	f.sawFlagSet = f.state.HasOpenBet
	return "order-1", nil
}

func (f *flagCheckingExecutor) ReplaceBet(_ context.Context, _, _ string, _, _ float64) error {
	return nil
}

func TestEngine_FlagCommittedBeforePlacementCall(t *testing.T) {
	state := domain.NewStakingState(100, 0.05)
	exec := &flagCheckingExecutor{state: state}
	e := New(directConfig(), state, exec, nil, nil)
	m := inPlayMarket()

	e.EvaluateFirstSet(context.Background(), m, domain.SetScore{Home: 6, Away: 4, Completed: true})

	assert.True(t, exec.sawFlagSet,
		"open-bet flag must be set before the executor call suspends")
}

type failingExecutor struct{}

func (failingExecutor) PlaceBet(_ context.Context, _ ports.BetRequest) (string, error) {
	return "", errors.New("network down")
}

func (failingExecutor) ReplaceBet(_ context.Context, _, _ string, _, _ float64) error {
	return errors.New("network down")
}

func TestEngine_FailedPlacementRollsBackIntent(t *testing.T) {
	state := domain.NewStakingState(100, 0.05)
	e := New(directConfig(), state, failingExecutor{}, nil, nil)
	m := inPlayMarket()

	e.EvaluateFirstSet(context.Background(), m, domain.SetScore{Home: 6, Away: 4, Completed: true})

	assert.Nil(t, m.Bet)
	assert.False(t, state.HasOpenBet)
	assert.InDelta(t, 100, state.Balance, 0.001)
}

func TestEngine_AggressivePolicy_PlaceAtMaxThenEdit(t *testing.T) {
	cfg := directConfig()
	cfg.Policy = PolicyAggressive
	cfg.MinStake = 2.0
	e, _, exec := testEngine(cfg)
	m := inPlayMarket()

	e.EvaluateFirstSet(context.Background(), m, domain.SetScore{Home: 6, Away: 4, Completed: true})

	actions := exec.Actions()
	require.Len(t, actions, 2)

	assert.Equal(t, "place", actions[0].Kind)
	assert.InDelta(t, 2.0, actions[0].Size, 0.001)
	assert.InDelta(t, maxPrice, actions[0].Price, 0.001)

	assert.Equal(t, "replace", actions[1].Kind)
	assert.Equal(t, actions[0].OrderID, actions[1].OrderID)
	assert.InDelta(t, residualSize, actions[1].Size, 0.001)
	assert.InDelta(t, 2.5, actions[1].Price, 0.001)

	// la apuesta registrada usa el precio observado, no el máximo
	require.NotNil(t, m.Bet)
	assert.InDelta(t, 2.5, m.Bet.Price, 0.001)
}

func TestEngine_SettleMarket_Loss(t *testing.T) {
	e, state, _ := testEngine(directConfig())
	m := inPlayMarket()

	e.EvaluateFirstSet(context.Background(), m, domain.SetScore{Home: 6, Away: 4, Completed: true})
	require.NotNil(t, m.Bet)
	require.InDelta(t, 90, state.Balance, 0.001)

	// gana A (101): la apuesta era a B → pérdida
	e.SettleMarket(context.Background(), m, 101)

	assert.Nil(t, m.Bet)
	assert.InDelta(t, 90, state.Balance, 0.001) // el stake ya había salido
	assert.Equal(t, 2, state.Multiplier)
	assert.False(t, state.HasOpenBet)
}

func TestEngine_SettleMarket_Win(t *testing.T) {
	e, state, _ := testEngine(directConfig())
	m := inPlayMarket()
	m.Odds.PB = 3.0

	e.EvaluateFirstSet(context.Background(), m, domain.SetScore{Home: 6, Away: 4, Completed: true})
	require.NotNil(t, m.Bet)

	// gana B (202): profit = (3-1) × 10 × 0.95 = 19
	e.SettleMarket(context.Background(), m, 202)

	assert.Nil(t, m.Bet)
	assert.InDelta(t, 119, state.Balance, 0.001) // 90 + 19 + 10
	assert.Equal(t, 1, state.Multiplier)
}

func TestEngine_SettleLive_UsesReportedProfit(t *testing.T) {
	e, state, _ := testEngine(directConfig())
	m := inPlayMarket()

	e.EvaluateFirstSet(context.Background(), m, domain.SetScore{Home: 6, Away: 4, Completed: true})
	require.NotNil(t, m.Bet)

	// el exchange reporta la ganancia realizada, no se recalcula
	e.SettleLive(context.Background(), m, 12.34)

	assert.Nil(t, m.Bet)
	assert.InDelta(t, 90+12.34+10, state.Balance, 0.001)
	assert.Equal(t, 1, state.Multiplier)
}

func TestEngine_TestBetTrigger(t *testing.T) {
	cfg := directConfig()
	cfg.TestMode = true
	cfg.TestTargetOdds = 1.5
	cfg.TestTolerance = 0.05
	e, state, exec := testEngine(cfg)

	m := inPlayMarket() // PA=1.5 dentro de tolerancia, PB=2.5 no
	e.EvaluateTestBet(context.Background(), m)

	actions := exec.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, int64(101), actions[0].SelectionID) // A se comprueba antes que B
	assert.True(t, state.TestBetPlaced)

	// una sola test bet por ciclo
	e.EvaluateTestBet(context.Background(), m)
	assert.Len(t, exec.Actions(), 1)
}

// recoveringExecutor fails the first placement and succeeds afterwards.
type recoveringExecutor struct {
	failed bool
	inner  *SimExecutor
}

func (r *recoveringExecutor) PlaceBet(ctx context.Context, req ports.BetRequest) (string, error) {
	if !r.failed {
		r.failed = true
		return "", errors.New("network down")
	}
	return r.inner.PlaceBet(ctx, req)
}

func (r *recoveringExecutor) ReplaceBet(_ context.Context, _, _ string, _, _ float64) error {
	return nil
}

func TestEngine_TestBetRetriesAfterFailedPlacement(t *testing.T) {
	cfg := directConfig()
	cfg.TestMode = true
	cfg.TestTargetOdds = 1.5
	cfg.TestTolerance = 0.05

	state := domain.NewStakingState(100, 0.05)
	exec := &recoveringExecutor{inner: NewSimExecutor()}
	e := New(cfg, state, exec, nil, nil)
	m := inPlayMarket()

	// primera colocación falla: el ciclo queda limpio, no consumido
	e.EvaluateTestBet(context.Background(), m)
	assert.Empty(t, exec.inner.Actions())
	assert.False(t, state.TestBetPlaced)
	assert.False(t, state.HasOpenBet)
	assert.InDelta(t, 100, state.Balance, 0.001)

	// con las mismas cuotas, el siguiente delta vuelve a disparar
	e.EvaluateTestBet(context.Background(), m)
	require.Len(t, exec.inner.Actions(), 1)
	assert.True(t, state.TestBetPlaced)
}

func TestEngine_TestBetOutsideTolerance_NoBet(t *testing.T) {
	cfg := directConfig()
	cfg.TestMode = true
	cfg.TestTargetOdds = 1.5
	cfg.TestTolerance = 0.05
	e, _, exec := testEngine(cfg)

	m := inPlayMarket()
	m.Odds = domain.Odds{PA: 1.8, PB: 2.5}
	e.EvaluateTestBet(context.Background(), m)
	assert.Empty(t, exec.Actions())
}
