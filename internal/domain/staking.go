package domain

import "time"

// StakingState es el estado global de staking del proceso.
//
// HasOpenBet es la única fuente de verdad de "hay una apuesta abierta":
// aplica a TODOS los mercados a la vez (una sola apuesta simultánea en todo
// el bot, no por mercado). Se escribe exclusivamente desde el Staking Engine,
// y siempre de forma síncrona antes de cualquier llamada que suspenda.
type StakingState struct {
	Balance       float64
	Multiplier    int // martingala: potencia de dos >= 1
	HasOpenBet    bool
	TestBetPlaced bool
	Commission    float64 // comisión del exchange sobre ganancias netas
}

// NewStakingState crea el estado inicial con multiplicador 1.
func NewStakingState(balance, commission float64) *StakingState {
	return &StakingState{
		Balance:    balance,
		Multiplier: 1,
		Commission: commission,
	}
}

// Stake calcula el tamaño de la próxima apuesta bajo la política porcentual.
func (s *StakingState) Stake(percentage float64) float64 {
	return percentage * s.Balance * float64(s.Multiplier)
}

// PlaceStake registra la salida de fondos de una apuesta y levanta el flag global.
func (s *StakingState) PlaceStake(size float64) {
	s.Balance -= size
	s.HasOpenBet = true
}

// SettleWin liquida una apuesta ganada: acredita ganancia + stake devuelto,
// resetea el multiplicador a 1 y limpia los flags del ciclo.
// Devuelve la ganancia neta.
func (s *StakingState) SettleWin(size, price float64) float64 {
	profit := (price - 1) * size * (1 - s.Commission)
	s.Balance += profit + size
	s.Multiplier = 1
	s.clearCycle()
	return profit
}

// SettleLoss liquida una apuesta perdida: el stake ya salió del balance al
// colocarla, así que solo duplica el multiplicador y limpia los flags.
// Devuelve la pérdida como ganancia negativa.
func (s *StakingState) SettleLoss(size float64) float64 {
	s.Multiplier *= 2
	s.clearCycle()
	return -size
}

// SettleReported liquida usando la ganancia realizada que reporta el
// exchange (modo live), sin recalcularla. Ganancia >= 0 cuenta como victoria.
func (s *StakingState) SettleReported(size, profit float64) float64 {
	if profit >= 0 {
		s.Balance += profit + size
		s.Multiplier = 1
	} else {
		s.Multiplier *= 2
	}
	s.clearCycle()
	return profit
}

func (s *StakingState) clearCycle() {
	s.HasOpenBet = false
	s.TestBetPlaced = false
}

// Settlement es el resultado persistido de una apuesta liquidada.
type Settlement struct {
	MarketID         string
	EventID          string
	Player           string
	SelectionID      int64
	Size             float64
	Price            float64
	Won              bool
	Profit           float64
	MultiplierBefore int
	MultiplierAfter  int
	BalanceAfter     float64
	SettledAt        time.Time
}
