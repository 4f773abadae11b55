package domain

import "math"

// Status es el estado del ciclo de vida de un mercado.
type Status string

const (
	StatusUpcoming Status = "UPCOMING"
	StatusInPlay   Status = "IN_PLAY"
	StatusEnded    Status = "ENDED"
)

// SetScore es el marcador de un set tal como lo reporta el exchange.
type SetScore struct {
	Home      int
	Away      int
	Completed bool
}

// Diff devuelve la diferencia absoluta de juegos del set.
func (s SetScore) Diff() int {
	d := s.Home - s.Away
	if d < 0 {
		return -d
	}
	return d
}

// Odds son las cuotas back actuales de los dos lados del mercado.
// Cero significa "sin valor todavía"; un valor presente siempre es > 1 y finito.
type Odds struct {
	PA float64
	PB float64
}

// Bet es la apuesta abierta sobre un mercado, si existe.
type Bet struct {
	SelectionID int64
	Size        float64
	Price       float64
}

// MarketState es el estado completo de un partido (un mercado MATCH_ODDS).
type MarketState struct {
	MarketID   string
	EventID    string
	PlayerA    string
	PlayerB    string
	SelectionA int64
	SelectionB int64

	Odds          Odds
	Sets          []SetScore
	FirstSetEnded bool // latch: el trigger de "fin del primer set" dispara una sola vez
	Open          bool
	Status        Status

	Bet         *Bet
	LiveOrderID string // betId del order stream en modo live
}

// NewMarketState crea el estado inicial de un mercado recién cargado del catálogo.
func NewMarketState(marketID, eventID, playerA, playerB string, selA, selB int64) *MarketState {
	return &MarketState{
		MarketID:   marketID,
		EventID:    eventID,
		PlayerA:    playerA,
		PlayerB:    playerB,
		SelectionA: selA,
		SelectionB: selB,
		Open:       true,
		Status:     StatusUpcoming,
	}
}

// ValidPrice devuelve true si el precio es una cuota back usable: finito y > 1.
// Valores <= 1, cero, NaN o infinito nunca se almacenan.
func ValidPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 1
}

// SetOdds actualiza la cuota del lado cuya selección coincide.
// Devuelve false si la selección no pertenece al mercado o el precio no es válido.
func (m *MarketState) SetOdds(selectionID int64, price float64) bool {
	if !ValidPrice(price) {
		return false
	}
	switch selectionID {
	case m.SelectionA:
		m.Odds.PA = price
	case m.SelectionB:
		m.Odds.PB = price
	default:
		return false
	}
	return true
}

// OddsFor devuelve la cuota actual de la selección dada (0 si no hay valor).
func (m *MarketState) OddsFor(selectionID int64) float64 {
	switch selectionID {
	case m.SelectionA:
		return m.Odds.PA
	case m.SelectionB:
		return m.Odds.PB
	}
	return 0
}

// PlayerFor devuelve el nombre del jugador de la selección dada.
func (m *MarketState) PlayerFor(selectionID int64) string {
	switch selectionID {
	case m.SelectionA:
		return m.PlayerA
	case m.SelectionB:
		return m.PlayerB
	}
	return ""
}

// SetLoser devuelve la selección que perdió el set dado.
// ok es false si el set quedó empatado (no hay perdedor).
func (m *MarketState) SetLoser(s SetScore) (selectionID int64, ok bool) {
	switch {
	case s.Home > s.Away:
		return m.SelectionB, true
	case s.Away > s.Home:
		return m.SelectionA, true
	}
	return 0, false
}
