package domain

import "time"

// Tipos de registro del log de eventos (JSONL por evento deportivo).
const (
	RecordBetPlaced      = "betPlaced"
	RecordBetEdited      = "betEdited"
	RecordOddsUpdate     = "oddsUpdate"
	RecordMarketExcluded = "marketExcluded"
	RecordBetOutcome     = "betOutcome"
	RecordMarketClosed   = "marketClosed"
)

// EventRecord es un registro append-only del log por evento. Write-only:
// el bot nunca lo vuelve a leer.
type EventRecord struct {
	Type        string    `json:"type"`
	At          time.Time `json:"at"`
	RecordID    string    `json:"recordId,omitempty"`
	MarketID    string    `json:"marketId,omitempty"`
	SelectionID int64     `json:"selectionId,omitempty"`
	Player      string    `json:"player,omitempty"`
	Size        float64   `json:"size,omitempty"`
	Price       float64   `json:"price,omitempty"`
	OddsA       float64   `json:"oddsA,omitempty"`
	OddsB       float64   `json:"oddsB,omitempty"`
	Profit      float64   `json:"profit,omitempty"`
	Balance     float64   `json:"balance,omitempty"`
	Multiplier  int       `json:"multiplier,omitempty"`
	Won         *bool     `json:"won,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}
