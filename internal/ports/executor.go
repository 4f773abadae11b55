package ports

import (
	"context"

	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
)

// BetRequest describes a single back bet to submit.
type BetRequest struct {
	MarketID    string
	SelectionID int64
	Size        float64
	Price       float64
}

// BetExecutor places and edits bets on the exchange.
// Implemented by the live REST gateway and by the in-memory simulator.
type BetExecutor interface {
	// PlaceBet submits a limit back bet and returns the exchange order id.
	PlaceBet(ctx context.Context, req BetRequest) (orderID string, err error)

	// ReplaceBet edits an open order to a new size and price.
	ReplaceBet(ctx context.Context, marketID, orderID string, newSize, newPrice float64) error
}

// MarketCatalogue fetches the initial set of markets to track.
type MarketCatalogue interface {
	// ListOpenMarkets returns the open match-odds markets matching the
	// configured filter. Retries internally a bounded number of times and
	// returns an empty slice once retries are exhausted.
	ListOpenMarkets(ctx context.Context) ([]*domain.MarketState, error)
}
