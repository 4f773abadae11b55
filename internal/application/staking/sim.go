package staking

// Simulated executor: an in-memory ledger of bet actions, used instead of the
// REST gateway when the bot runs in simulation.

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dyablohunter/betfair-underdog-bot/internal/ports"
)

// SimAction is one recorded executor call.
type SimAction struct {
	Kind        string // "place" | "replace"
	MarketID    string
	SelectionID int64
	OrderID     string
	Size        float64
	Price       float64
}

// SimExecutor implements ports.BetExecutor without touching the network.
type SimExecutor struct {
	mu      sync.Mutex
	actions []SimAction
}

// NewSimExecutor creates an empty simulated ledger.
func NewSimExecutor() *SimExecutor {
	return &SimExecutor{}
}

// PlaceBet records the placement and returns a synthetic order id.
func (s *SimExecutor) PlaceBet(_ context.Context, req ports.BetRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orderID := "sim-" + uuid.New().String()
	s.actions = append(s.actions, SimAction{
		Kind:        "place",
		MarketID:    req.MarketID,
		SelectionID: req.SelectionID,
		OrderID:     orderID,
		Size:        req.Size,
		Price:       req.Price,
	})
	return orderID, nil
}

// ReplaceBet records the edit.
func (s *SimExecutor) ReplaceBet(_ context.Context, marketID, orderID string, newSize, newPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, SimAction{
		Kind:     "replace",
		MarketID: marketID,
		OrderID:  orderID,
		Size:     newSize,
		Price:    newPrice,
	})
	return nil
}

// Actions returns a copy of the recorded ledger.
func (s *SimExecutor) Actions() []SimAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SimAction, len(s.actions))
	copy(out, s.actions)
	return out
}
