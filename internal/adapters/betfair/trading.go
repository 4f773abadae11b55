package betfair

// trading.go — real bet execution via the betting REST API.
//
// Implements ports.BetExecutor. All bets are placed as LIMIT back orders
// with LAPSE persistence.

import (
	"context"
	"fmt"

	"github.com/dyablohunter/betfair-underdog-bot/internal/ports"
)

// Trader places and edits real orders through the REST API.
type Trader struct {
	client *Client
}

// NewTrader creates the live executor.
func NewTrader(client *Client) *Trader {
	return &Trader{client: client}
}

// PlaceBet submits a limit back bet and returns the exchange betId.
func (t *Trader) PlaceBet(ctx context.Context, req ports.BetRequest) (string, error) {
	body := placeOrdersRequest{
		MarketID: req.MarketID,
		Instructions: []placeInstruction{{
			OrderType:   "LIMIT",
			SelectionID: req.SelectionID,
			Side:        "BACK",
			LimitOrder: limitOrder{
				Size:            req.Size,
				Price:           req.Price,
				PersistenceType: "LAPSE",
			},
		}},
	}

	var resp placeOrdersResponse
	if err := t.client.post(ctx, "/placeOrders/", body, &resp); err != nil {
		return "", fmt.Errorf("betfair.PlaceBet: %w", err)
	}
	if resp.Status != "SUCCESS" || len(resp.InstructionReports) == 0 {
		return "", fmt.Errorf("betfair.PlaceBet: rejected: %s %s", resp.Status, resp.ErrorCode)
	}
	report := resp.InstructionReports[0]
	if report.Status != "SUCCESS" || report.BetID == "" {
		return "", fmt.Errorf("betfair.PlaceBet: instruction rejected: %s %s",
			report.Status, report.ErrorCode)
	}
	return report.BetID, nil
}

// ReplaceBet edits an open order to a new size and price.
func (t *Trader) ReplaceBet(ctx context.Context, marketID, orderID string, newSize, newPrice float64) error {
	body := replaceOrdersRequest{
		MarketID: marketID,
		Instructions: []replaceInstruction{{
			BetID:    orderID,
			NewPrice: newPrice,
			NewSize:  newSize,
		}},
	}

	var resp replaceOrdersResponse
	if err := t.client.post(ctx, "/replaceOrders/", body, &resp); err != nil {
		return fmt.Errorf("betfair.ReplaceBet: %w", err)
	}
	if resp.Status != "SUCCESS" {
		return fmt.Errorf("betfair.ReplaceBet: rejected: %s %s", resp.Status, resp.ErrorCode)
	}
	return nil
}
