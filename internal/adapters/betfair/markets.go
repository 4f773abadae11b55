package betfair

// markets.go — initial market catalogue fetch.

import (
	"context"
	"log/slog"
	"time"

	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
)

const (
	catalogueAttempts = 3
	catalogueBackoff  = 2 * time.Second
)

// CatalogueFilter selects which markets the bot tracks.
type CatalogueFilter struct {
	EventTypeID string // "2" = tennis
	MarketType  string // MATCH_ODDS
	MaxMarkets  int
}

// Catalogue implements ports.MarketCatalogue over the REST API.
type Catalogue struct {
	client *Client
	filter CatalogueFilter
}

// NewCatalogue creates a catalogue fetcher with the given filter.
func NewCatalogue(client *Client, filter CatalogueFilter) *Catalogue {
	return &Catalogue{client: client, filter: filter}
}

// ListOpenMarkets fetches the open match-odds markets. Retries a bounded
// number of times with a fixed backoff; once exhausted it returns an empty
// slice so the caller can decide whether that is fatal.
func (cat *Catalogue) ListOpenMarkets(ctx context.Context) ([]*domain.MarketState, error) {
	req := catalogueRequest{
		Filter: marketFilter{
			EventTypeIDs:    []string{cat.filter.EventTypeID},
			MarketTypeCodes: []string{cat.filter.MarketType},
		},
		MarketProjection: []string{"EVENT", "RUNNER_DESCRIPTION"},
		MaxResults:       cat.filter.MaxMarkets,
		Sort:             "FIRST_TO_START",
	}

	var entries []catalogueEntry
	for attempt := 1; attempt <= catalogueAttempts; attempt++ {
		err := cat.client.post(ctx, "/listMarketCatalogue/", req, &entries)
		if err == nil {
			break
		}
		slog.Warn("market catalogue fetch failed",
			"attempt", attempt, "of", catalogueAttempts, "err", err)
		if attempt == catalogueAttempts {
			return nil, nil
		}
		select {
		case <-time.After(catalogueBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	markets := make([]*domain.MarketState, 0, len(entries))
	for _, e := range entries {
		// solo mercados de dos resultados (match odds de tenis)
		if len(e.Runners) != 2 {
			slog.Debug("skipping market with unexpected runner count",
				"market", e.MarketID, "runners", len(e.Runners))
			continue
		}
		markets = append(markets, domain.NewMarketState(
			e.MarketID,
			e.Event.ID,
			e.Runners[0].RunnerName,
			e.Runners[1].RunnerName,
			e.Runners[0].SelectionID,
			e.Runners[1].SelectionID,
		))
	}
	return markets, nil
}
