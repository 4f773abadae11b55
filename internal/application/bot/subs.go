package bot

// subs.go — subscription manager.

import (
	"log/slog"
	"sort"

	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/stream"
)

// subscriptionBatchSize is a hard protocol limit, not a tunable.
const subscriptionBatchSize = 10

// marketDataFields are the delta fields the bot needs.
var marketDataFields = []string{"EX_MARKET_DEF", "EX_BEST_OFFERS", "EX_LTP"}

// subscribeAll sends one market-data subscription per batch of open markets
// plus exactly one order-stream subscription. Idempotent per connection:
// once sent, repeated triggers are no-ops until the next reconnect.
func (b *Bot) subscribeAll() {
	if b.subscribed {
		return
	}

	ids := make([]string, 0, len(b.markets))
	for id, m := range b.markets {
		if m.Open {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	batches := 0
	for start := 0; start < len(ids); start += subscriptionBatchSize {
		end := start + subscriptionBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		sub := stream.MarketSubscription{
			Op:               stream.OpMarketSubscription,
			ID:               b.nextSubID,
			MarketFilter:     stream.MarketFilter{MarketIDs: ids[start:end]},
			MarketDataFilter: stream.MarketDataFilter{Fields: marketDataFields},
		}
		b.nextSubID++
		if err := b.conn.Send(sub); err != nil {
			slog.Warn("market subscription failed", "id", sub.ID, "err", err)
			return
		}
		batches++
	}

	orderSub := stream.OrderSubscription{Op: stream.OpOrderSubscription, ID: b.nextSubID}
	b.nextSubID++
	if err := b.conn.Send(orderSub); err != nil {
		slog.Warn("order subscription failed", "err", err)
		return
	}

	b.subscribed = true
	b.conn.NoteSubscribed()
	slog.Info("subscriptions sent", "markets", len(ids), "batches", batches)
}
