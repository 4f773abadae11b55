package bot

// The bot owns the market state store and processes every stream event from
// a single goroutine. The connection manager's read goroutine and the status
// ticker only enqueue; all state mutation happens inside Run's loop, so the
// store and the staking engine need no locks.

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/stream"
	"github.com/dyablohunter/betfair-underdog-bot/internal/application/staking"
	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
	"github.com/dyablohunter/betfair-underdog-bot/internal/ports"
)

// Sender is the outbound half of the stream connection.
type Sender interface {
	Send(v any) error
	NoteSubscribed()
}

// Config holds the bot parameters.
type Config struct {
	StatusInterval time.Duration
}

// Bot routes stream messages into market-state mutations and staking actions.
type Bot struct {
	cfg      Config
	markets  map[string]*domain.MarketState
	engine   *staking.Engine
	conn     Sender
	events   ports.EventLogger
	notifier ports.Notifier

	// connection-scoped; reset on every disconnect
	authenticated bool
	subscribed    bool
	nextSubID     int

	inbox chan envelope
}

type envelope struct {
	msg          *stream.Message
	disconnected bool
}

// New creates the bot with its initial market snapshot.
func New(cfg Config, markets []*domain.MarketState, engine *staking.Engine, conn Sender, events ports.EventLogger, notifier ports.Notifier) *Bot {
	byID := make(map[string]*domain.MarketState, len(markets))
	for _, m := range markets {
		byID[m.MarketID] = m
	}
	return &Bot{
		cfg:       cfg,
		markets:   byID,
		engine:    engine,
		conn:      conn,
		events:    events,
		notifier:  notifier,
		nextSubID: 1,
		inbox:     make(chan envelope, 256),
	}
}

// SetConn wires the stream connection. Must be called before Run; the bot
// and the connection reference each other, so one of them is wired late.
func (b *Bot) SetConn(conn Sender) {
	b.conn = conn
}

// OnMessage implements stream.Handler; called from the read goroutine.
func (b *Bot) OnMessage(msg stream.Message) {
	b.inbox <- envelope{msg: &msg}
}

// OnDisconnect implements stream.Handler.
func (b *Bot) OnDisconnect(_ error) {
	b.inbox <- envelope{disconnected: true}
}

// Run consumes events until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("bot stopped")
			return nil
		case env := <-b.inbox:
			if env.disconnected {
				b.handleDisconnect()
				continue
			}
			b.handleMessage(ctx, *env.msg)
		case <-ticker.C:
			b.report(ctx)
		}
	}
}

// handleDisconnect resets connection-scoped state; subscriptions do not
// survive a reconnect and are re-sent from scratch after re-authentication.
func (b *Bot) handleDisconnect() {
	b.authenticated = false
	b.subscribed = false
}

func (b *Bot) handleMessage(ctx context.Context, msg stream.Message) {
	switch msg.Op {
	case stream.OpStatus:
		b.handleStatus(msg)
	case stream.OpMarketChange:
		for _, mc := range msg.MC {
			b.handleMarketChange(ctx, mc)
		}
	case stream.OpOrderChange:
		for _, oc := range msg.OC {
			b.handleOrderChange(ctx, oc)
		}
	default:
		slog.Debug("ignoring stream message", "op", msg.Op)
	}
}

func (b *Bot) handleStatus(msg stream.Message) {
	if msg.StatusCode != stream.StatusSuccess {
		slog.Warn("stream status failure", "statusCode", msg.StatusCode, "id", msg.ID)
		return
	}
	if !b.authenticated {
		b.authenticated = true
		slog.Info("stream authenticated")
		b.subscribeAll()
	}
}

// report prints the periodic status table.
func (b *Bot) report(ctx context.Context) {
	if b.notifier == nil {
		return
	}
	snapshot := b.marketList()
	if err := b.notifier.Report(ctx, snapshot, b.engine.State()); err != nil {
		slog.Warn("status report failed", "err", err)
	}
}

// marketList returns the tracked markets sorted by id.
func (b *Bot) marketList() []*domain.MarketState {
	out := make([]*domain.MarketState, 0, len(b.markets))
	for _, m := range b.markets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketID < out[j].MarketID })
	return out
}

func (b *Bot) logEvent(m *domain.MarketState, rec domain.EventRecord) {
	if b.events == nil {
		return
	}
	if err := b.events.Write(m.EventID, rec); err != nil {
		slog.Warn("event log write failed", "event", m.EventID, "err", err)
	}
}
