package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
	"github.com/dyablohunter/betfair-underdog-bot/internal/ports"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
	store ports.BetStore // opcional; habilita el resumen de liquidaciones
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool, store ports.BetStore) *Console {
	return &Console{out: os.Stdout, table: table, store: store}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool, store ports.BetStore) *Console {
	return &Console{out: w, table: table, store: store}
}

// Report imprime el estado actual en el modo configurado.
func (c *Console) Report(ctx context.Context, markets []*domain.MarketState, staking domain.StakingState) error {
	if c.table {
		c.printFull(ctx, markets, staking)
	} else {
		c.printCompact(markets, staking)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(markets []*domain.MarketState, staking domain.StakingState) {
	now := time.Now().Format("15:04:05")
	inPlay, upcoming := countByStatus(markets)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mkts → live:%d upcoming:%d | bal:%.2f x%d",
		now, len(markets), inPlay, upcoming, staking.Balance, staking.Multiplier)
	if staking.HasOpenBet {
		if m := openBetMarket(markets); m != nil {
			fmt.Fprintf(&sb, " | OPEN %s %.2f@%.2f",
				m.PlayerFor(m.Bet.SelectionID), m.Bet.Size, m.Bet.Price)
		} else {
			sb.WriteString(" | OPEN bet pending")
		}
	}
	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa de mercados trackeados.
func (c *Console) printFull(ctx context.Context, markets []*domain.MarketState, staking domain.StakingState) {
	now := time.Now().Format("15:04:05")
	inPlay, upcoming := countByStatus(markets)

	fmt.Fprintf(c.out, "\n[%s] %d markets — live:%d upcoming:%d\n",
		now, len(markets), inPlay, upcoming)

	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Match", "Status", "Score", "Odds A", "Odds B", "Bet")

	for _, m := range markets {
		table.Append(
			m.MarketID,
			matchLabel(m),
			string(m.Status),
			scoreLabel(m),
			oddsLabel(m.Odds.PA),
			oddsLabel(m.Odds.PB),
			betLabel(m),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  balance: %.2f  multiplier: x%d  open bet: %v\n",
		staking.Balance, staking.Multiplier, staking.HasOpenBet)
	if c.store != nil {
		c.printRecent(ctx)
	}
	fmt.Fprintln(c.out)
}

// printRecent resume las liquidaciones de las últimas 24 horas.
func (c *Console) printRecent(ctx context.Context) {
	now := time.Now()
	history, err := c.store.History(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		fmt.Fprintf(c.out, "  history unavailable: %v\n", err)
		return
	}
	if len(history) == 0 {
		return
	}
	wins := 0
	var pnl float64
	for _, s := range history {
		if s.Won {
			wins++
		}
		pnl += s.Profit
	}
	fmt.Fprintf(c.out, "  last 24h: %d settled (%d won)  pnl: %+.2f\n",
		len(history), wins, pnl)
}

func countByStatus(markets []*domain.MarketState) (inPlay, upcoming int) {
	for _, m := range markets {
		switch m.Status {
		case domain.StatusInPlay:
			inPlay++
		case domain.StatusUpcoming:
			upcoming++
		}
	}
	return inPlay, upcoming
}

func openBetMarket(markets []*domain.MarketState) *domain.MarketState {
	for _, m := range markets {
		if m.Bet != nil {
			return m
		}
	}
	return nil
}

func matchLabel(m *domain.MarketState) string {
	label := fmt.Sprintf("%s v %s", m.PlayerA, m.PlayerB)
	if len(label) > 34 {
		label = label[:31] + "..."
	}
	return label
}

func scoreLabel(m *domain.MarketState) string {
	if len(m.Sets) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(m.Sets))
	for _, s := range m.Sets {
		parts = append(parts, fmt.Sprintf("%d-%d", s.Home, s.Away))
	}
	return strings.Join(parts, " ")
}

func oddsLabel(p float64) string {
	if p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", p)
}

func betLabel(m *domain.MarketState) string {
	if m.Bet == nil {
		return "-"
	}
	return fmt.Sprintf("%s %.2f@%.2f",
		m.PlayerFor(m.Bet.SelectionID), m.Bet.Size, m.Bet.Price)
}
