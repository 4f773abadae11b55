package ports

import (
	"context"

	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
)

// Notifier presenta el estado actual del bot al usuario.
type Notifier interface {
	// Report muestra los mercados trackeados y el estado de staking.
	// En la implementación de consola, imprime una tabla formateada.
	Report(ctx context.Context, markets []*domain.MarketState, staking domain.StakingState) error
}
