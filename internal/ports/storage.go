package ports

import (
	"context"
	"time"

	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
)

// BetStore persiste el historial de apuestas liquidadas.
type BetStore interface {
	// SaveSettlement persiste una liquidación (ganada o perdida).
	SaveSettlement(ctx context.Context, s domain.Settlement) error

	// History devuelve las liquidaciones registradas en el rango de tiempo dado.
	History(ctx context.Context, from, to time.Time) ([]domain.Settlement, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}

// EventLogger escribe registros append-only al log JSONL del evento dado.
type EventLogger interface {
	// Write añade un registro al log del evento. Los errores se loguean y
	// nunca interrumpen el procesamiento del stream.
	Write(eventID string, rec domain.EventRecord) error

	// Close cierra todos los archivos abiertos.
	Close() error
}
