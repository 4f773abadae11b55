package storage

// sqlite.go — historial de apuestas liquidadas.
//
// Una fila por liquidación; el bot solo inserta y consulta por rango de
// fechas para el reporte de estado. Prune automático al arrancar
// (liquidaciones > 90 días).

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS settlements (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id         TEXT    NOT NULL,
    event_id          TEXT    NOT NULL,
    player            TEXT,
    selection_id      INTEGER NOT NULL,
    size              REAL    NOT NULL,
    price             REAL    NOT NULL,
    won               INTEGER NOT NULL,
    profit            REAL    NOT NULL,
    multiplier_before INTEGER NOT NULL,
    multiplier_after  INTEGER NOT NULL,
    balance_after     REAL    NOT NULL,
    settled_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_settlements_at     ON settlements(settled_at DESC);
CREATE INDEX IF NOT EXISTS idx_settlements_market ON settlements(market_id);
`

const retentionSettlements = 90 * 24 * time.Hour

// SQLiteStore implementa ports.BetStore usando SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia liquidaciones antiguas.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSettlement persiste una liquidación.
func (s *SQLiteStore) SaveSettlement(ctx context.Context, st domain.Settlement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settlements (
			market_id, event_id, player, selection_id, size, price, won,
			profit, multiplier_before, multiplier_after, balance_after, settled_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.MarketID, st.EventID, st.Player, st.SelectionID, st.Size, st.Price,
		boolToInt(st.Won), st.Profit, st.MultiplierBefore, st.MultiplierAfter,
		st.BalanceAfter, st.SettledAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveSettlement: insert %q: %w", st.MarketID, err)
	}
	return nil
}

// History devuelve las liquidaciones del rango, más recientes primero.
func (s *SQLiteStore) History(ctx context.Context, from, to time.Time) ([]domain.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, event_id, player, selection_id, size, price, won,
		       profit, multiplier_before, multiplier_after, balance_after, settled_at
		FROM settlements
		WHERE settled_at >= ? AND settled_at <= ?
		ORDER BY settled_at DESC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.History: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Settlement
	for rows.Next() {
		var st domain.Settlement
		var won int
		if err := rows.Scan(
			&st.MarketID, &st.EventID, &st.Player, &st.SelectionID, &st.Size,
			&st.Price, &won, &st.Profit, &st.MultiplierBefore,
			&st.MultiplierAfter, &st.BalanceAfter, &st.SettledAt,
		); err != nil {
			return nil, fmt.Errorf("storage.History: scan: %w", err)
		}
		st.Won = won != 0
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.History: rows: %w", err)
	}
	return out, nil
}

// Close cierra la conexión a la base de datos limpiamente.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// pruneOld borra liquidaciones fuera de la ventana de retención.
func (s *SQLiteStore) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionSettlements)
	s.db.ExecContext(ctx, `DELETE FROM settlements WHERE settled_at < ?`, cutoff)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
