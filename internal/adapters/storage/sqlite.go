package storage

// sqlite.go — store de producción sobre SQLite (pure Go, sin CGo).
//
// Estrategia:
//   - `positions`: el conjunto vivo, una fila por mercado (market_id PK).
//     Cada SavePositions reemplaza el conjunto completo en una transacción:
//     o se escribe todo o no se escribe nada.
//   - `trades` y `cycles`: append-only, nunca se mutan.
//   - Todas las queries usan binding parametrizado. Nada de interpolar
//     valores en el SQL.
//   - Prune automático al arrancar: cycles > 30 días.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/polytrader/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Conjunto vivo de posiciones, una fila por mercado
CREATE TABLE IF NOT EXISTS positions (
    market_id      TEXT PRIMARY KEY,
    market         TEXT NOT NULL,
    side           TEXT NOT NULL,
    entry_price    REAL NOT NULL,
    current_price  REAL NOT NULL,
    size           REAL NOT NULL,
    unrealized_pnl REAL NOT NULL DEFAULT 0,
    opened_at      TEXT NOT NULL
);

-- Log inmutable de órdenes enviadas o simuladas
CREATE TABLE IF NOT EXISTS trades (
    id          TEXT PRIMARY KEY,
    executed_at TEXT NOT NULL,
    dry_run     INTEGER NOT NULL DEFAULT 0,
    market      TEXT NOT NULL,
    market_id   TEXT NOT NULL,
    side        TEXT NOT NULL,
    size        REAL NOT NULL,
    price       REAL NOT NULL,
    fair_value  REAL NOT NULL,
    edge        REAL NOT NULL,
    confidence  TEXT NOT NULL,
    reasoning   TEXT,
    order_id    TEXT,
    status      TEXT NOT NULL
);

-- Resumen ligero por ciclo
CREATE TABLE IF NOT EXISTS cycles (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    scanned_at          TEXT    NOT NULL,
    dry_run             INTEGER NOT NULL DEFAULT 0,
    reason              TEXT,
    markets_scanned     INTEGER NOT NULL DEFAULT 0,
    opportunities_found INTEGER NOT NULL DEFAULT 0,
    trades_executed     INTEGER NOT NULL DEFAULT 0,
    duration_seconds    REAL    NOT NULL DEFAULT 0,
    balance             REAL    NOT NULL DEFAULT 0,
    bankroll            REAL    NOT NULL DEFAULT 0,
    deployed            REAL    NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trades_at ON trades(executed_at DESC);
CREATE INDEX IF NOT EXISTS idx_cycles_at ON cycles(scanned_at DESC);
`

// retentionCycles limita el histórico de ciclos; trades y positions no se podan.
const retentionCycles = 30 * 24 * time.Hour

// SQLite implementa ports.Storage sobre un archivo SQLite (o ":memory:").
type SQLite struct {
	db *sql.DB
}

// NewSQLite abre (o crea) la base de datos en la ruta dada, aplica el schema
// y limpia ciclos antiguos.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLite: apply schema: %w", err)
	}

	s := &SQLite{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// LoadPositions devuelve el conjunto vivo completo.
func (s *SQLite) LoadPositions(ctx context.Context) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, market, side, entry_price, current_price, size, unrealized_pnl, opened_at
		FROM positions
		ORDER BY opened_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadPositions: query: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var pos domain.Position
		var side, openedAt string
		if err := rows.Scan(
			&pos.MarketID,
			&pos.Market,
			&side,
			&pos.EntryPrice,
			&pos.CurrentPrice,
			&pos.Size,
			&pos.UnrealizedPnL,
			&openedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.LoadPositions: scan row: %w", err)
		}
		pos.Side = domain.Side(side)
		pos.OpenedAt, err = time.Parse(time.RFC3339Nano, openedAt)
		if err != nil {
			return nil, fmt.Errorf("storage.LoadPositions: parse opened_at %q: %w", openedAt, err)
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// SavePositions reemplaza el conjunto vivo en una sola transacción.
func (s *SQLite) SavePositions(ctx context.Context, positions []domain.Position) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SavePositions: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("storage.SavePositions: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO positions
			(market_id, market, side, entry_price, current_price, size, unrealized_pnl, opened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SavePositions: prepare: %w", err)
	}
	defer stmt.Close()

	for _, pos := range positions {
		if _, err := stmt.ExecContext(ctx,
			pos.MarketID,
			pos.Market,
			string(pos.Side),
			pos.EntryPrice,
			pos.CurrentPrice,
			pos.Size,
			pos.UnrealizedPnL,
			pos.OpenedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("storage.SavePositions: insert %s: %w", pos.MarketID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SavePositions: commit: %w", err)
	}
	return nil
}

// AppendTrade inserta un registro en el log de trades.
func (s *SQLite) AppendTrade(ctx context.Context, t domain.TradeRecord) error {
	dryRun := 0
	if t.DryRun {
		dryRun = 1
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, executed_at, dry_run, market, market_id, side, size, price,
			 fair_value, edge, confidence, reasoning, order_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.Timestamp.UTC().Format(time.RFC3339Nano),
		dryRun,
		t.Market,
		t.MarketID,
		string(t.Side),
		t.Size,
		t.Price,
		t.FairValue,
		t.Edge,
		string(t.Confidence),
		t.Reasoning,
		t.OrderID,
		string(t.Status),
	); err != nil {
		return fmt.Errorf("storage.AppendTrade: insert %s: %w", t.ID, err)
	}
	return nil
}

// AppendCycle inserta el resumen de un ciclo.
func (s *SQLite) AppendCycle(ctx context.Context, c domain.CycleSummary) error {
	dryRun := 0
	if c.DryRun {
		dryRun = 1
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles
			(scanned_at, dry_run, reason, markets_scanned, opportunities_found,
			 trades_executed, duration_seconds, balance, bankroll, deployed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.Timestamp.UTC().Format(time.RFC3339Nano),
		dryRun,
		c.Reason,
		c.MarketsScanned,
		c.OpportunitiesFound,
		c.TradesExecuted,
		c.DurationSeconds,
		c.Balance,
		c.Bankroll,
		c.Deployed,
	); err != nil {
		return fmt.Errorf("storage.AppendCycle: insert: %w", err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// pruneOld elimina ciclos antiguos para mantener la DB ligera.
func (s *SQLite) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionCycles).Format(time.RFC3339Nano)
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE scanned_at < ?`, cutoff)
}
