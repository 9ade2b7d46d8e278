package ports

import (
	"context"

	"github.com/alejandrodnm/polytrader/internal/domain"
)

// Storage persiste el estado del trader: posiciones abiertas, log de trades
// y resúmenes de ciclo. Los logs son append-only; el conjunto de posiciones
// se reescribe completo en cada mutación del ledger.
type Storage interface {
	// LoadPositions devuelve todas las posiciones abiertas persistidas.
	LoadPositions(ctx context.Context) ([]domain.Position, error)

	// SavePositions reemplaza el conjunto persistido de posiciones.
	// Debe dejar el store consistente antes de devolver: sin escrituras
	// parciales.
	SavePositions(ctx context.Context, positions []domain.Position) error

	// AppendTrade añade un registro inmutable al log de trades.
	AppendTrade(ctx context.Context, trade domain.TradeRecord) error

	// AppendCycle añade el resumen de un ciclo al log de ciclos.
	AppendCycle(ctx context.Context, summary domain.CycleSummary) error

	// Close cierra el store limpiamente.
	Close() error
}
