// Package ledger mantiene el registro de posiciones abiertas y sus agregados
// de capital. Es el único escritor del conjunto persistido de posiciones.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polytrader/internal/domain"
	"github.com/alejandrodnm/polytrader/internal/ports"
)

// ErrPositionExists se devuelve al intentar abrir una posición en un mercado
// que ya tiene una viva. El caller recibe además la posición existente.
var ErrPositionExists = errors.New("ledger: position already exists for market")

// Ledger es el libro de posiciones en memoria respaldado por un Storage.
// Cada mutación persiste de forma síncrona antes de devolver: si la escritura
// falla, el estado en memoria no cambia.
//
// No lleva locking: el ciclo de trading es run-to-completion y single-threaded.
// Si alguna vez corrieran ciclos concurrentes, el acceso debe serializarse en
// el boundary del engine.
type Ledger struct {
	initialBankroll float64
	store           ports.Storage
	positions       map[string]domain.Position // marketID → posición viva

	now func() time.Time
}

// New construye el Ledger cargando las posiciones persistidas. Un load
// fallido no es fatal: arranca con el conjunto vacío y lo deja registrado,
// el error de persistencia no debe tumbar el proceso (§ manejo de errores).
func New(ctx context.Context, store ports.Storage, initialBankroll float64) *Ledger {
	l := &Ledger{
		initialBankroll: initialBankroll,
		store:           store,
		positions:       make(map[string]domain.Position),
		now:             time.Now,
	}

	loaded, err := store.LoadPositions(ctx)
	if err != nil {
		slog.Warn("ledger: failed to load positions, starting empty", "err", err)
		return l
	}
	for _, pos := range loaded {
		l.positions[pos.MarketID] = pos
	}
	slog.Info("ledger: positions loaded", "count", len(l.positions))
	return l
}

// Add abre una posición nueva. Si ya existe una para ese market ID devuelve
// la existente junto con ErrPositionExists; el conjunto no se toca.
func (l *Ledger) Add(ctx context.Context, market, marketID string, side domain.Side, entryPrice, size float64) (domain.Position, error) {
	if existing, ok := l.positions[marketID]; ok {
		return existing, fmt.Errorf("%w: %s", ErrPositionExists, marketID)
	}
	if size <= 0 {
		return domain.Position{}, fmt.Errorf("ledger.Add: size must be positive, got %.2f", size)
	}

	pos := domain.Position{
		Market:       market,
		MarketID:     marketID,
		Side:         side,
		EntryPrice:   entryPrice,
		CurrentPrice: entryPrice,
		Size:         size,
		OpenedAt:     l.now().UTC(),
	}

	next := l.copyWith(pos)
	if err := l.persist(ctx, next); err != nil {
		return domain.Position{}, fmt.Errorf("ledger.Add: %w", err)
	}
	l.positions = next
	return pos, nil
}

// UpdatePrices refresca el precio actual y el P&L de las posiciones cuyo
// market ID aparece en el mapa. IDs desconocidos se ignoran.
func (l *Ledger) UpdatePrices(ctx context.Context, prices map[string]float64) error {
	next := make(map[string]domain.Position, len(l.positions))
	for id, pos := range l.positions {
		if price, ok := prices[id]; ok {
			pos.UpdatePrice(price)
		}
		next[id] = pos
	}

	if err := l.persist(ctx, next); err != nil {
		return fmt.Errorf("ledger.UpdatePrices: %w", err)
	}
	l.positions = next
	return nil
}

// Remove elimina la posición del mercado dado (resolución o cierre manual).
// Devuelve la posición eliminada y false si no existía.
func (l *Ledger) Remove(ctx context.Context, marketID string) (domain.Position, bool, error) {
	pos, ok := l.positions[marketID]
	if !ok {
		return domain.Position{}, false, nil
	}

	next := make(map[string]domain.Position, len(l.positions))
	for id, p := range l.positions {
		if id != marketID {
			next[id] = p
		}
	}
	if err := l.persist(ctx, next); err != nil {
		return domain.Position{}, false, fmt.Errorf("ledger.Remove: %w", err)
	}
	l.positions = next
	return pos, true, nil
}

// Has devuelve true si hay una posición viva en el mercado dado.
func (l *Ledger) Has(marketID string) bool {
	_, ok := l.positions[marketID]
	return ok
}

// Count devuelve el número de posiciones abiertas.
func (l *Ledger) Count() int {
	return len(l.positions)
}

// Positions devuelve las posiciones abiertas ordenadas por fecha de apertura.
func (l *Ledger) Positions() []domain.Position {
	out := make([]domain.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

// MarketIDs devuelve los market IDs con posición abierta.
func (l *Ledger) MarketIDs() []string {
	ids := make([]string, 0, len(l.positions))
	for id := range l.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TotalUnrealizedPnL suma el P&L no realizado de todas las posiciones vivas.
func (l *Ledger) TotalUnrealizedPnL() float64 {
	total := 0.0
	for _, pos := range l.positions {
		total += pos.UnrealizedPnL
	}
	return total
}

// TotalDeployed suma el capital desplegado (sizes) de las posiciones vivas.
func (l *Ledger) TotalDeployed() float64 {
	total := 0.0
	for _, pos := range l.positions {
		total += pos.Size
	}
	return total
}

// CurrentBankroll es el bankroll inicial ajustado por P&L no realizado.
func (l *Ledger) CurrentBankroll() float64 {
	return l.initialBankroll + l.TotalUnrealizedPnL()
}

// AvailableCapital es el bankroll actual menos el capital desplegado.
func (l *Ledger) AvailableCapital() float64 {
	return l.CurrentBankroll() - l.TotalDeployed()
}

// copyWith clona el mapa de posiciones añadiendo pos.
func (l *Ledger) copyWith(pos domain.Position) map[string]domain.Position {
	next := make(map[string]domain.Position, len(l.positions)+1)
	for id, p := range l.positions {
		next[id] = p
	}
	next[pos.MarketID] = pos
	return next
}

// persist escribe el conjunto completo al store.
func (l *Ledger) persist(ctx context.Context, positions map[string]domain.Position) error {
	out := make([]domain.Position, 0, len(positions))
	for _, pos := range positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return l.store.SavePositions(ctx, out)
}
