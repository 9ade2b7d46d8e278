package ports

import (
	"context"

	"github.com/alejandrodnm/polytrader/internal/domain"
)

// Notifier presenta al usuario el resultado de cada ciclo.
type Notifier interface {
	// Notify muestra las oportunidades aceptadas, las posiciones abiertas
	// y el resumen del ciclo. En la implementación de consola imprime
	// tablas formateadas o una línea compacta.
	Notify(ctx context.Context, opportunities []domain.Opportunity, positions []domain.Position, summary domain.CycleSummary) error
}
