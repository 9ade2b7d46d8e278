package ports

import (
	"context"

	"github.com/alejandrodnm/polytrader/internal/domain"
)

// Researcher recopila contexto actualizado sobre la pregunta de un mercado.
type Researcher interface {
	// Research devuelve un resumen en texto libre para la pregunta dada.
	// Un resumen vacío significa "sin información": el mercado se salta.
	Research(ctx context.Context, question string) (string, error)
}

// Oracle produce una estimación independiente de fair value.
type Oracle interface {
	// EstimateFairValue estima la probabilidad del evento a partir de la
	// pregunta y el texto de research. La respuesta ya viene validada:
	// probabilidad en [0,1] y confianza low/medium/high.
	EstimateFairValue(ctx context.Context, question, research string) (domain.Estimate, error)
}
