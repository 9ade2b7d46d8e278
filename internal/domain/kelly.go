package domain

import "math"

const (
	// kellyMultiplier aplica quarter-Kelly: reduce la varianza causada por
	// el error de estimación en p.
	kellyMultiplier = 0.25

	// minPositionSize es el ticket mínimo en USDC. Posiciones por debajo del
	// umbral no se anulan silenciosamente: se apuesta el mínimo.
	minPositionSize = 1.0
)

// KellyFraction calcula la fracción de Kelly completa para una apuesta binaria
// a cuota pareja (payoff 1:1). Es la especialización con b=1 de la fórmula
// general (p(b+1)-1)/b, que se reduce a 2p-1.
func KellyFraction(p float64) float64 {
	return 2*p - 1
}

// PositionSize convierte una probabilidad estimada en un stake en USDC:
// quarter-Kelly, valor absoluto recortado a maxKelly, multiplicado por el
// bankroll, con suelo de $1. El signo de la fracción se descarta porque la
// dirección BUY/SELL se decide por separado en Opportunity.Side.
func PositionSize(p, maxKelly, bankroll float64) float64 {
	kelly := KellyFraction(p) * kellyMultiplier
	fraction := math.Min(math.Abs(kelly), maxKelly)
	size := bankroll * fraction
	return math.Max(size, minPositionSize)
}
