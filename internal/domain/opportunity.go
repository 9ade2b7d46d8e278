package domain

import (
	"math"
	"time"
)

// Opportunity es el resultado de detectar un mispricing en un mercado.
// Existe solo durante el ciclo: se rankea, se dimensiona y se descarta.
type Opportunity struct {
	Market    Market
	FairValue float64 // probabilidad estimada por el oráculo
	Price     float64 // probabilidad cotizada por el mercado
	Edge      float64 // |FairValue - Price|
	Confidence Confidence
	Reasoning  string
	ScannedAt  time.Time
}

// NewOpportunity construye una Opportunity a partir de un par (Market, Estimate).
func NewOpportunity(m Market, e Estimate, now time.Time) Opportunity {
	return Opportunity{
		Market:     m,
		FairValue:  e.Probability,
		Price:      m.Price,
		Edge:       math.Abs(e.Probability - m.Price),
		Confidence: e.Confidence,
		Reasoning:  e.Reasoning,
		ScannedAt:  now,
	}
}

// Side devuelve la dirección del trade: BUY si el fair value está por encima
// del precio de mercado, SELL en caso contrario. La dirección se decide aquí,
// por comparación de precios, no por el signo de la fracción de Kelly.
func (o Opportunity) Side() Side {
	if o.FairValue > o.Price {
		return SideBuy
	}
	return SideSell
}
