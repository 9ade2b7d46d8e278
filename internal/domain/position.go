package domain

import (
	"math"
	"time"
)

// Side es la dirección de un trade sobre el lado YES del mercado.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Position es un stake abierto en un mercado. Hay como máximo una posición
// viva por market ID; el ledger es el único escritor del conjunto persistido.
type Position struct {
	Market        string    `json:"market"`
	MarketID      string    `json:"marketId"`
	Side          Side      `json:"side"`
	EntryPrice    float64   `json:"entryPrice"`
	CurrentPrice  float64   `json:"currentPrice"`
	Size          float64   `json:"size"` // capital en USDC, no shares
	UnrealizedPnL float64   `json:"unrealizedPnl"`
	OpenedAt      time.Time `json:"openedAt"`
}

// UpdatePrice actualiza el precio actual y recalcula el P&L no realizado.
//
// El contrato binario cotiza en [0,1] y paga $1 por share si resuelve YES:
//   BUY:  shares = size/entry;      pnl = (current-entry) × shares
//   SELL: shares = size/(1-entry);  pnl = (entry-current) × shares
func (p *Position) UpdatePrice(current float64) {
	p.CurrentPrice = current

	switch p.Side {
	case SideBuy:
		if p.EntryPrice <= 0 {
			return
		}
		shares := p.Size / p.EntryPrice
		p.UnrealizedPnL = round2((current - p.EntryPrice) * shares)
	case SideSell:
		if p.EntryPrice >= 1 {
			return
		}
		shares := p.Size / (1 - p.EntryPrice)
		p.UnrealizedPnL = round2((p.EntryPrice - current) * shares)
	}
}

// round2 redondea a 2 decimales (centavos de USDC).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
