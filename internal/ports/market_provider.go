package ports

import (
	"context"

	"github.com/alejandrodnm/polytrader/internal/domain"
)

// MarketProvider obtiene los mercados activos con sus precios cotizados.
type MarketProvider interface {
	// FetchMarkets devuelve hasta limit mercados activos con volumen 24h
	// mínimo minVolume. El snapshot es válido solo para el ciclo actual.
	FetchMarkets(ctx context.Context, limit int, minVolume float64) ([]domain.Market, error)

	// FetchPrices devuelve el precio actual de los mercados dados,
	// indexado por market ID. Los IDs desconocidos se omiten del mapa.
	FetchPrices(ctx context.Context, marketIDs []string) (map[string]float64, error)
}
