package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/alejandrodnm/polytrader/internal/domain"
)

const (
	gammaMarketsPath  = "/markets"
	gammaPageSize     = 100
	gammaConditionMax = 20
)

// FetchMarkets devuelve hasta limit mercados activos con volumen 24h mínimo
// minVolume. Pagina Gamma hasta llenar el límite o agotar los resultados.
func (c *Client) FetchMarkets(ctx context.Context, limit int, minVolume float64) ([]domain.Market, error) {
	var markets []domain.Market

	for offset := 0; len(markets) < limit; offset += gammaPageSize {
		page, err := c.fetchGammaPage(ctx, offset)
		if err != nil {
			return nil, fmt.Errorf("polymarket.FetchMarkets: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for _, gm := range page {
			m, ok := mapGammaMarket(gm)
			if !ok {
				continue
			}
			if m.Volume24h < minVolume {
				continue
			}
			markets = append(markets, m)
			if len(markets) == limit {
				break
			}
		}
	}

	slog.Info("markets fetched", "count", len(markets), "min_volume", minVolume)
	return markets, nil
}

// FetchPrices devuelve el precio actual de los mercados dados, indexado por
// market ID. Consulta Gamma en lotes; los IDs sin resultado se omiten.
func (c *Client) FetchPrices(ctx context.Context, marketIDs []string) (map[string]float64, error) {
	prices := make(map[string]float64, len(marketIDs))

	for i := 0; i < len(marketIDs); i += gammaConditionMax {
		end := min(i+gammaConditionMax, len(marketIDs))
		batch := marketIDs[i:end]

		u := fmt.Sprintf("%s%s?condition_ids=%s&limit=%d",
			c.gammaBase,
			gammaMarketsPath,
			url.QueryEscape(strings.Join(batch, ",")),
			gammaConditionMax,
		)

		var page gammaMarketsResponse
		if err := c.get(ctx, c.gammaLimiter, u, &page); err != nil {
			return nil, fmt.Errorf("polymarket.FetchPrices: batch %d: %w", i/gammaConditionMax, err)
		}

		for _, gm := range page {
			if m, ok := mapGammaMarket(gm); ok {
				prices[m.ID] = m.Price
			}
		}
	}

	return prices, nil
}

// fetchGammaPage obtiene una página de mercados activos de Gamma.
func (c *Client) fetchGammaPage(ctx context.Context, offset int) (gammaMarketsResponse, error) {
	params := url.Values{}
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(gammaPageSize))
	params.Set("offset", strconv.Itoa(offset))

	u := fmt.Sprintf("%s%s?%s", c.gammaBase, gammaMarketsPath, params.Encode())

	var page gammaMarketsResponse
	if err := c.get(ctx, c.gammaLimiter, u, &page); err != nil {
		return nil, fmt.Errorf("fetch page offset=%d: %w", offset, err)
	}
	return page, nil
}
