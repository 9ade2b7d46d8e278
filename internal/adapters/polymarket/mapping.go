package polymarket

import (
	"encoding/json"
	"strconv"

	"github.com/alejandrodnm/polytrader/internal/domain"
)

// mapGammaMarket convierte un gammaMarket DTO a domain.Market.
// Devuelve ok=false si el mercado no es usable: cerrado, sin pregunta o sin
// precio del lado YES parseable.
func mapGammaMarket(gm gammaMarket) (domain.Market, bool) {
	if !gm.Active || gm.Closed || gm.ConditionID == "" || gm.Question == "" {
		return domain.Market{}, false
	}

	price, ok := parseYesPrice(gm.OutcomePrices)
	if !ok {
		return domain.Market{}, false
	}

	m := domain.Market{
		ID:       gm.ConditionID,
		Question: gm.Question,
		Price:    price,
	}
	if v, err := gm.Volume24h.Float64(); err == nil {
		m.Volume24h = v
	}
	return m, true
}

// parseYesPrice extrae el precio del primer outcome (YES) de outcomePrices.
// Gamma lo devuelve como string con un array JSON dentro: "[\"0.45\", \"0.55\"]".
func parseYesPrice(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}

	var prices []string
	if err := json.Unmarshal([]byte(raw), &prices); err != nil || len(prices) == 0 {
		return 0, false
	}

	price, err := strconv.ParseFloat(prices[0], 64)
	if err != nil || price < 0 || price > 1 {
		return 0, false
	}
	return price, true
}
