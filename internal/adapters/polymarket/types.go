package polymarket

import "encoding/json"

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket es un mercado activo según Gamma. Gamma devuelve algunos campos
// numéricos como strings JSON, usamos json.Number; outcomePrices llega como un
// string que a su vez contiene un array JSON.
type gammaMarket struct {
	ConditionID   string      `json:"conditionId"`
	Question      string      `json:"question"`
	OutcomePrices string      `json:"outcomePrices"`
	Volume24h     json.Number `json:"volume24hr"`
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
}

// --- Order gateway ---

// placeOrderRequest es el body del POST /order.
type placeOrderRequest struct {
	MarketID  string  `json:"market_id"`
	Side      string  `json:"side"`
	Size      float64 `json:"size"`
	Price     float64 `json:"price"`
	OrderType string  `json:"order_type"`
}

// placeOrderResponse es la confirmación del gateway.
type placeOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// balanceResponse es la respuesta de GET /balance.
type balanceResponse struct {
	Balance json.Number `json:"balance"`
}
