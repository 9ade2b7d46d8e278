package ports

import (
	"context"

	"github.com/alejandrodnm/polytrader/internal/domain"
)

// OrderRequest is a single-leg limit order to submit to the gateway.
type OrderRequest struct {
	MarketID string
	Side     domain.Side
	Size     float64 // USDC
	Price    float64 // limit price in [0,1]
}

// PlacedOrder is the gateway's acknowledgement of a submitted order.
type PlacedOrder struct {
	OrderID string
	Status  string
}

// OrderExecutor submits orders and reports the trading-currency balance.
// Signing and order-book mechanics live behind this boundary.
type OrderExecutor interface {
	// PlaceOrder submits a limit order and returns its ID and status.
	PlaceOrder(ctx context.Context, req OrderRequest) (PlacedOrder, error)

	// GetBalance returns the available trading-currency balance in USDC.
	GetBalance(ctx context.Context) (float64, error)
}
