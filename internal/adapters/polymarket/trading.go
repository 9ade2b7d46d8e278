package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polytrader/internal/ports"
)

const (
	clobOrderPath   = "/order"
	clobBalancePath = "/balance"

	// Siempre órdenes limit: mejor control de precio que market orders.
	orderTypeLimit = "limit"
)

// PlaceOrder envía una orden limit al gateway CLOB y devuelve su ID y estado.
// El gateway se encarga de la firma; aquí solo viaja la intención de trade.
func (c *Client) PlaceOrder(ctx context.Context, req ports.OrderRequest) (ports.PlacedOrder, error) {
	body := placeOrderRequest{
		MarketID:  req.MarketID,
		Side:      string(req.Side),
		Size:      req.Size,
		Price:     req.Price,
		OrderType: orderTypeLimit,
	}

	var resp placeOrderResponse
	url := c.clobBase + clobOrderPath
	if err := c.post(ctx, c.clobLimiter, url, body, &resp); err != nil {
		return ports.PlacedOrder{}, fmt.Errorf("polymarket.PlaceOrder: %s: %w", req.MarketID, err)
	}

	if resp.Status == "" {
		resp.Status = "open"
	}

	slog.Info("order placed",
		"market_id", req.MarketID,
		"side", req.Side,
		"size", req.Size,
		"price", req.Price,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return ports.PlacedOrder{OrderID: resp.OrderID, Status: resp.Status}, nil
}

// GetBalance devuelve el balance USDC disponible en el CLOB.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	var resp balanceResponse
	url := c.clobBase + clobBalancePath
	if err := c.get(ctx, c.clobLimiter, url, &resp); err != nil {
		return 0, fmt.Errorf("polymarket.GetBalance: %w", err)
	}

	balance, err := resp.Balance.Float64()
	if err != nil {
		return 0, fmt.Errorf("polymarket.GetBalance: parse %q: %w", resp.Balance, err)
	}
	return balance, nil
}
