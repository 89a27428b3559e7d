package polymarket

// trading.go — envío passthrough de órdenes al CLOB.
//
// Este layer no cachea ni valida reglas de negocio del trade: pasa la orden
// verbatim y devuelve la respuesta. La autenticación va por fuera (headers
// inyectados por el transporte del caller).

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/alejandrodnm/whaleterm/internal/ports"
)

const orderPath = "/order"

type orderRequest struct {
	ClientOrderID string  `json:"client_order_id"`
	TokenID       string  `json:"tokenId"`
	Side          string  `json:"side"`
	Price         float64 `json:"price"`
	SizeUSD       float64 `json:"size_usd"`
	OrderType     string  `json:"orderType"`
}

type orderResponse struct {
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
}

// SubmitOrder implementa ports.TradeExecutor. El client_order_id permite al
// servidor deduplicar reenvíos del mismo trade.
func (c *Client) SubmitOrder(ctx context.Context, req ports.OrderRequest) (ports.OrderResult, error) {
	body := orderRequest{
		ClientOrderID: uuid.New().String(),
		TokenID:       req.AssetID,
		Side:          req.Side,
		Price:         req.Price,
		SizeUSD:       req.SizeUSD,
		OrderType:     "GTC",
	}

	var resp orderResponse
	if err := c.post(ctx, c.ordersLimiter, c.base+orderPath, body, &resp); err != nil {
		return ports.OrderResult{}, fmt.Errorf("polymarket.SubmitOrder: %w", err)
	}
	if !resp.Success {
		return ports.OrderResult{}, fmt.Errorf("polymarket.SubmitOrder: rejected: %s", resp.ErrorMsg)
	}

	return ports.OrderResult{OrderID: resp.OrderID, Status: resp.Status}, nil
}
