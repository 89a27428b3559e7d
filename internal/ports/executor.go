package ports

import "context"

// OrderRequest es la petición opaca de envío de trade. Este layer la pasa
// verbatim: las reglas de negocio del trade viven fuera.
type OrderRequest struct {
	AssetID string
	Side    string // "BUY" | "SELL"
	Price   float64
	SizeUSD float64
}

// OrderResult es la respuesta del endpoint de trading.
type OrderResult struct {
	OrderID string
	Status  string
}

// TradeExecutor envía órdenes al endpoint de trading. Fuera del caching
// de este layer.
type TradeExecutor interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}
